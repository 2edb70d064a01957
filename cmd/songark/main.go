package main

import (
	"context"
	"net/http"

	"songark/internal/logging"
	"songark/internal/store"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logging.Fatal(err, "load config")
	}

	logging.SetGlobalLogger(logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}))

	db, err := openDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logging.Fatal(err, "connect database")
	}
	defer db.Close()

	dataStore := store.New(db)

	if cfg.SeedArk {
		if err := bootstrapSeedArk(context.Background(), db, dataStore); err != nil {
			logging.Fatal(err, "bootstrap seed ark")
		}
	}

	handler := newHTTPHandler(cfg, dataStore)

	logging.Info("API available at http://localhost" + cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		logging.Fatal(err, "server error")
	}
}
