package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"songark/internal/store"
)

// bootstrapSeedArk fills an empty ark with a baseline of well-known picks
// owned by a dedicated seed user. Seed votes are flagged is_seed so the
// "real data" filter can exclude them once enough people have voted.
func bootstrapSeedArk(ctx context.Context, db *sql.DB, dataStore *store.Store) error {
	votesTableExists, err := tableExists(ctx, db, "votes")
	if err != nil {
		return fmt.Errorf("check votes table: %w", err)
	}
	if !votesTableExists {
		return nil
	}

	userID, err := ensureSeedUser(ctx, db, dataStore)
	if err != nil {
		return err
	}

	return ensureSeedVotes(ctx, db, userID)
}

func ensureSeedUser(ctx context.Context, db *sql.DB, dataStore *store.Store) (int64, error) {
	const username = "ark_seed"

	id, err := dataStore.CreateUser(ctx, username, randomSeedPassword())
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrUserExists) {
		return 0, fmt.Errorf("bootstrap seed user: %w", err)
	}

	if err := db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE username = $1
	`, username).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup seed user: %w", err)
	}
	return id, nil
}

func ensureSeedVotes(ctx context.Context, db *sql.DB, userID int64) error {
	var count int
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM votes
		WHERE user_id = $1
	`, userID).Scan(&count); err != nil {
		return fmt.Errorf("count seed votes: %w", err)
	}
	if count > 0 {
		return nil
	}

	type seedVote struct {
		Artist string
		Song   string
	}

	votes := []seedVote{
		{Artist: "The Beatles", Song: "A Day in the Life"},
		{Artist: "Queen", Song: "Bohemian Rhapsody"},
		{Artist: "Michael Jackson", Song: "Billie Jean"},
		{Artist: "Stevie Wonder", Song: "Superstition"},
		{Artist: "David Bowie", Song: "Life on Mars?"},
		{Artist: "Radiohead", Song: "Paranoid Android"},
		{Artist: "Nirvana", Song: "Smells Like Teen Spirit"},
		{Artist: "Bob Dylan", Song: "Like a Rolling Stone"},
		{Artist: "Prince", Song: "Purple Rain"},
		{Artist: "Fleetwood Mac", Song: "Dreams"},
		{Artist: "Led Zeppelin", Song: "Stairway to Heaven"},
		{Artist: "The Rolling Stones", Song: "Gimme Shelter"},
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	for _, v := range votes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO votes (user_id, artist, song, is_passionate, is_seed, updated_at)
			VALUES ($1, $2, $3, FALSE, TRUE, NOW())
			ON CONFLICT (user_id, artist) DO NOTHING
		`, userID, v.Artist, v.Song); err != nil {
			return fmt.Errorf("insert seed vote for %q: %w", v.Artist, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	tx = nil

	return nil
}

// randomSeedPassword generates a throwaway credential; nobody logs in as
// the seed user.
func randomSeedPassword() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func tableExists(ctx context.Context, q queryRower, table string) (bool, error) {
	var name sql.NullString
	if err := q.QueryRowContext(ctx, `SELECT to_regclass($1)`, table).Scan(&name); err != nil {
		return false, err
	}
	return name.Valid, nil
}
