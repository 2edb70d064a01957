package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"songark/internal/catalog"
)

// arkfetch looks up an artist's top tracks per storefront, which is handy
// for sanity-checking ark rankings against what the catalogs say people
// actually listen to.
func main() {
	artist := flag.String("artist", "", "artist to look up (required)")
	countries := flag.String("countries", "US", "comma-separated storefront country codes")
	limit := flag.Int("limit", 5, "tracks per storefront")
	asJSON := flag.Bool("json", false, "emit JSON instead of a table")
	flag.Parse()

	if *artist == "" {
		flag.Usage()
		os.Exit(2)
	}

	client := newClient()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	results := make(map[string][]catalog.Track)
	for _, country := range splitCountries(*countries) {
		tracks, err := client.TopTracks(ctx, *artist, country, *limit)
		if err != nil {
			log.Fatalf("fetch %s: %v", country, err)
		}
		results[country] = tracks
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			log.Fatal(err)
		}
		return
	}

	for country, tracks := range results {
		fmt.Printf("=== %s ===\n", country)
		for i, t := range tracks {
			fmt.Printf("%2d. %s (%s)\n", i+1, t.Title, t.Album)
		}
		fmt.Println()
	}
}

// newClient prefers the Apple Music API when developer credentials are
// present, falling back to the public iTunes Search API.
func newClient() catalog.Client {
	keyID := os.Getenv("APPLE_MUSIC_KEY_ID")
	teamID := os.Getenv("APPLE_MUSIC_TEAM_ID")
	keyPath := os.Getenv("APPLE_MUSIC_KEY_FILE")

	if keyID != "" && teamID != "" && keyPath != "" {
		pemBytes, err := os.ReadFile(keyPath)
		if err != nil {
			log.Fatalf("read apple music key: %v", err)
		}
		client, err := catalog.NewAppleMusicClient(keyID, teamID, string(pemBytes))
		if err != nil {
			log.Fatalf("apple music client: %v", err)
		}
		return client
	}

	return catalog.NewITunesClient()
}

func splitCountries(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	return out
}
