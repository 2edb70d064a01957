package catalog

import "context"

// Track represents a track from an external music catalog.
type Track struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	Country    string `json:"country"`
	PreviewURL string `json:"preview_url,omitempty"`
	ArtworkURL string `json:"artwork_url,omitempty"`
}

// Client defines the interface for music catalog lookups. Implementations
// exist for the public iTunes Search API and the Apple Music API.
type Client interface {
	// TopTracks returns an artist's most popular tracks in one storefront
	// (two-letter country code, e.g. "JP", "US").
	TopTracks(ctx context.Context, artist, country string, limit int) ([]Track, error)
}
