package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const itunesSearchURL = "https://itunes.apple.com/search"

// ITunesClient queries the public iTunes Search API. No credentials are
// required; results are ranked by storefront popularity.
type ITunesClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewITunesClient creates a client for the public iTunes Search API.
func NewITunesClient() *ITunesClient {
	return &ITunesClient{
		baseURL: itunesSearchURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewITunesClientWithBaseURL is used by tests to point at a fake server.
func NewITunesClientWithBaseURL(baseURL string) *ITunesClient {
	c := NewITunesClient()
	c.baseURL = baseURL
	return c
}

type itunesSearchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

type itunesResult struct {
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	PreviewURL     string `json:"previewUrl"`
	ArtworkURL100  string `json:"artworkUrl100"`
	Country        string `json:"country"`
}

// TopTracks returns the artist's most popular songs in the given storefront.
func (c *ITunesClient) TopTracks(ctx context.Context, artist, country string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("term", artist)
	params.Set("country", country)
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("itunes search: status %d: %s", resp.StatusCode, body)
	}

	var payload itunesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	tracks := make([]Track, 0, len(payload.Results))
	for _, r := range payload.Results {
		tracks = append(tracks, Track{
			Title:      r.TrackName,
			Artist:     r.ArtistName,
			Album:      r.CollectionName,
			Country:    country,
			PreviewURL: r.PreviewURL,
			ArtworkURL: r.ArtworkURL100,
		})
	}

	return tracks, nil
}
