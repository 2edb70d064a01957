package catalog

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const appleMusicBaseURL = "https://api.music.apple.com/v1"

// AppleMusicClient implements Client against the Apple Music API, which
// needs a signed developer token but has higher rate limits than the
// public search endpoint.
type AppleMusicClient struct {
	keyID      string
	teamID     string
	privateKey *ecdsa.PrivateKey
	httpClient *http.Client
	token      string
	tokenTime  time.Time
}

// NewAppleMusicClient creates a new Apple Music API client.
func NewAppleMusicClient(keyID, teamID, privateKeyPEM string) (*AppleMusicClient, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to parse PEM block containing the key")
	}

	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &AppleMusicClient{
		keyID:      keyID,
		teamID:     teamID,
		privateKey: privateKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// developerToken returns a cached signed token, minting a fresh one when
// the cached token is within an hour of expiry.
func (c *AppleMusicClient) developerToken() (string, error) {
	const tokenLifetime = 12 * time.Hour

	if c.token != "" && time.Since(c.tokenTime) < tokenLifetime-time.Hour {
		return c.token, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": c.teamID,
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.keyID

	signed, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign developer token: %w", err)
	}

	c.token = signed
	c.tokenTime = now
	return signed, nil
}

type appleMusicSearchResponse struct {
	Results struct {
		Songs *struct {
			Data []appleMusicSong `json:"data"`
		} `json:"songs,omitempty"`
	} `json:"results"`
}

type appleMusicSong struct {
	Attributes struct {
		Name       string `json:"name"`
		ArtistName string `json:"artistName"`
		AlbumName  string `json:"albumName"`
		Previews   []struct {
			URL string `json:"url"`
		} `json:"previews"`
		Artwork struct {
			URL string `json:"url"`
		} `json:"artwork"`
	} `json:"attributes"`
}

// TopTracks returns the artist's most popular songs in a storefront.
func (c *AppleMusicClient) TopTracks(ctx context.Context, artist, country string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 5
	}

	token, err := c.developerToken()
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("term", artist)
	params.Set("types", "songs")
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/catalog/%s/search?%s", appleMusicBaseURL, strings.ToLower(country), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apple music search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("apple music search: status %d: %s", resp.StatusCode, body)
	}

	var payload appleMusicSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var tracks []Track
	if payload.Results.Songs != nil {
		for _, s := range payload.Results.Songs.Data {
			track := Track{
				Title:      s.Attributes.Name,
				Artist:     s.Attributes.ArtistName,
				Album:      s.Attributes.AlbumName,
				Country:    country,
				ArtworkURL: s.Attributes.Artwork.URL,
			}
			if len(s.Attributes.Previews) > 0 {
				track.PreviewURL = s.Attributes.Previews[0].URL
			}
			tracks = append(tracks, track)
		}
	}

	return tracks, nil
}
