package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"songark/internal/store"
)

func TestArtistRankingsDefaultsToRealOnly(t *testing.T) {
	ts := newTestServer()
	ts.rankings.rankings = []store.ArtistRanking{
		{Artist: "Queen", TotalScore: 2.3, VoteCount: 5, TopSong: "Bohemian Rhapsody"},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artists", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !ts.rankings.lastRealOnly {
		t.Fatal("expected realOnly without the filter cookie")
	}

	var resp struct {
		Artists []store.ArtistRanking `json:"artists"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Artists) != 1 || resp.Artists[0].Artist != "Queen" {
		t.Fatalf("unexpected response: %+v", resp.Artists)
	}
}

func TestArtistRankingsWithFilterCookie(t *testing.T) {
	ts := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artists", nil)
	req.AddCookie(&http.Cookie{Name: filterCookie, Value: "1"})
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ts.rankings.lastRealOnly {
		t.Fatal("expected all data with the filter cookie set")
	}
}

func TestSongCountsPassesArtist(t *testing.T) {
	ts := newTestServer()
	ts.rankings.counts = []store.SongCount{
		{Artist: "Queen", Song: "Bohemian Rhapsody", VoteCount: 12, PassionateCount: 4},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artists/Queen/songs", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ts.rankings.lastArtist != "Queen" {
		t.Fatalf("expected artist from path, got %q", ts.rankings.lastArtist)
	}
}

func TestArtistLeaders(t *testing.T) {
	ts := newTestServer()
	ts.rankings.leaders = []store.ArtistLeader{
		{Artist: "Prince", TopSong: "Purple Rain"},
		{Artist: "Queen", TopSong: "Bohemian Rhapsody"},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/artists/leaders", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Artists []store.ArtistLeader `json:"artists"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Artists) != 2 {
		t.Fatalf("expected 2 leaders, got %d", len(resp.Artists))
	}
}

func TestToggleFilterModeSetsCookie(t *testing.T) {
	ts := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/filter-mode/toggle", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != filterCookie || cookies[0].Value != "1" {
		t.Fatalf("expected filter cookie to be set, got %+v", cookies)
	}
}

func TestToggleFilterModeClearsCookie(t *testing.T) {
	ts := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/filter-mode/toggle", nil)
	req.AddCookie(&http.Cookie{Name: filterCookie, Value: "1"})
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != filterCookie || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected filter cookie to be cleared, got %+v", cookies)
	}
}
