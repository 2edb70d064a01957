package httpapi

import (
	"net/http"
	"time"

	"songark/internal/logging"
	"songark/internal/store"
)

// filterCookie marks the "all data" display mode. Absent means the default:
// real user submissions only, seed rows excluded.
const filterCookie = "ark_all_data"

func realOnlyFromRequest(r *http.Request) bool {
	_, err := r.Cookie(filterCookie)
	return err != nil
}

func (s *Server) handleArtistRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.rankings.List(r.Context(), realOnlyFromRequest(r))
	if err != nil {
		logging.Error(err, "list artist rankings")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Artists []store.ArtistRanking `json:"artists"`
	}{Artists: rankings})
}

func (s *Server) handleSongCounts(w http.ResponseWriter, r *http.Request) {
	artist := r.PathValue("artist")

	counts, err := s.rankings.SongsByArtist(r.Context(), artist, realOnlyFromRequest(r))
	if err != nil {
		logging.Error(err, "list song counts")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Songs []store.SongCount `json:"songs"`
	}{Songs: counts})
}

func (s *Server) handleArtistLeaders(w http.ResponseWriter, r *http.Request) {
	leaders, err := s.rankings.Leaders(r.Context())
	if err != nil {
		logging.Error(err, "list artist leaders")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "something went wrong"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Artists []store.ArtistLeader `json:"artists"`
	}{Artists: leaders})
}

// handleToggleFilterMode flips the persisted display preference between
// "real users only" (cookie absent) and "all data" (cookie present).
func (s *Server) handleToggleFilterMode(w http.ResponseWriter, r *http.Request) {
	if realOnlyFromRequest(r) {
		http.SetCookie(w, &http.Cookie{
			Name:     filterCookie,
			Value:    "1",
			Path:     "/",
			Expires:  time.Now().Add(365 * 24 * time.Hour),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     filterCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	w.WriteHeader(http.StatusNoContent)
}
