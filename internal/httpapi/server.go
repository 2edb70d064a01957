package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"songark/internal/store"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Signup(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// VoteService coordinates the submit/delete/toggle workflow.
type VoteService interface {
	Submit(ctx context.Context, token string, in store.VoteInput, force bool) (store.Vote, error)
	Delete(ctx context.Context, token, artist string) error
	SetPassionate(ctx context.Context, token string, voteID int64, value bool) error
	ListMine(ctx context.Context, token string) ([]store.Vote, error)
}

// RankingService exposes the view-backed aggregates.
type RankingService interface {
	List(ctx context.Context, realOnly bool) ([]store.ArtistRanking, error)
	SongsByArtist(ctx context.Context, artist string, realOnly bool) ([]store.SongCount, error)
	Leaders(ctx context.Context) ([]store.ArtistLeader, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users    UserService
	votes    VoteService
	rankings RankingService
}

// New configures a Server with the given services.
func New(users UserService, votes VoteService, rankings RankingService) *Server {
	return &Server{
		users:    users,
		votes:    votes,
		rankings: rankings,
	}
}

// Routes exposes the HTTP handlers for accounts, votes and rankings.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Vote workflow routes
	mux.HandleFunc("GET /api/v1/me/votes", s.handleListVotes)
	mux.HandleFunc("POST /api/v1/me/votes", s.handleSubmitVote)
	mux.HandleFunc("DELETE /api/v1/me/votes/{artist}", s.handleDeleteVote)
	mux.HandleFunc("PUT /api/v1/me/votes/{id}/passionate", s.handleSetPassionate)

	// Aggregate routes
	mux.HandleFunc("GET /api/v1/artists", s.handleArtistRankings)
	mux.HandleFunc("GET /api/v1/artists/leaders", s.handleArtistLeaders)
	mux.HandleFunc("GET /api/v1/artists/{artist}/songs", s.handleSongCounts)

	// Filter preference
	mux.HandleFunc("POST /api/v1/filter-mode/toggle", s.handleToggleFilterMode)

	return mux
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	if err := s.users.Signup(r.Context(), req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, store.ErrUserExists):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "username already taken"})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	token, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, store.ErrInvalidCredentials) {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
