package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"songark/internal/logging"
	"songark/internal/store"
)

const (
	statusSuccess       = "success"
	statusConfirmNeeded = "confirm_needed"
	statusError         = "error"
)

// statusResponse is the result envelope of the vote workflow; the client
// retries with force_update=true after a confirm_needed answer.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type voteRequest struct {
	Artist       string `json:"artist"`
	Song         string `json:"song"`
	Comment      string `json:"comment"`
	IsPassionate bool   `json:"is_passionate"`
	ForceUpdate  bool   `json:"force_update"`
}

type passionateRequest struct {
	Value bool `json:"value"`
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: statusError, Message: "invalid JSON payload"})
		return
	}

	in := store.VoteInput{
		Artist:       req.Artist,
		Song:         req.Song,
		Comment:      req.Comment,
		IsPassionate: req.IsPassionate,
	}

	if _, err := s.votes.Submit(r.Context(), token, in, req.ForceUpdate); err != nil {
		writeVoteError(w, err, "submit vote")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: statusSuccess})
}

func (s *Server) handleDeleteVote(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))
	artist := r.PathValue("artist")

	if err := s.votes.Delete(r.Context(), token, artist); err != nil {
		if errors.Is(err, store.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, statusResponse{Status: statusError, Message: store.ErrUnauthorized.Error()})
			return
		}
		// Delete is fire-and-forget for the caller; the cause is for operators.
		logging.Error(err, "delete vote")
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetPassionate(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))

	voteID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: statusError, Message: "invalid vote id"})
		return
	}

	var req passionateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: statusError, Message: "invalid JSON payload"})
		return
	}

	if err := s.votes.SetPassionate(r.Context(), token, voteID, req.Value); err != nil {
		writeVoteError(w, err, "set passionate flag")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: statusSuccess})
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	token := parseBearerToken(r.Header.Get("Authorization"))

	votes, err := s.votes.ListMine(r.Context(), token)
	if err != nil {
		writeVoteError(w, err, "list votes")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Votes []store.Vote `json:"votes"`
	}{Votes: votes})
}

// writeVoteError maps workflow outcomes onto the status envelope. Unknown
// failures are logged with full detail and surfaced as a generic message.
func writeVoteError(w http.ResponseWriter, err error, op string) {
	var (
		confirmErr *store.ConfirmRequiredError
		limitErr   *store.PassionateLimitError
	)
	switch {
	case errors.Is(err, store.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, statusResponse{Status: statusError, Message: store.ErrUnauthorized.Error()})
	case errors.As(err, &confirmErr):
		writeJSON(w, http.StatusConflict, statusResponse{Status: statusConfirmNeeded, Message: confirmErr.Error()})
	case errors.As(err, &limitErr):
		writeJSON(w, http.StatusUnprocessableEntity, statusResponse{Status: statusError, Message: limitErr.Error()})
	case errors.Is(err, store.ErrInvalidVote):
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: statusError, Message: err.Error()})
	case errors.Is(err, store.ErrVoteNotFound):
		writeJSON(w, http.StatusNotFound, statusResponse{Status: statusError, Message: store.ErrVoteNotFound.Error()})
	default:
		logging.Error(err, op)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: statusError, Message: "something went wrong"})
	}
}
