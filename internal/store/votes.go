package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPassionateLimit caps how many of a user's votes may carry the
// passionate flag at once.
const MaxPassionateLimit = 10

const (
	maxArtistLen  = 100
	maxSongLen    = 100
	maxCommentLen = 140
)

var (
	// ErrInvalidVote indicates the submitted vote failed validation.
	ErrInvalidVote = errors.New("invalid vote")
	// ErrVoteNotFound indicates no vote matched the given id for this user.
	ErrVoteNotFound = errors.New("vote not found")
)

// ConfirmRequiredError is returned when a submission would overwrite an
// existing entry with a different song and the caller did not force it.
// No mutation has happened when this is returned.
type ConfirmRequiredError struct {
	Artist       string
	ExistingSong string
}

func (e *ConfirmRequiredError) Error() string {
	return fmt.Sprintf("%q is already in your ark with %q; confirm to overwrite", e.Artist, e.ExistingSong)
}

// PassionateLimitError is returned when turning the passionate flag on
// would exceed the per-user ceiling.
type PassionateLimitError struct {
	Limit int
}

func (e *PassionateLimitError) Error() string {
	return fmt.Sprintf("passionate limit of %d reached", e.Limit)
}

// Vote is one user's claimed song for one artist.
type Vote struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Artist       string    `json:"artist"`
	Song         string    `json:"song"`
	Comment      string    `json:"comment,omitempty"`
	IsPassionate bool      `json:"is_passionate"`
	IsSeed       bool      `json:"is_seed,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VoteInput carries the caller-controlled fields of a submission.
type VoteInput struct {
	Artist       string
	Song         string
	Comment      string
	IsPassionate bool
}

func validateVote(in VoteInput) (VoteInput, error) {
	in.Artist = strings.TrimSpace(in.Artist)
	in.Song = strings.TrimSpace(in.Song)
	in.Comment = strings.TrimSpace(in.Comment)

	// Limits count characters, not bytes, matching the char_length checks
	// in the schema. Multibyte input is the normal case here.
	switch {
	case in.Artist == "":
		return in, fmt.Errorf("%w: artist is required", ErrInvalidVote)
	case utf8.RuneCountInString(in.Artist) > maxArtistLen:
		return in, fmt.Errorf("%w: artist exceeds %d characters", ErrInvalidVote, maxArtistLen)
	case in.Song == "":
		return in, fmt.Errorf("%w: song is required", ErrInvalidVote)
	case utf8.RuneCountInString(in.Song) > maxSongLen:
		return in, fmt.Errorf("%w: song exceeds %d characters", ErrInvalidVote, maxSongLen)
	case utf8.RuneCountInString(in.Comment) > maxCommentLen:
		return in, fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidVote, maxCommentLen)
	}
	return in, nil
}

// SubmitVote creates or replaces the caller's entry for an artist. The
// conflict check, the passionate-count check and the write all run inside
// one transaction behind a row lock on the caller's user row, so two
// concurrent submissions from the same user cannot both pass a stale check.
// Other users never contend on that lock.
func (s *Store) SubmitVote(ctx context.Context, userID int64, in VoteInput, force bool) (Vote, error) {
	in, err := validateVote(in)
	if err != nil {
		return Vote{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Vote{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := lockUser(ctx, tx, userID); err != nil {
		return Vote{}, err
	}

	var (
		existingID   int64
		existingSong string
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, song
		FROM votes
		WHERE user_id = $1 AND artist = $2
	`, userID, in.Artist).Scan(&existingID, &existingSong)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Vote{}, fmt.Errorf("lookup existing vote: %w", err)
	}
	hasExisting := err == nil

	// Only the song title participates in conflict detection; resubmitting
	// identical data must stay friction-free.
	if hasExisting && existingSong != in.Song && !force {
		return Vote{}, &ConfirmRequiredError{Artist: in.Artist, ExistingSong: existingSong}
	}

	if in.IsPassionate {
		if err := checkPassionateCeiling(ctx, tx, userID, existingID); err != nil {
			return Vote{}, err
		}
	}

	vote := Vote{
		UserID:       userID,
		Artist:       in.Artist,
		Song:         in.Song,
		Comment:      in.Comment,
		IsPassionate: in.IsPassionate,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO votes (user_id, artist, song, comment, is_passionate, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, artist)
		DO UPDATE SET song = EXCLUDED.song, comment = EXCLUDED.comment, is_passionate = EXCLUDED.is_passionate, updated_at = NOW()
		RETURNING id, updated_at
	`, userID, in.Artist, in.Song, nullIfEmpty(in.Comment), in.IsPassionate).Scan(&vote.ID, &vote.UpdatedAt)
	if err != nil {
		return Vote{}, fmt.Errorf("upsert vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Vote{}, fmt.Errorf("commit vote: %w", err)
	}
	tx = nil

	return vote, nil
}

// DeleteVote removes the caller's entry for an artist. Deleting an entry
// that does not exist is a silent no-op.
func (s *Store) DeleteVote(ctx context.Context, userID int64, artist string) error {
	artist = strings.TrimSpace(artist)
	if artist == "" {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM votes
		WHERE user_id = $1 AND artist = $2
	`, userID, artist); err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	return nil
}

// SetPassionate toggles the passionate flag on a single vote, scoped to
// (id, user_id) so a guessed or replayed id cannot touch another user's
// entry. Turning the flag on re-checks the ceiling, excluding the vote
// itself so an already-passionate entry never self-blocks.
func (s *Store) SetPassionate(ctx context.Context, userID, voteID int64, value bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := lockUser(ctx, tx, userID); err != nil {
		return err
	}

	var current bool
	err = tx.QueryRowContext(ctx, `
		SELECT is_passionate
		FROM votes
		WHERE id = $1 AND user_id = $2
	`, voteID, userID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVoteNotFound
		}
		return fmt.Errorf("lookup vote: %w", err)
	}

	if value {
		if err := checkPassionateCeiling(ctx, tx, userID, voteID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE votes
		SET is_passionate = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, voteID, userID, value); err != nil {
		return fmt.Errorf("update passionate flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit passionate flag: %w", err)
	}
	tx = nil

	return nil
}

// VotesByUser returns the caller's ark ordered by artist.
func (s *Store) VotesByUser(ctx context.Context, userID int64) ([]Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, artist, song, comment, is_passionate, updated_at
		FROM votes
		WHERE user_id = $1
		ORDER BY artist ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select votes: %w", err)
	}
	defer rows.Close()

	var votes []Vote
	for rows.Next() {
		var (
			vote    Vote
			comment sql.NullString
		)
		if err := rows.Scan(&vote.ID, &vote.UserID, &vote.Artist, &vote.Song, &comment, &vote.IsPassionate, &vote.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		vote.Comment = comment.String
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}

	return votes, nil
}

// lockUser serializes write workflows per user for the duration of the tx.
func lockUser(ctx context.Context, tx *sql.Tx, userID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnauthorized
		}
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}

// checkPassionateCeiling counts the user's other passionate votes and fails
// once the ceiling is reached. excludeID is the vote being rewritten, or 0.
func checkPassionateCeiling(ctx context.Context, tx *sql.Tx, userID, excludeID int64) error {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM votes
		WHERE user_id = $1 AND is_passionate AND id <> $2
	`, userID, excludeID).Scan(&count)
	if err != nil {
		return fmt.Errorf("count passionate votes: %w", err)
	}
	if count >= MaxPassionateLimit {
		return &PassionateLimitError{Limit: MaxPassionateLimit}
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
