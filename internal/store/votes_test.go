package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestValidateVote(t *testing.T) {
	tests := []struct {
		name    string
		in      VoteInput
		wantErr bool
	}{
		{
			name: "valid vote",
			in:   VoteInput{Artist: "Queen", Song: "Bohemian Rhapsody"},
		},
		{
			name: "trims whitespace",
			in:   VoteInput{Artist: "  Queen ", Song: " Bohemian Rhapsody  "},
		},
		{
			name:    "missing artist",
			in:      VoteInput{Song: "Bohemian Rhapsody"},
			wantErr: true,
		},
		{
			name:    "whitespace-only song",
			in:      VoteInput{Artist: "Queen", Song: "   "},
			wantErr: true,
		},
		{
			name:    "artist too long",
			in:      VoteInput{Artist: strings.Repeat("a", 101), Song: "Song"},
			wantErr: true,
		},
		{
			name: "multibyte artist counted in characters not bytes",
			in:   VoteInput{Artist: strings.Repeat("あ", 100), Song: "上を向いて歩こう"},
		},
		{
			name:    "multibyte artist over the character limit",
			in:      VoteInput{Artist: strings.Repeat("あ", 101), Song: "歌"},
			wantErr: true,
		},
		{
			name:    "comment too long",
			in:      VoteInput{Artist: "Queen", Song: "Song", Comment: strings.Repeat("c", 141)},
			wantErr: true,
		},
		{
			name: "comment at limit",
			in:   VoteInput{Artist: "Queen", Song: "Song", Comment: strings.Repeat("c", 140)},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := validateVote(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error but got nil")
				}
				if !errors.Is(err, ErrInvalidVote) {
					t.Fatalf("expected ErrInvalidVote, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected nil error but got %v", err)
			}
			if got.Artist != strings.TrimSpace(tc.in.Artist) {
				t.Fatalf("expected trimmed artist, got %q", got.Artist)
			}
		})
	}
}

func expectLockUser(mock sqlmock.Sqlmock, userID int64) {
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM users
		WHERE id = $1
		FOR UPDATE
	`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID))
}

func TestSubmitVoteInsertsNewEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, song
		FROM votes
		WHERE user_id = $1 AND artist = $2
	`)).
		WithArgs(int64(42), "Queen").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO votes (user_id, artist, song, comment, is_passionate, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, artist)
		DO UPDATE SET song = EXCLUDED.song, comment = EXCLUDED.comment, is_passionate = EXCLUDED.is_passionate, updated_at = NOW()
		RETURNING id, updated_at
	`)).
		WithArgs(int64(42), "Queen", "Bohemian Rhapsody", nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(int64(7), now))

	mock.ExpectCommit()

	got, err := s.SubmitVote(context.Background(), 42, VoteInput{
		Artist: " Queen ",
		Song:   "Bohemian Rhapsody",
	}, false)
	if err != nil {
		t.Fatalf("SubmitVote error: %v", err)
	}

	if got.ID != 7 {
		t.Fatalf("expected vote ID 7, got %d", got.ID)
	}
	if got.Artist != "Queen" {
		t.Fatalf("expected trimmed artist, got %q", got.Artist)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitVoteConflictRequiresConfirm(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, song
		FROM votes
		WHERE user_id = $1 AND artist = $2
	`)).
		WithArgs(int64(42), "Queen").
		WillReturnRows(sqlmock.NewRows([]string{"id", "song"}).AddRow(int64(7), "Bohemian Rhapsody"))

	mock.ExpectRollback()

	_, err = s.SubmitVote(context.Background(), 42, VoteInput{
		Artist: "Queen",
		Song:   "Don't Stop Me Now",
	}, false)

	var confirmErr *ConfirmRequiredError
	if !errors.As(err, &confirmErr) {
		t.Fatalf("expected ConfirmRequiredError, got %v", err)
	}
	if confirmErr.ExistingSong != "Bohemian Rhapsody" {
		t.Fatalf("expected existing song in error, got %q", confirmErr.ExistingSong)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitVoteSameSongSkipsConfirm(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, song
		FROM votes
		WHERE user_id = $1 AND artist = $2
	`)).
		WithArgs(int64(42), "Queen").
		WillReturnRows(sqlmock.NewRows([]string{"id", "song"}).AddRow(int64(7), "Bohemian Rhapsody"))

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO votes (user_id, artist, song, comment, is_passionate, updated_at)
	`)).
		WithArgs(int64(42), "Queen", "Bohemian Rhapsody", "updated my comment", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(int64(7), now))

	mock.ExpectCommit()

	got, err := s.SubmitVote(context.Background(), 42, VoteInput{
		Artist:  "Queen",
		Song:    "Bohemian Rhapsody",
		Comment: "updated my comment",
	}, false)
	if err != nil {
		t.Fatalf("SubmitVote error: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("expected vote ID 7, got %d", got.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitVoteForceOverwritesConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, song
		FROM votes
		WHERE user_id = $1 AND artist = $2
	`)).
		WithArgs(int64(42), "Queen").
		WillReturnRows(sqlmock.NewRows([]string{"id", "song"}).AddRow(int64(7), "Bohemian Rhapsody"))

	// Ceiling check excludes the row being rewritten.
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM votes
		WHERE user_id = $1 AND is_passionate AND id <> $2
	`)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO votes (user_id, artist, song, comment, is_passionate, updated_at)
	`)).
		WithArgs(int64(42), "Queen", "Don't Stop Me Now", nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(int64(7), now))

	mock.ExpectCommit()

	_, err = s.SubmitVote(context.Background(), 42, VoteInput{
		Artist:       "Queen",
		Song:         "Don't Stop Me Now",
		IsPassionate: true,
	}, true)
	if err != nil {
		t.Fatalf("SubmitVote error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitVotePassionateLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, song
		FROM votes
		WHERE user_id = $1 AND artist = $2
	`)).
		WithArgs(int64(42), "Queen").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM votes
		WHERE user_id = $1 AND is_passionate AND id <> $2
	`)).
		WithArgs(int64(42), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(MaxPassionateLimit))

	mock.ExpectRollback()

	_, err = s.SubmitVote(context.Background(), 42, VoteInput{
		Artist:       "Queen",
		Song:         "Bohemian Rhapsody",
		IsPassionate: true,
	}, false)

	var limitErr *PassionateLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected PassionateLimitError, got %v", err)
	}
	if limitErr.Limit != MaxPassionateLimit {
		t.Fatalf("expected limit %d in error, got %d", MaxPassionateLimit, limitErr.Limit)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitVoteUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id
		FROM users
		WHERE id = $1
		FOR UPDATE
	`)).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err = s.SubmitVote(context.Background(), 42, VoteInput{Artist: "Queen", Song: "Song"}, false)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteVote(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM votes
		WHERE user_id = $1 AND artist = $2
	`)).
		WithArgs(int64(42), "Queen").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.DeleteVote(context.Background(), 42, " Queen "); err != nil {
		t.Fatalf("DeleteVote error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteVoteMissingRowIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM votes
		WHERE user_id = $1 AND artist = $2
	`)).
		WithArgs(int64(42), "Nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteVote(context.Background(), 42, "Nobody"); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteVoteEmptyArtistSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	if err := s.DeleteVote(context.Background(), 42, "   "); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetPassionateExcludesSelfFromCeiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT is_passionate
		FROM votes
		WHERE id = $1 AND user_id = $2
	`)).
		WithArgs(int64(7), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"is_passionate"}).AddRow(true))

	// Nine other passionate votes plus this one: still within the ceiling.
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM votes
		WHERE user_id = $1 AND is_passionate AND id <> $2
	`)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(MaxPassionateLimit - 1))

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE votes
		SET is_passionate = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`)).
		WithArgs(int64(7), int64(42), true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	if err := s.SetPassionate(context.Background(), 42, 7, true); err != nil {
		t.Fatalf("SetPassionate error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetPassionateLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT is_passionate
		FROM votes
		WHERE id = $1 AND user_id = $2
	`)).
		WithArgs(int64(7), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"is_passionate"}).AddRow(false))

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT COUNT(*)
		FROM votes
		WHERE user_id = $1 AND is_passionate AND id <> $2
	`)).
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(MaxPassionateLimit))

	mock.ExpectRollback()

	err = s.SetPassionate(context.Background(), 42, 7, true)

	var limitErr *PassionateLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected PassionateLimitError, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetPassionateOffSkipsCeiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT is_passionate
		FROM votes
		WHERE id = $1 AND user_id = $2
	`)).
		WithArgs(int64(7), int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"is_passionate"}).AddRow(true))

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE votes
		SET is_passionate = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`)).
		WithArgs(int64(7), int64(42), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	if err := s.SetPassionate(context.Background(), 42, 7, false); err != nil {
		t.Fatalf("SetPassionate error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetPassionateWrongOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	expectLockUser(mock, 42)

	// The vote exists but belongs to someone else, so the scoped lookup
	// finds nothing.
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT is_passionate
		FROM votes
		WHERE id = $1 AND user_id = $2
	`)).
		WithArgs(int64(7), int64(42)).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectRollback()

	if err := s.SetPassionate(context.Background(), 42, 7, true); !errors.Is(err, ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVotesByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, user_id, artist, song, comment, is_passionate, updated_at
		FROM votes
		WHERE user_id = $1
		ORDER BY artist ASC
	`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "artist", "song", "comment", "is_passionate", "updated_at"}).
			AddRow(int64(1), int64(42), "Prince", "Purple Rain", nil, true, now).
			AddRow(int64(2), int64(42), "Queen", "Bohemian Rhapsody", "desert island pick", false, now))

	votes, err := s.VotesByUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("VotesByUser error: %v", err)
	}

	if len(votes) != 2 {
		t.Fatalf("expected 2 votes, got %d", len(votes))
	}
	if votes[0].Artist != "Prince" || votes[0].Comment != "" {
		t.Fatalf("unexpected first vote: %+v", votes[0])
	}
	if votes[1].Comment != "desert island pick" {
		t.Fatalf("expected comment on second vote, got %q", votes[1].Comment)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
