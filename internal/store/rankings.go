package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ArtistRanking is one row of the weighted artist leaderboard. The scoring
// (passionate votes weigh 1.0, ordinary votes 0.1) lives in the view SQL;
// this code only reads the result.
type ArtistRanking struct {
	Artist      string    `json:"artist"`
	TotalScore  float64   `json:"total_score"`
	VoteCount   int       `json:"vote_count"`
	TopSong     string    `json:"top_song,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// SongCount is the per-song tally within one artist.
type SongCount struct {
	Artist          string `json:"artist"`
	Song            string `json:"song"`
	VoteCount       int    `json:"vote_count"`
	PassionateCount int    `json:"passionate_count"`
}

// ArtistLeader pairs an artist with its current top song, for the
// alphabetical index page.
type ArtistLeader struct {
	Artist  string `json:"artist"`
	TopSong string `json:"top_song,omitempty"`
}

// ArtistRankings returns the full leaderboard. With realOnly set it reads
// the view variant that excludes seed rows.
func (s *Store) ArtistRankings(ctx context.Context, realOnly bool) ([]ArtistRanking, error) {
	view := "artist_rankings"
	if realOnly {
		view = "artist_rankings_real"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT artist, total_score, vote_count, top_song, last_updated
		FROM %s
		ORDER BY total_score DESC, last_updated DESC, artist ASC
	`, view))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", view, err)
	}
	defer rows.Close()

	var rankings []ArtistRanking
	for rows.Next() {
		var (
			r       ArtistRanking
			topSong sql.NullString
		)
		if err := rows.Scan(&r.Artist, &r.TotalScore, &r.VoteCount, &topSong, &r.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		r.TopSong = topSong.String
		rankings = append(rankings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rankings: %w", err)
	}

	return rankings, nil
}

// SongCounts returns the per-song tallies for one artist, most voted first.
func (s *Store) SongCounts(ctx context.Context, artist string, realOnly bool) ([]SongCount, error) {
	view := "song_counts"
	if realOnly {
		view = "song_counts_real"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT artist, song, vote_count, passionate_count
		FROM %s
		WHERE artist = $1
		ORDER BY vote_count DESC, song ASC
	`, view), artist)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", view, err)
	}
	defer rows.Close()

	var counts []SongCount
	for rows.Next() {
		var c SongCount
		if err := rows.Scan(&c.Artist, &c.Song, &c.VoteCount, &c.PassionateCount); err != nil {
			return nil, fmt.Errorf("scan song count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate song counts: %w", err)
	}

	return counts, nil
}

// ArtistLeaders returns every registered artist with its top song, ordered
// by artist name.
func (s *Store) ArtistLeaders(ctx context.Context) ([]ArtistLeader, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT artist, top_song
		FROM artist_leaders
		ORDER BY artist ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select artist leaders: %w", err)
	}
	defer rows.Close()

	var leaders []ArtistLeader
	for rows.Next() {
		var (
			l       ArtistLeader
			topSong sql.NullString
		)
		if err := rows.Scan(&l.Artist, &topSong); err != nil {
			return nil, fmt.Errorf("scan artist leader: %w", err)
		}
		l.TopSong = topSong.String
		leaders = append(leaders, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artist leaders: %w", err)
	}

	return leaders, nil
}
