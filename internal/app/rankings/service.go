package rankings

import (
	"context"

	"songark/internal/store"
)

// Store defines the read-only aggregate queries the service consumes. The
// aggregation itself is owned by database views.
type Store interface {
	ArtistRankings(ctx context.Context, realOnly bool) ([]store.ArtistRanking, error)
	SongCounts(ctx context.Context, artist string, realOnly bool) ([]store.SongCount, error)
	ArtistLeaders(ctx context.Context) ([]store.ArtistLeader, error)
}

// Service exposes the leaderboard and per-artist tallies.
type Service interface {
	List(ctx context.Context, realOnly bool) ([]store.ArtistRanking, error)
	SongsByArtist(ctx context.Context, artist string, realOnly bool) ([]store.SongCount, error)
	Leaders(ctx context.Context) ([]store.ArtistLeader, error)
}

type service struct {
	store Store
}

// New constructs a rankings Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, realOnly bool) ([]store.ArtistRanking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ArtistRankings(ctx, realOnly)
}

func (s *service) SongsByArtist(ctx context.Context, artist string, realOnly bool) ([]store.SongCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.SongCounts(ctx, artist, realOnly)
}

func (s *service) Leaders(ctx context.Context) ([]store.ArtistLeader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ArtistLeaders(ctx)
}
