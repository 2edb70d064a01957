package votes

import (
	"context"

	"songark/internal/store"
)

// Store defines the persistence hooks for the vote workflow.
type Store interface {
	UserIDByToken(ctx context.Context, token string) (int64, error)
	SubmitVote(ctx context.Context, userID int64, in store.VoteInput, force bool) (store.Vote, error)
	DeleteVote(ctx context.Context, userID int64, artist string) error
	SetPassionate(ctx context.Context, userID, voteID int64, value bool) error
	VotesByUser(ctx context.Context, userID int64) ([]store.Vote, error)
}

// Service coordinates the submit/delete/toggle workflow. Identity is
// resolved up front so every store operation runs against an explicit
// caller id rather than an ambient token.
type Service interface {
	Submit(ctx context.Context, token string, in store.VoteInput, force bool) (store.Vote, error)
	Delete(ctx context.Context, token, artist string) error
	SetPassionate(ctx context.Context, token string, voteID int64, value bool) error
	ListMine(ctx context.Context, token string) ([]store.Vote, error)
}

type service struct {
	store Store
}

// New constructs a votes Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Submit(ctx context.Context, token string, in store.VoteInput, force bool) (store.Vote, error) {
	if err := ctx.Err(); err != nil {
		return store.Vote{}, err
	}
	userID, err := s.store.UserIDByToken(ctx, token)
	if err != nil {
		return store.Vote{}, err
	}
	return s.store.SubmitVote(ctx, userID, in, force)
}

func (s *service) Delete(ctx context.Context, token, artist string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userID, err := s.store.UserIDByToken(ctx, token)
	if err != nil {
		return err
	}
	return s.store.DeleteVote(ctx, userID, artist)
}

func (s *service) SetPassionate(ctx context.Context, token string, voteID int64, value bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userID, err := s.store.UserIDByToken(ctx, token)
	if err != nil {
		return err
	}
	return s.store.SetPassionate(ctx, userID, voteID, value)
}

func (s *service) ListMine(ctx context.Context, token string) ([]store.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	userID, err := s.store.UserIDByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.store.VotesByUser(ctx, userID)
}
