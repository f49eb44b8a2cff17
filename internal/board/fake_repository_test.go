package board

import (
	"context"
	"sort"
	"sync"

	"github.com/kollektive-hackathon/peril-backend/internal/pkg/model"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"gorm.io/gorm"
)

type fakeRepository struct {
	mu      sync.Mutex
	players []model.User
	moves   []model.MoveHistory
	battles []model.Battle

	failWith error
	// runs at the start of CloseBatch, before the pending check
	beforeClose func()
}

func (r *fakeRepository) SavePlayer(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	for i, p := range r.players {
		if p.Name == user.Name {
			r.players[i] = user
			return nil
		}
	}
	r.players = append(r.players, user)
	return nil
}

func (r *fakeRepository) ReplacePieces(_ context.Context, name string, pieces []model.Piece) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.Name == name {
			r.players[i].Pieces = append([]model.Piece{}, pieces...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepository) FindPlayers(context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	return append([]model.User{}, r.players...), nil
}

func (r *fakeRepository) FindPlayer(_ context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Name == name {
			user := p
			return &user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) RecordMove(_ context.Context, move model.MoveHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.moves = append(r.moves, move)
	return nil
}

func (r *fakeRepository) PendingMoves(context.Context) ([]model.MoveHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []model.MoveHistory
	for _, m := range r.moves {
		if m.BatchId == nil {
			pending = append(pending, m)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].PlayedAt < pending[j].PlayedAt
	})
	return pending, nil
}

func (r *fakeRepository) CloseBatch(_ context.Context, batchId string, moveIds []string, battles []model.Battle) error {
	if r.beforeClose != nil {
		r.beforeClose()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := map[string]bool{}
	for _, id := range moveIds {
		ids[id] = true
	}
	for _, m := range r.moves {
		if ids[m.Id] && m.BatchId != nil {
			return errBatchConflict
		}
	}
	for i := range r.moves {
		if ids[r.moves[i].Id] {
			id := batchId
			r.moves[i].BatchId = &id
		}
	}
	r.battles = append(r.battles, battles...)
	return nil
}

func (r *fakeRepository) FindMoves(_ context.Context, page utils.PageRequest) ([]model.MoveHistory, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return window(r.moves, page), int64(len(r.moves)), nil
}

func (r *fakeRepository) FindBattles(_ context.Context, page utils.PageRequest) ([]model.Battle, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return window(r.battles, page), int64(len(r.battles)), nil
}

func window[T any](items []T, page utils.PageRequest) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	end := page.Offset + page.Size
	if end > len(items) {
		end = len(items)
	}
	return append([]T{}, items[page.Offset:end]...)
}
