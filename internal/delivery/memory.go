package delivery

import (
	"context"
	"sync"

	"voxcmd/pkg/model"
)

// MemoryStore is a slice-backed FIFO
type MemoryStore struct {
	mu    sync.Mutex
	items []model.PendingCommand
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Push(_ context.Context, p model.PendingCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, p)
	return nil
}

func (s *MemoryStore) Pop(_ context.Context) (*model.PendingCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil, nil
	}
	head := s.items[0]
	s.items[0] = model.PendingCommand{}
	s.items = s.items[1:]
	return &head, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *MemoryStore) DropOldest(ctx context.Context) error {
	_, err := s.Pop(ctx)
	return err
}
