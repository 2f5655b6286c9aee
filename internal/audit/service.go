package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists audit entries. Append-only: there is no update or delete.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByActor(ctx context.Context, actorID string) ([]Entry, error)
}

// Service captures structured audit entries. It fills in identity and time so
// callers only state who did what.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return s.store.Append(ctx, entry)
}

// List returns the entries recorded for one acting admin, newest first.
func (s *Service) List(ctx context.Context, actorID string) ([]Entry, error) {
	return s.store.ListByActor(ctx, actorID)
}
