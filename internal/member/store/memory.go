package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"givebridge/internal/member/models"
	"givebridge/pkg/domain"
	"givebridge/pkg/platform/sentinel"
)

// InMemory is the development and test implementation of Store. It mirrors the
// postgres store's semantics: lower-cased unique emails, copies on read.
type InMemory struct {
	mu      sync.RWMutex
	members map[domain.MemberID]*models.Member
	byEmail map[string]domain.MemberID
}

func NewInMemory() *InMemory {
	return &InMemory{
		members: make(map[domain.MemberID]*models.Member),
		byEmail: make(map[string]domain.MemberID),
	}
}

func (s *InMemory) Create(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := models.NormalizeEmail(member.Email)
	if _, taken := s.byEmail[email]; taken {
		return sentinel.ErrAlreadyUsed
	}

	stored := *member
	stored.Email = email
	s.members[stored.ID] = &stored
	s.byEmail[email] = stored.ID
	return nil
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOf(s.members[id]), nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOf(member), nil
}

func (s *InMemory) SetApproved(ctx context.Context, id domain.MemberID, approved bool) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.members[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	member.Approved = approved
	return copyOf(member), nil
}

func (s *InMemory) ListPendingAdmins(ctx context.Context) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Member
	for _, m := range s.members {
		if m.Role == domain.RoleAdmin && !m.Approved {
			out = append(out, copyOf(m))
		}
	}
	sortByRegistration(out)
	return out, nil
}

func (s *InMemory) ListByRole(ctx context.Context, role domain.Role, nameFilter string) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := strings.ToLower(strings.TrimSpace(nameFilter))
	var out []*models.Member
	for _, m := range s.members {
		if m.Role != role {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(m.FullName), filter) {
			continue
		}
		out = append(out, copyOf(m))
	}
	sortByRegistration(out)
	return out, nil
}

func (s *InMemory) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, m := range s.members {
		if m.Role == role {
			n++
		}
	}
	return n, nil
}

func copyOf(m *models.Member) *models.Member {
	c := *m
	return &c
}

func sortByRegistration(members []*models.Member) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].RegisteredAt.Equal(members[j].RegisteredAt) {
			return members[i].Email < members[j].Email
		}
		return members[i].RegisteredAt.Before(members[j].RegisteredAt)
	})
}
