package store

import (
	"context"
	"sort"
	"sync"

	"givebridge/internal/donation/models"
	"givebridge/pkg/domain"
	"givebridge/pkg/platform/sentinel"
)

// InMemory is the development and test implementation of Store. A single lock
// covers every operation, so Settle's find-and-update is trivially atomic.
type InMemory struct {
	mu        sync.RWMutex
	donations []*models.Donation
	byRef     map[string]*models.Donation
}

func NewInMemory() *InMemory {
	return &InMemory{byRef: make(map[string]*models.Donation)}
}

func (s *InMemory) Create(ctx context.Context, donation *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byRef[donation.OrderRef]; taken {
		return sentinel.ErrAlreadyUsed
	}
	stored := *donation
	s.donations = append(s.donations, &stored)
	s.byRef[stored.OrderRef] = &stored
	return nil
}

func (s *InMemory) FindByOrderRef(ctx context.Context, orderRef string) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	donation, ok := s.byRef[orderRef]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyOf(donation), nil
}

func (s *InMemory) Settle(ctx context.Context, orderRef string, isSuccess bool, notes string) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	donation, ok := s.byRef[orderRef]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	donation.ApplySettlement(isSuccess, notes)
	return copyOf(donation), nil
}

func (s *InMemory) ListByMember(ctx context.Context, memberID domain.MemberID) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Donation
	for _, d := range s.donations {
		if d.MemberID == memberID {
			out = append(out, copyOf(d))
		}
	}
	return out, nil
}

func (s *InMemory) ListAll(ctx context.Context) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Donation, 0, len(s.donations))
	for i := len(s.donations) - 1; i >= 0; i-- {
		out = append(out, copyOf(s.donations[i]))
	}
	return out, nil
}

func (s *InMemory) SumByStatus(ctx context.Context, status models.Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, d := range s.donations {
		if d.Status == status {
			total += d.Amount
		}
	}
	return total, nil
}

func (s *InMemory) GroupByDay(ctx context.Context, status models.Status) ([]models.DailyTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buckets := make(map[string]*models.DailyTotal)
	for _, d := range s.donations {
		if d.Status != status {
			continue
		}
		day := d.CreatedAt.UTC().Format("2006-01-02")
		bucket, ok := buckets[day]
		if !ok {
			bucket = &models.DailyTotal{Day: day}
			buckets[day] = bucket
		}
		bucket.Total += d.Amount
		bucket.Count++
	}

	out := make([]models.DailyTotal, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (s *InMemory) GroupByDonor(ctx context.Context, status models.Status) ([]models.DonorTotal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buckets := make(map[domain.MemberID]*models.DonorTotal)
	var order []domain.MemberID
	for _, d := range s.donations {
		if d.Status != status {
			continue
		}
		bucket, ok := buckets[d.MemberID]
		if !ok {
			bucket = &models.DonorTotal{MemberID: d.MemberID}
			buckets[d.MemberID] = bucket
			order = append(order, d.MemberID)
		}
		bucket.Total += d.Amount
		bucket.Count++
	}

	out := make([]models.DonorTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *buckets[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

func copyOf(d *models.Donation) *models.Donation {
	c := *d
	return &c
}
