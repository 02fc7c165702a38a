package repositories

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"habboverify/internal/models"
)

// MemoryVerificationRepository keeps claims in process memory. Used by tests and the "memory" driver.
type MemoryVerificationRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []models.VerifiedUser
	now    func() time.Time
}

func NewMemoryVerificationRepository() *MemoryVerificationRepository {
	return &MemoryVerificationRepository{now: time.Now}
}

func (r *MemoryVerificationRepository) FindVerifiedByUser(_ context.Context, userID string) (*models.VerifiedUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *models.VerifiedUser
	for i := range r.rows {
		row := r.rows[i]
		if row.UserID != userID || !row.Verified {
			continue
		}
		if found == nil || row.CreatedAt.After(found.CreatedAt) {
			cp := row
			found = &cp
		}
	}
	return found, nil
}

func (r *MemoryVerificationRepository) Create(_ context.Context, rec *models.VerifiedUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	rec.ID = strconv.FormatInt(r.nextID, 10)
	if rec.CreatedAt.IsZero() {
		// keep creation order strict even when the clock does not move between inserts
		rec.CreatedAt = r.now().UTC().Add(time.Duration(r.nextID))
	}
	r.rows = append(r.rows, *rec)
	return nil
}

func (r *MemoryVerificationRepository) MarkVerified(_ context.Context, userID, habbo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, row := range r.rows {
		if row.UserID != userID || row.Habbo != habbo || row.Verified {
			continue
		}
		if idx < 0 || row.CreatedAt.After(r.rows[idx].CreatedAt) {
			idx = i
		}
	}
	if idx < 0 {
		return ErrRecordNotFound
	}
	r.rows[idx].Verified = true
	return nil
}

func (r *MemoryVerificationRepository) FindClaimsByOthers(_ context.Context, habbo, exceptUserID string) ([]models.VerifiedUser, error) {
	return r.filter(func(row models.VerifiedUser) bool {
		return row.Habbo == habbo && row.UserID != exceptUserID
	}), nil
}

func (r *MemoryVerificationRepository) DeleteClaimsByOthers(_ context.Context, habbo, exceptUserID string) (int64, error) {
	return r.delete(func(row models.VerifiedUser) bool {
		return row.Habbo == habbo && row.UserID != exceptUserID
	}), nil
}

func (r *MemoryVerificationRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return r.delete(func(row models.VerifiedUser) bool {
		return row.UserID == userID
	}), nil
}

func (r *MemoryVerificationRepository) List(_ context.Context, verifiedOnly bool) ([]models.VerifiedUser, error) {
	return r.filter(func(row models.VerifiedUser) bool {
		return !verifiedOnly || row.Verified
	}), nil
}

func (r *MemoryVerificationRepository) filter(keep func(models.VerifiedUser) bool) []models.VerifiedUser {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.VerifiedUser
	for _, row := range r.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MemoryVerificationRepository) delete(match func(models.VerifiedUser) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.rows[:0]
	var n int64
	for _, row := range r.rows {
		if match(row) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return n
}
