package repository

// This file provides in-memory implementations of the report, profile and
// contact stores. They follow the same contracts as the MySQL repositories
// (store-assigned ids and timestamps, conditional status updates and
// deletes) and back the STORE_DRIVER=memory mode as well as the tests.

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/agrirelief/internal/model"
)

// MemoryReportRepo is a mutex guarded map of reports.
type MemoryReportRepo struct {
	mu      sync.RWMutex
	reports map[string]model.DamageReport
	now     func() time.Time
	last    time.Time
}

// NewMemoryReportRepo returns an empty in-memory report store.
func NewMemoryReportRepo() *MemoryReportRepo {
	return &MemoryReportRepo{reports: map[string]model.DamageReport{}, now: time.Now}
}

// SetClock replaces the time source. Tests use it to force timestamp ties.
func (m *MemoryReportRepo) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Create validates and stores a new Pending report owned by ownerUID.
// Timestamps never go backwards within one store, even if the clock does.
func (m *MemoryReportRepo) Create(ctx context.Context, rep *model.DamageReport, ownerUID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("insert report", err)
	}
	rep.FarmerID = ownerUID
	model.NormalizeReport(rep)
	if err := model.ValidateReport(rep); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.now().UTC()
	if ts.Before(m.last) {
		ts = m.last
	}
	m.last = ts

	rep.ReportID = uuid.NewString()
	rep.CreatedAt = ts
	rep.SetStatus(model.StatusPending)
	m.reports[rep.ReportID] = cloneReport(*rep)
	return rep.ReportID, nil
}

// GetByID returns a copy of the stored report or ErrNotFound.
func (m *MemoryReportRepo) GetByID(ctx context.Context, id string) (*model.DamageReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get report", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rep, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneReport(rep)
	return &out, nil
}

// ListAll returns all reports ordered by created_at desc, report_id desc.
func (m *MemoryReportRepo) ListAll(ctx context.Context) ([]model.DamageReport, error) {
	return m.filter(ctx, func(model.DamageReport) bool { return true })
}

// ListByOwner returns the reports of uid in ListAll order.
func (m *MemoryReportRepo) ListByOwner(ctx context.Context, uid string) ([]model.DamageReport, error) {
	return m.filter(ctx, func(r model.DamageReport) bool { return r.FarmerID == uid })
}

func (m *MemoryReportRepo) filter(ctx context.Context, keep func(model.DamageReport) bool) ([]model.DamageReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list reports", err)
	}
	m.mu.RLock()
	out := make([]model.DamageReport, 0, len(m.reports))
	for _, r := range m.reports {
		if keep(r) {
			out = append(out, cloneReport(r))
		}
	}
	m.mu.RUnlock()
	SortNewestFirst(out)
	return out, nil
}

// UpdateStatus applies the same rules as ReportRepo.UpdateStatus.
func (m *MemoryReportRepo) UpdateStatus(ctx context.Context, id string, status model.Status) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("update status", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reports[id]
	if !ok {
		return false, ErrNotFound
	}
	if rep.Status == status {
		return false, nil
	}
	if rep.Status != model.StatusPending {
		return false, ErrInvalidTransition
	}
	rep.SetStatus(status)
	m.reports[id] = rep
	return true, nil
}

// Delete removes a Pending report.
func (m *MemoryReportRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("delete report", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reports[id]
	if !ok {
		return ErrNotFound
	}
	if rep.Status != model.StatusPending {
		return ErrInvalidTransition
	}
	delete(m.reports, id)
	return nil
}

// SortNewestFirst orders reports by created_at descending with report_id
// descending as tie breaker, matching the SQL ORDER BY of ReportRepo.
func SortNewestFirst(reports []model.DamageReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ReportID > b.ReportID
	})
}

func cloneReport(r model.DamageReport) model.DamageReport {
	if r.Coordinates != nil {
		c := *r.Coordinates
		r.Coordinates = &c
	}
	r.NeedsList = append([]string{}, r.NeedsList...)
	r.Images = append([]string{}, r.Images...)
	return r
}

// MemoryUserRepo stores profiles keyed by uid.
type MemoryUserRepo struct {
	mu       sync.RWMutex
	profiles map[string]model.UserProfile
}

// NewMemoryUserRepo returns an empty profile store.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{profiles: map[string]model.UserProfile{}}
}

// Create inserts a profile, returning ErrConflict if the uid exists.
func (m *MemoryUserRepo) Create(ctx context.Context, p *model.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return unavailable("insert profile", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UID]; ok {
		return ErrConflict
	}
	p.CreatedAt = time.Now().UTC()
	m.profiles[p.UID] = *p
	return nil
}

// Upsert writes a profile unconditionally.
func (m *MemoryUserRepo) Upsert(ctx context.Context, p *model.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return unavailable("upsert profile", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.profiles[p.UID] = *p
	return nil
}

// GetByUID returns a profile or ErrNotFound.
func (m *MemoryUserRepo) GetByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get profile", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// MemoryContactRepo stores department contacts keyed by division id.
type MemoryContactRepo struct {
	mu       sync.RWMutex
	contacts map[string]model.DepartmentContact
}

// NewMemoryContactRepo returns an empty contact store.
func NewMemoryContactRepo() *MemoryContactRepo {
	return &MemoryContactRepo{contacts: map[string]model.DepartmentContact{}}
}

// Upsert inserts or replaces a contact.
func (m *MemoryContactRepo) Upsert(ctx context.Context, c *model.DepartmentContact) error {
	if err := ctx.Err(); err != nil {
		return unavailable("upsert contact", err)
	}
	m.mu.Lock()
	m.contacts[c.DivisionID] = *c
	m.mu.Unlock()
	return nil
}

// GetByDivision returns a contact or ErrNotFound.
func (m *MemoryContactRepo) GetByDivision(ctx context.Context, divisionID string) (*model.DepartmentContact, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get contact", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contacts[divisionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// List returns contacts ordered by division id.
func (m *MemoryContactRepo) List(ctx context.Context) ([]model.DepartmentContact, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list contacts", err)
	}
	m.mu.RLock()
	out := make([]model.DepartmentContact, 0, len(m.contacts))
	for _, c := range m.contacts {
		out = append(out, c)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DivisionID < out[j].DivisionID })
	return out, nil
}
