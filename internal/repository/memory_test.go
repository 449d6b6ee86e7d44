package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/agrirelief/internal/model"
)

func sampleReport() *model.DamageReport {
	return &model.DamageReport{
		FarmerName:        "Kamal Gunaratne",
		ContactNumber:     "+94771234567",
		Province:          "North Central",
		District:          "Polonnaruwa",
		DSDivision:        "Medirigiriya",
		GNDivision:        "Track 7",
		Coordinates:       &model.Coordinates{Lat: 8.15, Lng: 80.95},
		CultivationNature: "Paddy",
		DamageType:        "Flood",
		LandSize:          2.5,
		Severity:          "Total Destruction",
		NeedsList:         []string{"Seeds", "Fertilizer"},
	}
}

func TestMemoryReportRepo_CreateAssignsIdentity(t *testing.T) {
	repo := NewMemoryReportRepo()
	ctx := context.Background()

	rep := sampleReport()
	rep.FarmerID = "someone-else"
	id, err := repo.Create(ctx, rep, "farmer-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" || rep.ReportID != id {
		t.Fatalf("expected generated id to be written back, got %q / %q", id, rep.ReportID)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FarmerID != "farmer-1" {
		t.Errorf("farmer_id = %q, want owner uid", got.FarmerID)
	}
	if got.Status != model.StatusPending || got.IsVerified {
		t.Errorf("new report should be Pending/unverified, got %s/%v", got.Status, got.IsVerified)
	}
	if got.LandUnit != model.DefaultLandUnit {
		t.Errorf("land_unit = %q, want default", got.LandUnit)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not assigned")
	}
}

func TestMemoryReportRepo_CreateRejectsInvalid(t *testing.T) {
	repo := NewMemoryReportRepo()
	rep := sampleReport()
	rep.District = "Kandy"
	rep.LandSize = 0

	_, err := repo.Create(context.Background(), rep, "farmer-1")
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Has("district") || !verr.Has("land_size") {
		t.Errorf("expected district and land_size errors, got %v", verr)
	}
	all, _ := repo.ListAll(context.Background())
	if len(all) != 0 {
		t.Errorf("invalid report was stored")
	}
}

func TestMemoryReportRepo_Ordering(t *testing.T) {
	repo := NewMemoryReportRepo()
	ctx := context.Background()
	base := time.Date(2025, 11, 28, 6, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(time.Minute), base.Add(time.Minute), base.Add(-time.Hour)}
	i := 0
	repo.SetClock(func() time.Time { ts := clock[i]; i++; return ts })

	owners := []string{"a", "b", "a", "b"}
	ids := make([]string, len(owners))
	for n, owner := range owners {
		id, err := repo.Create(ctx, sampleReport(), owner)
		if err != nil {
			t.Fatalf("create %d: %v", n, err)
		}
		ids[n] = id
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("len = %d", len(all))
	}
	for n := 1; n < len(all); n++ {
		prev, cur := all[n-1], all[n]
		if prev.CreatedAt.Before(cur.CreatedAt) {
			t.Fatalf("not newest first at %d", n)
		}
		if prev.CreatedAt.Equal(cur.CreatedAt) && prev.ReportID < cur.ReportID {
			t.Fatalf("tie not broken by report_id desc at %d", n)
		}
	}
	// The backwards clock step is clamped, so the first report stays oldest.
	if all[len(all)-1].ReportID != ids[0] {
		t.Errorf("oldest report should be the first one created")
	}

	mine, err := repo.ListByOwner(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ReportID != ids[2] || mine[1].ReportID != ids[0] {
		t.Errorf("unexpected owner listing: %+v", mine)
	}
	none, _ := repo.ListByOwner(ctx, "nobody")
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestMemoryReportRepo_UpdateStatus(t *testing.T) {
	repo := NewMemoryReportRepo()
	ctx := context.Background()
	id, _ := repo.Create(ctx, sampleReport(), "farmer-1")

	if applied, err := repo.UpdateStatus(ctx, id, model.StatusVerified); err != nil || !applied {
		t.Fatalf("verify: applied=%v err=%v", applied, err)
	}
	got, _ := repo.GetByID(ctx, id)
	if got.Status != model.StatusVerified || !got.IsVerified {
		t.Fatalf("status not synced: %s/%v", got.Status, got.IsVerified)
	}
	if applied, err := repo.UpdateStatus(ctx, id, model.StatusVerified); err != nil || applied {
		t.Errorf("repeat verify: applied=%v err=%v, want false <nil>", applied, err)
	}
	if _, err := repo.UpdateStatus(ctx, id, model.StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("un-verify: want ErrInvalidTransition, got %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, "missing", model.StatusVerified); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: want ErrNotFound, got %v", err)
	}
}

func TestMemoryReportRepo_Delete(t *testing.T) {
	repo := NewMemoryReportRepo()
	ctx := context.Background()
	pending, _ := repo.Create(ctx, sampleReport(), "farmer-1")
	verified, _ := repo.Create(ctx, sampleReport(), "farmer-1")
	_, _ = repo.UpdateStatus(ctx, verified, model.StatusVerified)

	if err := repo.Delete(ctx, pending); err != nil {
		t.Fatalf("delete pending: %v", err)
	}
	if _, err := repo.GetByID(ctx, pending); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted report still readable: %v", err)
	}
	if err := repo.Delete(ctx, pending); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: want ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, verified); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("delete verified: want ErrInvalidTransition, got %v", err)
	}
}

func TestMemoryReportRepo_ReturnsCopies(t *testing.T) {
	repo := NewMemoryReportRepo()
	ctx := context.Background()
	id, _ := repo.Create(ctx, sampleReport(), "farmer-1")

	got, _ := repo.GetByID(ctx, id)
	got.NeedsList[0] = "Labor"
	got.Coordinates.Lat = 0

	again, _ := repo.GetByID(ctx, id)
	if again.NeedsList[0] != "Seeds" || again.Coordinates.Lat != 8.15 {
		t.Errorf("stored report mutated through returned copy: %+v", again)
	}
}

func TestMemoryReportRepo_CanceledContext(t *testing.T) {
	repo := NewMemoryReportRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListAll(ctx)
	if !errors.Is(err, ErrStoreUnavailable) || !IsRetryable(err) {
		t.Errorf("want retryable ErrStoreUnavailable, got %v", err)
	}
}

func TestMemoryUserRepo_CreateOnce(t *testing.T) {
	repo := NewMemoryUserRepo()
	ctx := context.Background()
	p := &model.UserProfile{UID: "u1", Role: model.RoleFarmer, Name: "Kamal", NIC: "198512345678"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
	dup := &model.UserProfile{UID: "u1", Role: model.RoleOfficial, Name: "Other"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("want ErrConflict, got %v", err)
	}
	got, _ := repo.GetByUID(ctx, "u1")
	if got.Role != model.RoleFarmer {
		t.Errorf("profile changed after duplicate signup: %+v", got)
	}
	if _, err := repo.GetByUID(ctx, "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryContactRepo(t *testing.T) {
	repo := NewMemoryContactRepo()
	ctx := context.Background()
	_ = repo.Upsert(ctx, &model.DepartmentContact{DivisionID: "medirigiriya", OfficerName: "Officer Perera"})
	_ = repo.Upsert(ctx, &model.DepartmentContact{DivisionID: "hingurakgoda", OfficerName: "Officer Silva"})

	c, err := repo.GetByDivision(ctx, "medirigiriya")
	if err != nil || c.OfficerName != "Officer Perera" {
		t.Fatalf("get: %+v %v", c, err)
	}
	list, _ := repo.List(ctx)
	if len(list) != 2 || list[0].DivisionID != "hingurakgoda" {
		t.Errorf("unexpected order: %+v", list)
	}
}
