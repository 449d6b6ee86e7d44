// Package seed holds the fixture data loaded by cmd/seed and by the
// in-memory store at startup: the test farmer and official profiles, the
// department contact directory and an optional sample report.
package seed

import (
	"context"
	"fmt"

	"github.com/iliyamo/agrirelief/internal/model"
)

const (
	FarmerUID   = "test-farmer-id-1"
	OfficialUID = "test-official-id-1"
)

// UserStore is implemented by the MySQL and memory profile repositories.
type UserStore interface {
	Upsert(ctx context.Context, p *model.UserProfile) error
}

// ContactStore is implemented by the MySQL and memory contact repositories.
type ContactStore interface {
	Upsert(ctx context.Context, c *model.DepartmentContact) error
}

// ReportStore is implemented by the MySQL and memory report repositories.
type ReportStore interface {
	Create(ctx context.Context, rep *model.DamageReport, ownerUID string) (string, error)
}

// Users returns the test profiles. Official profiles can only be created
// this way; signup accepts farmer and public roles.
func Users() []model.UserProfile {
	return []model.UserProfile{
		{
			UID:          FarmerUID,
			Role:         model.RoleFarmer,
			Name:         "Kamal Gunaratne",
			Phone:        "+94771234567",
			HomeDistrict: "Polonnaruwa",
			NIC:          "198512345678",
		},
		{
			UID:              OfficialUID,
			Role:             model.RoleOfficial,
			Name:             "Officer Perera",
			HomeDistrict:     "Polonnaruwa",
			DivisionAssigned: "Medirigiriya",
			Email:            "officer@agri.gov.lk",
		},
	}
}

// Contacts returns the department contact directory.
func Contacts() []model.DepartmentContact {
	return []model.DepartmentContact{
		{
			DivisionID:   "head_office",
			DivisionName: "Department of Agriculture",
			OfficerName:  "Director General of Agriculture",
			Phone:        "+94 812 388331",
			Email:        "info@doa.gov.lk",
			Address:      "P.O. Box 01, Peradeniya, Sri Lanka",
		},
		{
			DivisionID:   "polonnaruwa_medirigiriya",
			DivisionName: "Medirigiriya",
			OfficerName:  "Mr. K. Bandara",
			Phone:        "027-2244555",
			Email:        "info_medirigiriya@agri.gov.lk",
			Address:      "No 5, Agri Road, Medirigiriya",
		},
	}
}

// SampleReport returns a Pending flood report owned by the test farmer.
func SampleReport() *model.DamageReport {
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
		LandUnit:          model.DefaultLandUnit,
		Severity:          "Total Destruction",
		NeedsList:         []string{"Seeds", "Fertilizer", "Heavy Machines"},
		Urgent:            true,
	}
}

// Run upserts the profiles and contacts, and creates the sample report
// when reports is non-nil. Upserts make it safe to run repeatedly; the
// sample report is created on every run.
func Run(ctx context.Context, users UserStore, contacts ContactStore, reports ReportStore) error {
	for _, u := range Users() {
		u := u
		if err := users.Upsert(ctx, &u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.UID, err)
		}
	}
	for _, c := range Contacts() {
		c := c
		if err := contacts.Upsert(ctx, &c); err != nil {
			return fmt.Errorf("seed contact %s: %w", c.DivisionID, err)
		}
	}
	if reports != nil {
		if _, err := reports.Create(ctx, SampleReport(), FarmerUID); err != nil {
			return fmt.Errorf("seed sample report: %w", err)
		}
	}
	return nil
}
