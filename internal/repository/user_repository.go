package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/agrirelief/internal/model"
)

// UserRepo reads and creates rows in the 'user_profiles' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a profile. A second insert for the same uid returns
// ErrConflict since profiles are immutable after signup.
func (r *UserRepo) Create(ctx context.Context, p *model.UserProfile) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_profiles (uid, role, name, phone, home_district, nic, division_assigned, email, created_at)
		 VALUES (?,?,?,?,?,?,?,?,UTC_TIMESTAMP())`,
		p.UID, p.Role, p.Name, p.Phone, p.HomeDistrict, p.NIC, p.DivisionAssigned, p.Email)
	if err != nil {
		return storeErr("insert profile", err)
	}
	return r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM user_profiles WHERE uid=?", p.UID).Scan(&p.CreatedAt)
}

// GetByUID fetches a profile by uid, returning ErrNotFound when missing.
func (r *UserRepo) GetByUID(ctx context.Context, uid string) (*model.UserProfile, error) {
	p, err := scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT uid,role,name,phone,home_district,nic,division_assigned,email,created_at FROM user_profiles WHERE uid=? LIMIT 1",
		uid))
	if err != nil {
		return nil, storeErr("get profile", err)
	}
	return p, nil
}

func scanProfile(s rowScanner) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := s.Scan(&p.UID, &p.Role, &p.Name, &p.Phone, &p.HomeDistrict, &p.NIC, &p.DivisionAssigned, &p.Email, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes a profile regardless of whether it exists. It is only
// used by the seeder to provision official accounts.
func (r *UserRepo) Upsert(ctx context.Context, p *model.UserProfile) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_profiles (uid, role, name, phone, home_district, nic, division_assigned, email, created_at)
		 VALUES (?,?,?,?,?,?,?,?,UTC_TIMESTAMP())
		 ON DUPLICATE KEY UPDATE role=VALUES(role), name=VALUES(name), phone=VALUES(phone),
		   home_district=VALUES(home_district), nic=VALUES(nic),
		   division_assigned=VALUES(division_assigned), email=VALUES(email)`,
		p.UID, p.Role, p.Name, p.Phone, p.HomeDistrict, p.NIC, p.DivisionAssigned, p.Email)
	return storeErr("upsert profile", err)
}
