package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/agrirelief/internal/model"
)

// ContactRepo provides read access to department_contacts. Rows are
// seeded out-of-band by cmd/seed; the API never writes them.
type ContactRepo struct {
	db *sql.DB
}

// NewContactRepo returns a ContactRepo bound to the given database.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

// GetByDivision returns the contact for a division or ErrNotFound.
func (r *ContactRepo) GetByDivision(ctx context.Context, divisionID string) (*model.DepartmentContact, error) {
	const q = `SELECT division_id, division_name, officer_name, phone, email, address
	           FROM department_contacts WHERE division_id = ?`
	c, err := scanContact(r.db.QueryRowContext(ctx, q, divisionID))
	if err != nil {
		return nil, storeErr("get contact", err)
	}
	return c, nil
}

// List returns all contacts ordered by division id.
func (r *ContactRepo) List(ctx context.Context) ([]model.DepartmentContact, error) {
	const q = `SELECT division_id, division_name, officer_name, phone, email, address
	           FROM department_contacts ORDER BY division_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, storeErr("list contacts", err)
	}
	defer rows.Close()
	out := []model.DepartmentContact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, storeErr("scan contact", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list contacts", err)
	}
	return out, nil
}

func scanContact(s rowScanner) (*model.DepartmentContact, error) {
	var c model.DepartmentContact
	if err := s.Scan(&c.DivisionID, &c.DivisionName, &c.OfficerName, &c.Phone, &c.Email, &c.Address); err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert inserts or replaces a contact. Used by the seeder only.
func (r *ContactRepo) Upsert(ctx context.Context, c *model.DepartmentContact) error {
	const q = `INSERT INTO department_contacts (division_id, division_name, officer_name, phone, email, address)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE division_name = VALUES(division_name), officer_name = VALUES(officer_name),
	             phone = VALUES(phone), email = VALUES(email), address = VALUES(address)`
	_, err := r.db.ExecContext(ctx, q, c.DivisionID, c.DivisionName, c.OfficerName, c.Phone, c.Email, c.Address)
	return storeErr("upsert contact", err)
}
