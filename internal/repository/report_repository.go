// Package repository contains data access logic separated from HTTP handlers.
// This file defines the MySQL-backed store for damage reports. Reports are
// inserted in the Pending state with a store-assigned id and timestamp,
// move once to Verified, and may be deleted only while still Pending.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/iliyamo/agrirelief/internal/model"
)

const reportColumns = `report_id, farmer_id, farmer_name, contact_number,
	province, district, ds_division, gn_division, lat, lng,
	cultivation_nature, damage_type, land_size, land_unit, severity,
	needs_list, urgent, images, status, is_verified, created_at`

// ReportRepo encapsulates all queries against the damage_reports table.
type ReportRepo struct {
	db *sql.DB
}

// NewReportRepo constructs a ReportRepo with the provided DB handle.
func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Create validates r and inserts it as a new Pending report owned by
// ownerUID. The generated report_id, status and the created_at assigned
// by the database are written back into r.
func (r *ReportRepo) Create(ctx context.Context, rep *model.DamageReport, ownerUID string) (string, error) {
	rep.FarmerID = ownerUID
	model.NormalizeReport(rep)
	if err := model.ValidateReport(rep); err != nil {
		return "", err
	}
	needs, err := json.Marshal(rep.NeedsList)
	if err != nil {
		return "", err
	}
	images, err := json.Marshal(rep.Images)
	if err != nil {
		return "", err
	}
	var lat, lng sql.NullFloat64
	if rep.Coordinates != nil {
		lat = sql.NullFloat64{Float64: rep.Coordinates.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: rep.Coordinates.Lng, Valid: true}
	}
	id := uuid.NewString()

	// created_at comes from the database clock, never from the caller.
	const qInsert = `INSERT INTO damage_reports (
		report_id, farmer_id, farmer_name, contact_number,
		province, district, ds_division, gn_division, lat, lng,
		cultivation_nature, damage_type, land_size, land_unit, severity,
		needs_list, urgent, images, status, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'Pending', 0, UTC_TIMESTAMP(6))`
	if _, err := r.db.ExecContext(ctx, qInsert,
		id, rep.FarmerID, rep.FarmerName, rep.ContactNumber,
		rep.Province, rep.District, rep.DSDivision, rep.GNDivision, lat, lng,
		rep.CultivationNature, rep.DamageType, rep.LandSize, rep.LandUnit, rep.Severity,
		needs, rep.Urgent, images,
	); err != nil {
		return "", storeErr("insert report", err)
	}

	// Read back the timestamp assigned by the server.
	if err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM damage_reports WHERE report_id = ?`, id,
	).Scan(&rep.CreatedAt); err != nil {
		return "", storeErr("read back report", err)
	}
	rep.ReportID = id
	rep.SetStatus(model.StatusPending)
	return id, nil
}

// GetByID fetches a report by id. It returns ErrNotFound if no row exists.
func (r *ReportRepo) GetByID(ctx context.Context, id string) (*model.DamageReport, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM damage_reports WHERE report_id = ?`, id)
	rep, err := scanReport(row)
	if err != nil {
		return nil, storeErr("get report", err)
	}
	return rep, nil
}

// ListAll returns every report, most recent first. Ties on created_at are
// broken by report_id so the order is total.
func (r *ReportRepo) ListAll(ctx context.Context) ([]model.DamageReport, error) {
	const q = `SELECT ` + reportColumns + ` FROM damage_reports
	           ORDER BY created_at DESC, report_id DESC`
	return r.list(ctx, q)
}

// ListByOwner returns the reports submitted by uid in the same order as
// ListAll.
func (r *ReportRepo) ListByOwner(ctx context.Context, uid string) ([]model.DamageReport, error) {
	const q = `SELECT ` + reportColumns + ` FROM damage_reports
	           WHERE farmer_id = ?
	           ORDER BY created_at DESC, report_id DESC`
	return r.list(ctx, q, uid)
}

func (r *ReportRepo) list(ctx context.Context, q string, args ...any) ([]model.DamageReport, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("list reports", err)
	}
	defer rows.Close()

	out := []model.DamageReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, storeErr("scan report", err)
		}
		out = append(out, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list reports", err)
	}
	return out, nil
}

// UpdateStatus moves a Pending report to status, writing status and
// is_verified in a single statement. applied is true only for the call
// that performed the change; when the report already holds the requested
// status the call succeeds with applied false. Moving a Verified report
// anywhere else returns ErrInvalidTransition, and a missing report
// ErrNotFound.
func (r *ReportRepo) UpdateStatus(ctx context.Context, id string, status model.Status) (applied bool, err error) {
	const q = `UPDATE damage_reports
	           SET status = ?, is_verified = ?
	           WHERE report_id = ? AND status = 'Pending'`
	res, err := r.db.ExecContext(ctx, q, status, status == model.StatusVerified, id)
	if err != nil {
		return false, storeErr("update status", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	cur, err := r.currentStatus(ctx, id)
	if err != nil {
		return false, err
	}
	return false, missedUpdate(cur, status)
}

// missedUpdate decides the outcome of a status update that matched no
// Pending row, given the status the report holds now.
func missedUpdate(cur, want model.Status) error {
	if cur == want {
		return nil
	}
	return ErrInvalidTransition
}

// Delete removes a report that is still Pending. A report verified in the
// meantime yields ErrInvalidTransition; one that no longer exists yields
// ErrNotFound.
func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM damage_reports WHERE report_id = ? AND status = 'Pending'`, id)
	if err != nil {
		return storeErr("delete report", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return missedDelete(r.currentStatus(ctx, id))
}

// missedDelete decides the outcome of a delete that matched no Pending
// row from the follow-up status lookup.
func missedDelete(_ model.Status, lookupErr error) error {
	if lookupErr != nil {
		return lookupErr
	}
	return ErrInvalidTransition
}

func (r *ReportRepo) currentStatus(ctx context.Context, id string) (model.Status, error) {
	var s model.Status
	err := r.db.QueryRowContext(ctx, `SELECT status FROM damage_reports WHERE report_id = ?`, id).Scan(&s)
	if err != nil {
		return "", storeErr("read status", err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(s rowScanner) (*model.DamageReport, error) {
	var (
		rep           model.DamageReport
		lat, lng      sql.NullFloat64
		needs, images []byte
	)
	if err := s.Scan(
		&rep.ReportID, &rep.FarmerID, &rep.FarmerName, &rep.ContactNumber,
		&rep.Province, &rep.District, &rep.DSDivision, &rep.GNDivision, &lat, &lng,
		&rep.CultivationNature, &rep.DamageType, &rep.LandSize, &rep.LandUnit, &rep.Severity,
		&needs, &rep.Urgent, &images, &rep.Status, &rep.IsVerified, &rep.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		rep.Coordinates = &model.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if err := decodeList(needs, &rep.NeedsList); err != nil {
		return nil, fmt.Errorf("decode needs_list: %w", err)
	}
	if err := decodeList(images, &rep.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	return &rep, nil
}

func decodeList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// storeErr maps driver errors onto the repository sentinels.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062:
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case 1406:
			return &model.ValidationError{Fields: []model.FieldError{
				{Field: "report", Message: "a value is longer than the store allows"},
			}}
		}
	}
	return unavailable(op, err)
}
