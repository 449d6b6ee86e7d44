package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for every table the service owns. Statements are
// idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_profiles (
		uid               VARCHAR(128) NOT NULL PRIMARY KEY,
		role              ENUM('farmer','official','public') NOT NULL,
		name              VARCHAR(255) NOT NULL,
		phone             VARCHAR(32)  NOT NULL DEFAULT '',
		home_district     VARCHAR(64)  NOT NULL DEFAULT '',
		nic               VARCHAR(16)  NOT NULL DEFAULT '',
		division_assigned VARCHAR(128) NOT NULL DEFAULT '',
		email             VARCHAR(255) NOT NULL DEFAULT '',
		created_at        DATETIME     NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS damage_reports (
		report_id          CHAR(36)      NOT NULL PRIMARY KEY,
		farmer_id          VARCHAR(128)  NOT NULL,
		farmer_name        VARCHAR(255)  NOT NULL,
		contact_number     VARCHAR(32)   NOT NULL DEFAULT '',
		province           VARCHAR(64)   NOT NULL,
		district           VARCHAR(64)   NOT NULL,
		ds_division        VARCHAR(128)  NOT NULL,
		gn_division        VARCHAR(128)  NOT NULL,
		lat                DOUBLE        NULL,
		lng                DOUBLE        NULL,
		cultivation_nature VARCHAR(32)   NOT NULL,
		damage_type        VARCHAR(32)   NOT NULL,
		land_size          DOUBLE        NOT NULL,
		land_unit          VARCHAR(16)   NOT NULL DEFAULT 'Acres',
		severity           VARCHAR(32)   NOT NULL,
		needs_list         JSON          NOT NULL,
		urgent             TINYINT(1)    NOT NULL DEFAULT 0,
		images             JSON          NOT NULL,
		status             ENUM('Pending','Verified') NOT NULL DEFAULT 'Pending',
		is_verified        TINYINT(1)    NOT NULL DEFAULT 0,
		created_at         DATETIME(6)   NOT NULL,
		KEY idx_reports_created (created_at, report_id),
		KEY idx_reports_farmer (farmer_id, created_at),
		CONSTRAINT chk_reports_verified CHECK (is_verified = (status = 'Verified'))
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS department_contacts (
		division_id   VARCHAR(128) NOT NULL PRIMARY KEY,
		division_name VARCHAR(255) NOT NULL,
		officer_name  VARCHAR(255) NOT NULL DEFAULT '',
		phone         VARCHAR(32)  NOT NULL DEFAULT '',
		email         VARCHAR(255) NOT NULL DEFAULT '',
		address       VARCHAR(512) NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
