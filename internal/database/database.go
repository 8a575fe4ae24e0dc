package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code raised when a unique index rejects a write
const uniqueViolation = "23505"

// Table Structure:
//
// employers.company_id is filled lazily the first time the company profile is read.
// applications keeps one row per (job_id, candidate_email); the unique index is the
// real guarantee, the lookup done before insert only gives a faster answer.
const schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS companies (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name        VARCHAR(255) NOT NULL,
	slug        VARCHAR(255) NOT NULL,
	website     VARCHAR(512) NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	location    VARCHAR(255) NOT NULL DEFAULT '',
	size        VARCHAR(64) NOT NULL DEFAULT '',
	logo_url    VARCHAR(512) NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS companies_name_idx ON companies (name);

CREATE TABLE IF NOT EXISTS employers (
	id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email             VARCHAR(255) NOT NULL,
	name              VARCHAR(255) NOT NULL DEFAULT '',
	company_name      VARCHAR(255) NOT NULL DEFAULT '',
	position          VARCHAR(255) NOT NULL DEFAULT '',
	password_hash     VARCHAR(255) NOT NULL DEFAULT '',
	secret_code       VARCHAR(6) DEFAULT NULL,
	otp_expires_at    TIMESTAMP DEFAULT NULL,
	is_email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	is_approved       BOOLEAN NOT NULL DEFAULT FALSE,
	company_id        UUID DEFAULT NULL REFERENCES companies (id),
	created_at        TIMESTAMP NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS employers_email_idx ON employers (email);

CREATE TABLE IF NOT EXISTS jobs (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	employer_id UUID NOT NULL REFERENCES employers (id),
	title       VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	last_date   DATE NOT NULL,
	status      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS jobs_employer_id_idx ON jobs (employer_id);

CREATE TABLE IF NOT EXISTS applications (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	job_id          UUID NOT NULL REFERENCES jobs (id) ON DELETE CASCADE,
	candidate_name  VARCHAR(255) NOT NULL,
	candidate_email VARCHAR(255) NOT NULL,
	resume_url      VARCHAR(1024) NOT NULL,
	status          VARCHAR(20) NOT NULL DEFAULT 'PENDING',
	applied_at      TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS applications_job_id_candidate_email_idx ON applications (job_id, candidate_email);

CREATE TABLE IF NOT EXISTS meta (
	key   VARCHAR(255) PRIMARY KEY,
	value TEXT NOT NULL
);
`

// GetDbConn tries to establish a connection to postgres and return the connection handler
func GetDbConn(databaseUser string, databasePassword string, databaseHost string, databasePort string, databaseName string, sslMode string) (*sql.DB, error) {
	databaseURL := fmt.Sprintf("postgres://%v:%v@%v:%v/%v?sslmode=%s",
		databaseUser,
		databasePassword,
		databaseHost,
		databasePort,
		databaseName,
		sslMode,
	)
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}

// Migrate creates the tables and indexes the service needs if they are missing
func Migrate(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, schema)
	return err
}

// IsUniqueViolation reports whether err was raised by a unique index
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
