package store

import "context"

// schema holds the DDL for the PostgreSQL backend. Statements are idempotent
// so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS land_claims (
		id            UUID PRIMARY KEY,
		grantor_name  TEXT NOT NULL,
		polygon       JSONB NOT NULL,
		indenture_hash TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		priority_hash TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		min_lat DOUBLE PRECISION NOT NULL,
		min_lng DOUBLE PRECISION NOT NULL,
		max_lat DOUBLE PRECISION NOT NULL,
		max_lng DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_land_claims_bbox ON land_claims(min_lat, max_lat, min_lng, max_lng)`,
	`CREATE INDEX IF NOT EXISTS idx_land_claims_grantor ON land_claims(grantor_name)`,
	`CREATE TABLE IF NOT EXISTS priority_records (
		claim_id      UUID PRIMARY KEY REFERENCES land_claims(id),
		priority_hash TEXT NOT NULL,
		region_bucket TEXT NOT NULL,
		locked_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_priority_records_bucket ON priority_records(region_bucket)`,
	`CREATE TABLE IF NOT EXISTS priority_record_buckets (
		claim_id      UUID NOT NULL REFERENCES priority_records(claim_id),
		region_bucket TEXT NOT NULL,
		PRIMARY KEY (claim_id, region_bucket)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_priority_record_buckets_bucket ON priority_record_buckets(region_bucket)`,
	`CREATE TABLE IF NOT EXISTS claim_transitions (
		id           BIGSERIAL PRIMARY KEY,
		claim_id     UUID NOT NULL REFERENCES land_claims(id),
		from_status  TEXT NOT NULL,
		to_status    TEXT NOT NULL,
		occurred_at  TIMESTAMPTZ NOT NULL,
		triggered_by TEXT NOT NULL DEFAULT '',
		reason       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_claim_transitions_claim ON claim_transitions(claim_id, id)`,
}

// Migrate applies the schema
func (s *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
