package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/landsafe/landsafe/internal/geometry"
	"github.com/landsafe/landsafe/internal/model"
)

// Postgres is the production ClaimStore. The registry's check-and-lock runs
// as a single transaction holding pg_advisory_xact_lock on each region
// bucket, so correctness holds across multiple concurrent worker processes,
// not just goroutines.
type Postgres struct {
	db *sql.DB
}

// Open connects to PostgreSQL and configures the pool
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	return &Postgres{db: db}, nil
}

func (s *Postgres) Close() error { return s.db.Close() }

func (s *Postgres) GetClaim(ctx context.Context, id uuid.UUID) (model.Claim, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, grantor_name, polygon, indenture_hash, status, priority_hash, created_at
		FROM land_claims WHERE id=$1`, id)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Claim{}, ErrClaimNotFound
	}
	return c, err
}

func (s *Postgres) PutClaim(ctx context.Context, c model.Claim) error {
	poly, err := json.Marshal(c.Polygon)
	if err != nil {
		return fmt.Errorf("marshal polygon: %w", err)
	}
	b := geometry.BoundingBox(c.Polygon)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Row lock so the mutability check and the upsert are one atomic step
	row := tx.QueryRowContext(ctx, `SELECT id, grantor_name, polygon, indenture_hash, status, priority_hash, created_at
		FROM land_claims WHERE id=$1 FOR UPDATE`, c.ID)
	existing, err := scanClaim(row)
	switch {
	case err == nil:
		if err := checkMutable(existing, c); err != nil {
			return err
		}
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO land_claims
		(id, grantor_name, polygon, indenture_hash, status, priority_hash, created_at, min_lat, min_lng, max_lat, max_lng)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			grantor_name=EXCLUDED.grantor_name,
			polygon=EXCLUDED.polygon,
			indenture_hash=EXCLUDED.indenture_hash,
			status=EXCLUDED.status,
			priority_hash=EXCLUDED.priority_hash,
			min_lat=EXCLUDED.min_lat, min_lng=EXCLUDED.min_lng,
			max_lat=EXCLUDED.max_lat, max_lng=EXCLUDED.max_lng`,
		c.ID, c.GrantorName, poly, c.IndentureHash, string(c.Status), c.PriorityHash, c.CreatedAt,
		b.MinLat, b.MinLng, b.MaxLat, b.MaxLng); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Postgres) CandidatesNear(ctx context.Context, b model.Bounds) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, grantor_name, polygon, indenture_hash, status, priority_hash, created_at
		FROM land_claims
		WHERE max_lat >= $1 AND min_lat <= $2 AND max_lng >= $3 AND min_lng <= $4
		ORDER BY created_at`, b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (s *Postgres) GrantorClaims(ctx context.Context, grantorName string) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, grantor_name, polygon, indenture_hash, status, priority_hash, created_at
		FROM land_claims WHERE grantor_name=$1 ORDER BY created_at`, grantorName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (s *Postgres) GetPriorityRecord(ctx context.Context, claimID uuid.UUID) (model.PriorityOfSaleRecord, bool, error) {
	var rec model.PriorityOfSaleRecord
	row := s.db.QueryRowContext(ctx, `SELECT claim_id, priority_hash, region_bucket, locked_at
		FROM priority_records WHERE claim_id=$1`, claimID)
	if err := row.Scan(&rec.ClaimID, &rec.PriorityHash, &rec.RegionBucket, &rec.LockedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PriorityOfSaleRecord{}, false, nil
		}
		return model.PriorityOfSaleRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Postgres) ProtectRegion(ctx context.Context, buckets []string, rec model.PriorityOfSaleRecord, overlaps OverlapFunc) (model.PriorityOfSaleRecord, error) {
	uniq := dedupeSorted(buckets)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("begin protect tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Advisory locks serialize per neighborhood; sorted acquisition order
	// keeps concurrent protects over adjacent neighborhoods deadlock-free
	for _, bucket := range uniq {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, bucket); err != nil {
			return model.PriorityOfSaleRecord{}, fmt.Errorf("lock bucket %s: %w", bucket, err)
		}
	}

	var existing model.PriorityOfSaleRecord
	row := tx.QueryRowContext(ctx, `SELECT claim_id, priority_hash, region_bucket, locked_at
		FROM priority_records WHERE claim_id=$1`, rec.ClaimID)
	switch err := row.Scan(&existing.ClaimID, &existing.PriorityHash, &existing.RegionBucket, &existing.LockedAt); {
	case err == nil:
		return existing, ErrAlreadyProtected
	case !errors.Is(err, sql.ErrNoRows):
		return model.PriorityOfSaleRecord{}, err
	}

	// Records are indexed under every cover bucket of their polygon, so any
	// shared neighborhood cell is enough to surface a protected claim here
	rows, err := tx.QueryContext(ctx, `SELECT c.id, c.grantor_name, c.polygon, c.indenture_hash, c.status, c.priority_hash, c.created_at
		FROM land_claims c
		WHERE c.id IN (
			SELECT DISTINCT claim_id FROM priority_record_buckets WHERE region_bucket = ANY($1)
		) AND c.id <> $2`, pq.Array(uniq), rec.ClaimID)
	if err != nil {
		return model.PriorityOfSaleRecord{}, err
	}
	protected, err := collectClaims(rows)
	rows.Close()
	if err != nil {
		return model.PriorityOfSaleRecord{}, err
	}

	if conflictID, found := overlaps(protected); found {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("%w: claim %s", ErrRegionConflict, conflictID)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO priority_records (claim_id, priority_hash, region_bucket, locked_at)
		VALUES ($1,$2,$3,$4)`, rec.ClaimID, rec.PriorityHash, rec.RegionBucket, rec.LockedAt); err != nil {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("insert priority record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO priority_record_buckets (claim_id, region_bucket)
		SELECT $1, unnest($2::text[])`, rec.ClaimID, pq.Array(uniq)); err != nil {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("index priority record buckets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE land_claims SET priority_hash=$1 WHERE id=$2`, rec.PriorityHash, rec.ClaimID); err != nil {
		return model.PriorityOfSaleRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.PriorityOfSaleRecord{}, fmt.Errorf("commit protect tx: %w", err)
	}
	return rec, nil
}

func (s *Postgres) AppendTransition(ctx context.Context, claimID uuid.UUID, tr model.StatusTransition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO claim_transitions (claim_id, from_status, to_status, occurred_at, triggered_by, reason)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		claimID, string(tr.From), string(tr.To), tr.Timestamp, tr.TriggeredBy, tr.Reason); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE land_claims SET status=$1 WHERE id=$2`, string(tr.To), claimID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrClaimNotFound
	}
	return tx.Commit()
}

func (s *Postgres) PipelineState(ctx context.Context, claimID uuid.UUID) (model.ClaimPipelineState, error) {
	state := model.ClaimPipelineState{ClaimID: claimID}

	var status string
	row := s.db.QueryRowContext(ctx, `SELECT status FROM land_claims WHERE id=$1`, claimID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state, ErrClaimNotFound
		}
		return state, err
	}
	state.Status = model.PipelineStatus(status)

	rows, err := s.db.QueryContext(ctx, `SELECT from_status, to_status, occurred_at, triggered_by, reason
		FROM claim_transitions WHERE claim_id=$1 ORDER BY id`, claimID)
	if err != nil {
		return state, err
	}
	defer rows.Close()
	for rows.Next() {
		var tr model.StatusTransition
		var from, to string
		if err := rows.Scan(&from, &to, &tr.Timestamp, &tr.TriggeredBy, &tr.Reason); err != nil {
			return state, err
		}
		tr.From = model.PipelineStatus(from)
		tr.To = model.PipelineStatus(to)
		state.StatusHistory = append(state.StatusHistory, tr)
	}
	return state, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner) (model.Claim, error) {
	var c model.Claim
	var poly []byte
	var status string
	if err := row.Scan(&c.ID, &c.GrantorName, &poly, &c.IndentureHash, &status, &c.PriorityHash, &c.CreatedAt); err != nil {
		return model.Claim{}, err
	}
	c.Status = model.PipelineStatus(status)
	if err := json.Unmarshal(poly, &c.Polygon); err != nil {
		return model.Claim{}, fmt.Errorf("decode polygon for claim %s: %w", c.ID, err)
	}
	return c, nil
}

func collectClaims(rows *sql.Rows) ([]model.Claim, error) {
	var out []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func dedupeSorted(in []string) []string {
	uniq := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			uniq = append(uniq, s)
		}
	}
	sort.Strings(uniq)
	return uniq
}
