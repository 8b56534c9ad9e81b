package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"page-analyzer/api/internal/analysis"
)

var ErrNotFound = sql.ErrNoRows

// AnalysisRepo caches assembled envelopes keyed by (image_hash, model)
// so a re-submitted photo does not trigger a second round of model
// calls. A nil repo disables caching.
type AnalysisRepo struct{ DB *sql.DB }

func NewAnalysisRepo(db *sql.DB) *AnalysisRepo { return &AnalysisRepo{DB: db} }

const createTable = `
create table if not exists analysis_results (
  id bigserial primary key,
  created_at timestamptz not null default now(),
  image_hash text not null,
  model text not null,
  request_id text not null,
  envelope_json jsonb not null,
  exercise_count int not null,
  excluded_count int not null,
  unique (image_hash, model)
)`

func (r *AnalysisRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, createTable)
	return err
}

// FindByHash returns the freshest cached envelope for the key, or
// ErrNotFound when missing or older than maxAge (maxAge <= 0 ignores age).
func (r *AnalysisRepo) FindByHash(ctx context.Context, imageHash, model string, maxAge time.Duration) (*analysis.AnalysisEnvelope, error) {
	const q = `
select created_at, envelope_json
from analysis_results
where image_hash = $1 and model = $2
order by created_at desc
limit 1`
	var (
		ts time.Time
		js []byte
	)
	if err := r.DB.QueryRowContext(ctx, q, imageHash, model).Scan(&ts, &js); err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return nil, ErrNotFound
	}
	var env analysis.AnalysisEnvelope
	if err := json.Unmarshal(js, &env); err != nil {
		// broken cache row counts as a miss
		return nil, ErrNotFound
	}
	return &env, nil
}

// Upsert stores an envelope, replacing any previous result for the same
// image and model.
func (r *AnalysisRepo) Upsert(ctx context.Context, imageHash, model string, env analysis.AnalysisEnvelope) error {
	js, err := json.Marshal(env)
	if err != nil {
		return err
	}
	const q = `
insert into analysis_results (
  image_hash, model, request_id, envelope_json, exercise_count, excluded_count
) values ($1,$2,$3,$4,$5,$6)
on conflict (image_hash, model) do update
set created_at = now(),
    request_id = excluded.request_id,
    envelope_json = excluded.envelope_json,
    exercise_count = excluded.exercise_count,
    excluded_count = excluded.excluded_count`
	_, err = r.DB.ExecContext(ctx, q,
		imageHash, model, env.Metadata.RequestID, js,
		len(env.Analysis.Exercises), env.Metadata.ExcludedExercises,
	)
	return err
}

// PurgeOlderThan drops stale cache rows.
func (r *AnalysisRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	res, err := r.DB.ExecContext(ctx, `delete from analysis_results where created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
