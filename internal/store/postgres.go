package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/behonest/leadscore-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             BIGINT PRIMARY KEY,
	created_at     TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	origin         TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	tags           TEXT NOT NULL DEFAULT '',
	situation      TEXT NOT NULL DEFAULT '',
	loss_reason    TEXT NOT NULL DEFAULT '',
	investment     DOUBLE PRECISION NOT NULL DEFAULT 0,
	location_idx   DOUBLE PRECISION NOT NULL DEFAULT 0,
	investment_idx DOUBLE PRECISION NOT NULL DEFAULT 0,
	time_idx       DOUBLE PRECISION NOT NULL DEFAULT 0,
	score          DOUBLE PRECISION NOT NULL DEFAULT 0,
	tier           TEXT NOT NULL DEFAULT '',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	leads_total INTEGER NOT NULL DEFAULT 0,
	leads_kept  INTEGER NOT NULL DEFAULT 0,
	message     TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_leads_tier ON leads(tier);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// UpsertLeads inserts or replaces leads in fixed-size multi-row statements.
// Returns the number of leads written.
func (s *PostgresStore) UpsertLeads(ctx context.Context, leads []model.EnrichedLead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	written := 0
	for _, batch := range batches(leads) {
		var sb strings.Builder
		sb.WriteString(`INSERT INTO leads (` + leadColumns + `) VALUES `)
		args := make([]any, 0, len(batch)*18)
		for i, lead := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			base := i * 18
			sb.WriteByte('(')
			for j := 1; j <= 18; j++ {
				if j > 1 {
					sb.WriteString(", ")
				}
				fmt.Fprintf(&sb, "$%d", base+j)
			}
			sb.WriteByte(')')
			args = append(args,
				lead.ID, lead.CreatedAt, lead.Title, lead.Name, lead.Email, lead.Phone,
				lead.Origin, lead.City, lead.State, lead.Tags, lead.Situation, lead.LossReason,
				lead.AvailableInvestment, lead.LocationIndex, lead.InvestmentIndex,
				lead.TimeIndex, lead.Score, string(lead.Classification),
			)
		}
		sb.WriteString(` ON CONFLICT (id) DO UPDATE SET
			created_at = EXCLUDED.created_at, title = EXCLUDED.title,
			name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone,
			origin = EXCLUDED.origin, city = EXCLUDED.city, state = EXCLUDED.state,
			tags = EXCLUDED.tags, situation = EXCLUDED.situation,
			loss_reason = EXCLUDED.loss_reason, investment = EXCLUDED.investment,
			location_idx = EXCLUDED.location_idx, investment_idx = EXCLUDED.investment_idx,
			time_idx = EXCLUDED.time_idx, score = EXCLUDED.score, tier = EXCLUDED.tier,
			updated_at = now()`)

		if _, err := s.pool.Exec(ctx, sb.String(), args...); err != nil {
			return written, eris.Wrap(err, "postgres: upsert leads")
		}
		written += len(batch)
	}
	return written, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.EnrichedLead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Tier != "" {
		query += fmt.Sprintf(` AND tier = $%d`, argIdx)
		args = append(args, string(filter.Tier))
		argIdx++
	}
	query += ` ORDER BY score DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.EnrichedLead
	for rows.Next() {
		var l model.EnrichedLead
		var tier string
		if err := rows.Scan(
			&l.ID, &l.CreatedAt, &l.Title, &l.Name, &l.Email, &l.Phone,
			&l.Origin, &l.City, &l.State, &l.Tags, &l.Situation, &l.LossReason,
			&l.AvailableInvestment, &l.LocationIndex, &l.InvestmentIndex,
			&l.TimeIndex, &l.Score, &tier,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		l.Classification = model.Tier(tier)
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) CountByTier(ctx context.Context) (map[model.Tier]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT tier, COUNT(*) FROM leads GROUP BY tier`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by tier")
	}
	defer rows.Close()

	counts := make(map[model.Tier]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tier count")
		}
		counts[model.Tier(tier)] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by tier iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, leadsTotal, leadsKept int, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, leads_total = $2, leads_kept = $3, message = $4, finished_at = $5 WHERE id = $6`,
		string(status), leadsTotal, leadsKept, message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) LastRun(ctx context.Context) (*model.Run, error) {
	var r model.Run
	var finishedAt *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, leads_total, leads_kept, message, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&r.ID, &r.Status, &r.LeadsTotal, &r.LeadsKept, &r.Message, &r.StartedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: last run")
	}
	if finishedAt != nil {
		r.FinishedAt = *finishedAt
	}
	return &r, nil
}
