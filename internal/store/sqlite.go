package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/behonest/leadscore-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             INTEGER PRIMARY KEY,
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
	investment     REAL NOT NULL DEFAULT 0,
	location_idx   REAL NOT NULL DEFAULT 0,
	investment_idx REAL NOT NULL DEFAULT 0,
	time_idx       REAL NOT NULL DEFAULT 0,
	score          REAL NOT NULL DEFAULT 0,
	tier           TEXT NOT NULL DEFAULT '',
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	leads_total INTEGER NOT NULL DEFAULT 0,
	leads_kept  INTEGER NOT NULL DEFAULT 0,
	message     TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_leads_tier ON leads(tier);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(score);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const leadColumns = `id, created_at, title, name, email, phone, origin, city, state,
	tags, situation, loss_reason, investment,
	location_idx, investment_idx, time_idx, score, tier`

// UpsertLeads inserts or replaces leads in fixed-size batches inside a
// single transaction. Returns the number of leads written.
func (s *SQLiteStore) UpsertLeads(ctx context.Context, leads []model.EnrichedLead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	written := 0
	for _, batch := range batches(leads) {
		var sb strings.Builder
		sb.WriteString(`INSERT INTO leads (` + leadColumns + `) VALUES `)
		args := make([]any, 0, len(batch)*18)
		for i, lead := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				lead.ID, lead.CreatedAt, lead.Title, lead.Name, lead.Email, lead.Phone,
				lead.Origin, lead.City, lead.State, lead.Tags, lead.Situation, lead.LossReason,
				lead.AvailableInvestment, lead.LocationIndex, lead.InvestmentIndex,
				lead.TimeIndex, lead.Score, string(lead.Classification),
			)
		}
		sb.WriteString(` ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at, title = excluded.title,
			name = excluded.name, email = excluded.email, phone = excluded.phone,
			origin = excluded.origin, city = excluded.city, state = excluded.state,
			tags = excluded.tags, situation = excluded.situation,
			loss_reason = excluded.loss_reason, investment = excluded.investment,
			location_idx = excluded.location_idx, investment_idx = excluded.investment_idx,
			time_idx = excluded.time_idx, score = excluded.score, tier = excluded.tier,
			updated_at = datetime('now')`)

		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			return 0, eris.Wrap(err, "sqlite: upsert leads")
		}
		written += len(batch)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return written, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.EnrichedLead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any

	if filter.Tier != "" {
		query += ` AND tier = ?`
		args = append(args, string(filter.Tier))
	}
	query += ` ORDER BY score DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
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
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		l.Classification = model.Tier(tier)
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) CountByTier(ctx context.Context) (map[model.Tier]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tier, COUNT(*) FROM leads GROUP BY tier`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by tier")
	}
	defer rows.Close()

	counts := make(map[model.Tier]int)
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tier count")
		}
		counts[model.Tier(tier)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by tier iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, leadsTotal, leadsKept int, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, leads_total = ?, leads_kept = ?, message = ?, finished_at = ? WHERE id = ?`,
		string(status), leadsTotal, leadsKept, message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) LastRun(ctx context.Context) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, leads_total, leads_kept, message, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT 1`,
	)

	var r model.Run
	var finishedAt sql.NullTime
	err := row.Scan(&r.ID, &r.Status, &r.LeadsTotal, &r.LeadsKept, &r.Message, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last run")
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Time
	}
	return &r, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
