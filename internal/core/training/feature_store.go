package training

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/charleschow/match-features/internal/core/pipeline"
	"github.com/charleschow/match-features/internal/telemetry"

	_ "modernc.org/sqlite"
)

// ErrNoRun is returned when no stored run matches the request.
var ErrNoRun = errors.New("no feature run stored")

const (
	defaultKeepRuns = 5
	tsLayout        = "2006-01-02T15:04:05.000000000Z07:00" // fixed width so text order is time order
)

// RunInfo describes one persisted pipeline run.
type RunInfo struct {
	ID           string
	League       string
	CreatedAt    time.Time
	Rows         int
	AliasVersion int
}

// FeatureStore persists feature tables in SQLite. Each build is a run; only
// the newest keepRuns runs per league are retained.
type FeatureStore struct {
	db       *sql.DB
	mu       sync.Mutex
	keepRuns int
}

func OpenFeatureStore(path string, keepRuns int) (*FeatureStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA auto_vacuum = INCREMENTAL`,
		`CREATE TABLE IF NOT EXISTS feature_runs (
			run_id        TEXT PRIMARY KEY,
			league        TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			row_count     INTEGER NOT NULL,
			alias_version INTEGER NOT NULL,
			header        TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feature_rows (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT    NOT NULL,
			seq       INTEGER NOT NULL,
			date      TEXT    NOT NULL,
			season    INTEGER,
			home_team TEXT,
			away_team TEXT,
			home_id   TEXT,
			away_id   TEXT,
			ftr       TEXT,
			cells     TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fr_run ON feature_rows(run_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_league ON feature_runs(league, created_at)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema (%s): %w", stmt, err)
		}
	}

	var size int64
	row := db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`)
	if err := row.Scan(&size); err != nil {
		db.Close()
		return nil, fmt.Errorf("read db size: %w", err)
	}

	var runs int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM feature_runs`).Scan(&runs); err != nil {
		db.Close()
		return nil, fmt.Errorf("read run count: %w", err)
	}

	telemetry.Infof("Opened feature store  path=%s  size=%s  runs=%d", path, humanize.Bytes(uint64(size)), runs)

	if keepRuns < 1 {
		keepRuns = defaultKeepRuns
	}
	return &FeatureStore{db: db, keepRuns: keepRuns}, nil
}

// SaveRun writes t as a new run in one transaction and prunes old runs of
// the same league.
func (s *FeatureStore) SaveRun(ctx context.Context, league string, aliasVersion int, t *pipeline.Table) (RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	header, err := json.Marshal(t.Header())
	if err != nil {
		return RunInfo{}, fmt.Errorf("encode header: %w", err)
	}
	info := RunInfo{
		ID:           uuid.NewString(),
		League:       league,
		CreatedAt:    time.Now().UTC(),
		Rows:         len(t.Rows),
		AliasVersion: aliasVersion,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunInfo{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO feature_runs (run_id, league, created_at, row_count, alias_version, header)
		 VALUES (?,?,?,?,?,?)`,
		info.ID, league, info.CreatedAt.Format(tsLayout), info.Rows, aliasVersion, string(header),
	); err != nil {
		return RunInfo{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO feature_rows (run_id, seq, date, season, home_team, away_team, home_id, away_id, ftr, cells)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return RunInfo{}, fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for i, r := range t.Rows {
		cells, err := json.Marshal(r.Record())
		if err != nil {
			return RunInfo{}, fmt.Errorf("encode row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			info.ID, i, r.Date.Format("2006-01-02"), r.Season,
			r.HomeTeam, r.AwayTeam, r.HomeID, r.AwayID, string(r.Result), string(cells),
		); err != nil {
			return RunInfo{}, fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if err := s.prune(ctx, tx, league); err != nil {
		return RunInfo{}, err
	}
	if err := tx.Commit(); err != nil {
		return RunInfo{}, fmt.Errorf("commit: %w", err)
	}
	s.db.ExecContext(ctx, `PRAGMA incremental_vacuum`)
	telemetry.Metrics.RowsWritten.Add(int64(info.Rows))

	telemetry.Infof("feature store: saved run %s  league=%s  rows=%s", info.ID, league, humanize.Comma(int64(info.Rows)))
	return info, nil
}

// prune deletes all but the newest keepRuns runs of league.
func (s *FeatureStore) prune(ctx context.Context, tx *sql.Tx, league string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT run_id FROM feature_runs WHERE league = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT -1 OFFSET ?`, league, s.keepRuns)
	if err != nil {
		return fmt.Errorf("select stale runs: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan stale run: %w", err)
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("select stale runs: %w", err)
	}

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM feature_rows WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("prune rows of %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM feature_runs WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("prune run %s: %w", id, err)
		}
	}
	if len(stale) > 0 {
		telemetry.Infof("feature store: pruned %d old run(s) of %s", len(stale), league)
	}
	return nil
}

// Runs lists stored runs, newest first. An empty league lists all.
func (s *FeatureStore) Runs(ctx context.Context, league string) ([]RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, league, created_at, row_count, alias_version FROM feature_runs
		 WHERE ? = '' OR league = ? ORDER BY created_at DESC, rowid DESC`, league, league)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var ri RunInfo
		var created string
		if err := rows.Scan(&ri.ID, &ri.League, &created, &ri.Rows, &ri.AliasVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ri.CreatedAt, _ = time.Parse(tsLayout, created)
		out = append(out, ri)
	}
	return out, rows.Err()
}

// LatestRun returns the newest run of league.
func (s *FeatureStore) LatestRun(ctx context.Context, league string) (RunInfo, error) {
	runs, err := s.Runs(ctx, league)
	if err != nil {
		return RunInfo{}, err
	}
	if len(runs) == 0 {
		return RunInfo{}, fmt.Errorf("%w for league %q", ErrNoRun, league)
	}
	return runs[0], nil
}

// LoadRun rebuilds the feature table of a stored run.
func (s *FeatureStore) LoadRun(ctx context.Context, runID string) (*pipeline.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var league, headerJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT league, header FROM feature_runs WHERE run_id = ?`, runID).Scan(&league, &headerJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNoRun, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	var header []string
	if err := json.Unmarshal([]byte(headerJSON), &header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM feature_rows WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		var cells string
		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var rec []string
		if err := json.Unmarshal([]byte(cells), &rec); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	t, err := pipeline.FromRecords(header, records)
	if err != nil {
		return nil, err
	}
	t.League = league
	return t, nil
}

func (s *FeatureStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
