// Package eventlog provides a SQLite-backed audit ledger of provider calls.
// The ledger records what was spent and where, never model output or
// blueprint content.
package eventlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"blueprint/pkg/logx"
)

const schemaVersion = 1

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS schema_info (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS provider_calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt_tokens INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	cost_usd REAL NOT NULL,
	duration_ms INTEGER NOT NULL,
	status TEXT NOT NULL,
	error_type TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_provider_calls_run ON provider_calls(run_id);
`

// Entry is one recorded provider call.
type Entry struct {
	RunID            string
	Stage            string
	Model            string
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
	Duration         time.Duration
	Status           string // "ok" or "error"
	ErrorType        string // classification label, empty on success
	CreatedAt        time.Time
}

// Ledger is the append-mostly call log for generation runs.
type Ledger struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens or creates the ledger at the given path. An empty path keeps
// the ledger in memory, which is how tests use it.
func Open(path string) (*Ledger, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping event log: %w", err)
	}
	if _, err := db.Exec(createSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize event log schema: %w", err)
	}
	if err := ensureVersion(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Ledger{db: db, logger: logx.NewLogger("eventlog")}, nil
}

func ensureVersion(db *sql.DB) error {
	var version int
	err := db.QueryRow("SELECT version FROM schema_info LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		_, err = db.Exec("INSERT INTO schema_info (version) VALUES (?)", schemaVersion)
		if err != nil {
			return fmt.Errorf("failed to set event log schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read event log schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("unsupported event log schema version %d, want %d", version, schemaVersion)
	}
	return nil
}

// Record appends one provider call to the ledger.
func (l *Ledger) Record(entry Entry) error {
	_, err := l.db.Exec(`
		INSERT INTO provider_calls
			(run_id, stage, model, prompt_tokens, completion_tokens, cost_usd, duration_ms, status, error_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Stage, entry.Model,
		entry.PromptTokens, entry.CompletionTokens, entry.CostUSD,
		entry.Duration.Milliseconds(), entry.Status, entry.ErrorType,
	)
	if err != nil {
		return fmt.Errorf("failed to record provider call: %w", err)
	}
	return nil
}

// EntriesForRun returns the recorded calls for one run, oldest first.
func (l *Ledger) EntriesForRun(runID string) ([]Entry, error) {
	rows, err := l.db.Query(`
		SELECT run_id, stage, model, prompt_tokens, completion_tokens, cost_usd, duration_ms, status, error_type, created_at
		FROM provider_calls WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		if err := rows.Scan(&e.RunID, &e.Stage, &e.Model, &e.PromptTokens, &e.CompletionTokens,
			&e.CostUSD, &durationMs, &e.Status, &e.ErrorType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan provider call: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provider calls: %w", err)
	}
	return entries, nil
}

// RunTotals is the aggregate spend of one run.
type RunTotals struct {
	Calls            int
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// TotalsForRun aggregates the recorded spend of one run.
func (l *Ledger) TotalsForRun(runID string) (RunTotals, error) {
	var t RunTotals
	err := l.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0), COALESCE(SUM(cost_usd), 0)
		FROM provider_calls WHERE run_id = ?`, runID).
		Scan(&t.Calls, &t.PromptTokens, &t.CompletionTokens, &t.CostUSD)
	if err != nil {
		return RunTotals{}, fmt.Errorf("failed to aggregate provider calls: %w", err)
	}
	return t, nil
}

// ObserveRequest records a completed provider call. The signature matches
// the metrics recorder interface so the ledger can sit in the same fan-out
// as Prometheus. Write failures are logged, not propagated, because an
// audit miss must not fail the generation call it describes.
func (l *Ledger) ObserveRequest(
	model, runID, stage string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	status := "ok"
	if !success {
		status = "error"
	}
	err := l.Record(Entry{
		RunID:            runID,
		Stage:            stage,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		CostUSD:          cost,
		Duration:         duration,
		Status:           status,
		ErrorType:        errorType,
	})
	if err != nil {
		l.logger.Error("failed to record provider call: %v", err)
	}
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close event log: %w", err)
	}
	return nil
}
