package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phishscan/internal/classifier"
	"github.com/nao1215/phishscan/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "history.db"

// ResultDB provides SQLite-based storage for check reports and training runs.
//
// Design decision: Reports are stored as a JSON column next to a handful of
// indexed summary columns because:
// 1. The report shape grows with the indicator set; the table does not
// 2. History listings only need the summary columns
// 3. A stored report decodes back into the exact struct the writers render
type ResultDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// now returns the current time. Replaced in tests.
	now func() time.Time
}

// Options configures ResultDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ResultDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ResultDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ResultDB{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *ResultDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *ResultDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *ResultDB) createTables() error {
	schema := `
	-- Check reports store complete check results as JSON
	CREATE TABLE IF NOT EXISTS check_reports (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		checked_at TEXT NOT NULL,
		status TEXT NOT NULL,
		verdict TEXT NOT NULL,
		legit_probability REAL,
		risk INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_url ON check_reports(url);
	CREATE INDEX IF NOT EXISTS idx_reports_checked_at ON check_reports(checked_at);

	-- URL stats keep one row per checked URL
	CREATE TABLE IF NOT EXISTS url_stats (
		url TEXT PRIMARY KEY,
		first_checked TEXT NOT NULL,
		last_checked TEXT NOT NULL,
		check_count INTEGER NOT NULL DEFAULT 1,
		last_verdict TEXT NOT NULL
	);

	-- Training runs record every model produced by phishscan train
	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		trained_at TEXT NOT NULL,
		dataset_path TEXT NOT NULL,
		model_path TEXT,
		checksum TEXT,
		accuracy REAL NOT NULL,
		train_size INTEGER NOT NULL,
		test_size INTEGER NOT NULL,
		params_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_trained_at ON training_runs(trained_at);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCheckReport saves a complete check report and updates the URL stats.
// A report without an ID is assigned a new UUID.
func (rdb *ResultDB) SaveCheckReport(ctx context.Context, report *model.CheckReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CheckedAt.IsZero() {
		report.CheckedAt = rdb.now()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	var legit sql.NullFloat64
	if report.LegitProbability != nil {
		legit = sql.NullFloat64{Float64: *report.LegitProbability, Valid: true}
	}
	checkedAt := formatTimestamp(report.CheckedAt)

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO check_reports (id, url, checked_at, status, verdict, legit_probability, risk, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.URL,
		checkedAt,
		string(report.Status),
		string(report.Verdict),
		legit,
		int(report.Risk),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save check report: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO url_stats (url, first_checked, last_checked, check_count, last_verdict)
	VALUES (?, ?, ?, 1, ?)
	ON CONFLICT(url) DO UPDATE SET
		last_checked = excluded.last_checked,
		check_count = url_stats.check_count + 1,
		last_verdict = excluded.last_verdict
	`,
		report.URL,
		checkedAt,
		checkedAt,
		string(report.Verdict),
	)
	if err != nil {
		return fmt.Errorf("failed to update url stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit check report: %w", err)
	}
	return nil
}

// ReportByID retrieves a check report by its ID. It returns nil when no
// report has that ID.
func (rdb *ResultDB) ReportByID(ctx context.Context, id string) (*model.CheckReport, error) {
	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, `SELECT report_json FROM check_reports WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check report: %w", err)
	}

	var report model.CheckReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ReportsForURL retrieves every check report for url, newest first.
func (rdb *ResultDB) ReportsForURL(ctx context.Context, url string) ([]*model.CheckReport, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT report_json FROM check_reports
	WHERE url = ?
	ORDER BY checked_at DESC, rowid DESC
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get check history: %w", err)
	}
	defer rows.Close()

	var reports []*model.CheckReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.CheckReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ReportSummary contains summary information about a check report.
// This is used for displaying history without loading the full report.
type ReportSummary struct {
	ID               string
	URL              string
	CheckedAt        time.Time
	Status           string
	Verdict          model.Verdict
	LegitProbability *float64
	Risk             model.Severity
}

// RecentReports returns summaries of the latest limit reports, newest first.
// A non-positive limit returns every report.
func (rdb *ResultDB) RecentReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	query := `
	SELECT id, url, checked_at, status, verdict, legit_probability, risk
	FROM check_reports
	ORDER BY checked_at DESC, rowid DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list check reports: %w", err)
	}
	defer rows.Close()

	var results []ReportSummary
	for rows.Next() {
		var (
			s         ReportSummary
			checkedAt string
			verdict   string
			legit     sql.NullFloat64
			risk      int
		)
		if err := rows.Scan(&s.ID, &s.URL, &checkedAt, &s.Status, &verdict, &legit, &risk); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		s.CheckedAt = parseTimestamp(checkedAt)
		s.Verdict = model.Verdict(verdict)
		s.Risk = model.Severity(risk)
		if legit.Valid {
			p := legit.Float64
			s.LegitProbability = &p
		}
		results = append(results, s)
	}

	return results, rows.Err()
}

// URLStat summarizes every check of one URL.
type URLStat struct {
	URL          string
	FirstChecked time.Time
	LastChecked  time.Time
	CheckCount   int
	LastVerdict  model.Verdict
}

// URLStats returns the statistics for url, or nil if it was never checked.
func (rdb *ResultDB) URLStats(ctx context.Context, url string) (*URLStat, error) {
	var (
		stat        URLStat
		first, last string
		lastVerdict string
	)
	err := rdb.db.QueryRowContext(ctx, `
	SELECT url, first_checked, last_checked, check_count, last_verdict
	FROM url_stats WHERE url = ?
	`, url).Scan(&stat.URL, &first, &last, &stat.CheckCount, &lastVerdict)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get url stats: %w", err)
	}

	stat.FirstChecked = parseTimestamp(first)
	stat.LastChecked = parseTimestamp(last)
	stat.LastVerdict = model.Verdict(lastVerdict)
	return &stat, nil
}

// ListCheckedURLs returns every URL with at least one stored report.
func (rdb *ResultDB) ListCheckedURLs(ctx context.Context) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `SELECT url FROM url_stats ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// TrainingRun is a stored record of one training run.
type TrainingRun struct {
	ID          string
	TrainedAt   time.Time
	DatasetPath string
	ModelPath   string
	Checksum    string
	Accuracy    float64
	TrainSize   int
	TestSize    int
	Params      classifier.GradientBoosting
}

// NewTrainingRun builds a TrainingRun from the result of classifier.Train.
func NewTrainingRun(datasetPath string, result *classifier.TrainResult) *TrainingRun {
	run := &TrainingRun{
		DatasetPath: datasetPath,
		ModelPath:   result.ModelPath,
		Accuracy:    result.Metrics.Accuracy,
		TrainSize:   result.TrainSize,
		TestSize:    result.TestSize,
	}
	if result.Artifact != nil {
		run.TrainedAt = result.Artifact.CreatedAt
		run.Checksum = result.Artifact.Checksum
		run.Params = result.Artifact.Params
	}
	return run
}

// SaveTrainingRun inserts a training run record.
func (rdb *ResultDB) SaveTrainingRun(ctx context.Context, run *TrainingRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.TrainedAt.IsZero() {
		run.TrainedAt = rdb.now()
	}

	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to serialize params: %w", err)
	}

	_, err = rdb.db.ExecContext(ctx, `
	INSERT INTO training_runs (id, trained_at, dataset_path, model_path, checksum, accuracy, train_size, test_size, params_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTimestamp(run.TrainedAt),
		run.DatasetPath,
		run.ModelPath,
		run.Checksum,
		run.Accuracy,
		run.TrainSize,
		run.TestSize,
		string(paramsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}

	return nil
}

// TrainingRuns returns every training run, newest first.
func (rdb *ResultDB) TrainingRuns(ctx context.Context) ([]TrainingRun, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT id, trained_at, dataset_path, model_path, checksum, accuracy, train_size, test_size, params_json
	FROM training_runs
	ORDER BY trained_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	var results []TrainingRun
	for rows.Next() {
		var (
			run        TrainingRun
			trainedAt  string
			modelPath  sql.NullString
			checksum   sql.NullString
			paramsJSON string
		)
		err := rows.Scan(
			&run.ID,
			&trainedAt,
			&run.DatasetPath,
			&modelPath,
			&checksum,
			&run.Accuracy,
			&run.TrainSize,
			&run.TestSize,
			&paramsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}

		run.TrainedAt = parseTimestamp(trainedAt)
		run.ModelPath = modelPath.String
		run.Checksum = checksum.String
		if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
			return nil, fmt.Errorf("failed to parse params: %w", err)
		}
		results = append(results, run)
	}

	return results, rows.Err()
}

// storedTimestamp is the layout written to the database. It has a fixed width
// in UTC so that text ordering matches time ordering.
const storedTimestamp = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimestamp)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimestamp,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
