package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/drivequery/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// DatabaseFileName is the name of the database file inside the data directory.
const DatabaseFileName = "drivequery.db"

// Store is a SQLite database that backs all persistent stores.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.drivequery/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".drivequery", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CredentialsStore returns a CredentialsStore backed by this store.
func (s *Store) CredentialsStore() driven.CredentialsStore {
	return &credentialsStore{store: s}
}

// UploadStore returns an UploadStore backed by this store.
func (s *Store) UploadStore() driven.UploadStore {
	return &uploadStore{store: s}
}

// RunStore returns a RunStore backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending up migrations in version order.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// =============================================================================
// CredentialsStore Implementation
// =============================================================================

type credentialsStore struct {
	store *Store
}

var _ driven.CredentialsStore = (*credentialsStore)(nil)

// Save stores or updates credentials.
func (s *credentialsStore) Save(ctx context.Context, creds domain.Credentials) error {
	if creds.ID == "" {
		return domain.ErrInvalidInput
	}

	oauthJSON, err := json.Marshal(creds.OAuth)
	if err != nil {
		return fmt.Errorf("marshalling oauth credentials: %w", err)
	}

	now := time.Now().UTC()
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = now
	}
	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO credentials (id, account_identifier, oauth, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_identifier = excluded.account_identifier,
			oauth = excluded.oauth,
			updated_at = excluded.updated_at
	`, creds.ID, creds.AccountIdentifier, string(oauthJSON), creds.CreatedAt.UTC(), creds.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Get retrieves credentials by ID.
func (s *credentialsStore) Get(ctx context.Context, id string) (*domain.Credentials, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, account_identifier, oauth, created_at, updated_at
		FROM credentials WHERE id = ?
	`, id)

	var creds domain.Credentials
	var oauthJSON sql.NullString
	if err := row.Scan(&creds.ID, &creds.AccountIdentifier, &oauthJSON,
		&creds.CreatedAt, &creds.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning credentials: %w", err)
	}

	if oauthJSON.Valid && oauthJSON.String != jsonNull {
		var oauth domain.OAuthCredentials
		if err := json.Unmarshal([]byte(oauthJSON.String), &oauth); err != nil {
			return nil, fmt.Errorf("unmarshalling oauth credentials: %w", err)
		}
		creds.OAuth = &oauth
	}

	return &creds, nil
}

// Delete removes credentials by ID.
func (s *credentialsStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

// =============================================================================
// UploadStore Implementation
// =============================================================================

type uploadStore struct {
	store *Store
}

var _ driven.UploadStore = (*uploadStore)(nil)

// Save records an upload, replacing any previous record for the Drive file.
func (s *uploadStore) Save(ctx context.Context, record domain.UploadRecord) error {
	if record.DriveFileID == "" || record.AssistantFileID == "" {
		return domain.ErrInvalidInput
	}
	if record.UploadedAt.IsZero() {
		record.UploadedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO uploads (drive_file_id, assistant_file_id, name, uploaded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(drive_file_id) DO UPDATE SET
			assistant_file_id = excluded.assistant_file_id,
			name = excluded.name,
			uploaded_at = excluded.uploaded_at
	`, record.DriveFileID, record.AssistantFileID, record.Name, record.UploadedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	return nil
}

// Get returns the upload record for a Drive file.
func (s *uploadStore) Get(ctx context.Context, driveFileID string) (*domain.UploadRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT drive_file_id, assistant_file_id, name, uploaded_at
		FROM uploads WHERE drive_file_id = ?
	`, driveFileID)

	var record domain.UploadRecord
	if err := row.Scan(&record.DriveFileID, &record.AssistantFileID, &record.Name, &record.UploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning upload: %w", err)
	}
	return &record, nil
}

// Delete forgets an upload.
func (s *uploadStore) Delete(ctx context.Context, driveFileID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM uploads WHERE drive_file_id = ?", driveFileID)
	if err != nil {
		return fmt.Errorf("deleting upload: %w", err)
	}
	return nil
}

// =============================================================================
// RunStore Implementation
// =============================================================================

type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

const runColumns = `id, folder_id, question, file_count, assistant_id, answer,
	doc_url, status, error, started_at, finished_at`

// Save stores or updates a run.
func (s *runStore) Save(ctx context.Context, run domain.Run) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			folder_id = excluded.folder_id,
			question = excluded.question,
			file_count = excluded.file_count,
			assistant_id = excluded.assistant_id,
			answer = excluded.answer,
			doc_url = excluded.doc_url,
			status = excluded.status,
			error = excluded.error,
			finished_at = excluded.finished_at
	`, run.ID, run.FolderID, run.Question, run.FileCount, run.AssistantID, run.Answer,
		run.DocURL, string(run.Status), run.Error, run.StartedAt.UTC(), nullTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *runStore) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (s *runStore) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var status string
	var finishedAt sql.NullTime

	if err := row.Scan(&run.ID, &run.FolderID, &run.Question, &run.FileCount, &run.AssistantID,
		&run.Answer, &run.DocURL, &status, &run.Error, &run.StartedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}

// =============================================================================
// Helper Functions
// =============================================================================

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
