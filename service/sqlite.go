package service

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/thakurdishanttt/Project-DocuLens/model"
	"github.com/thakurdishanttt/Project-DocuLens/service/migrations"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database under dataDir and runs
// pending migrations.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "doculens.db")

	// WAL mode so document processing writes do not block registry reads.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// migrate applies embedded migration files above the current version.
// Files are named NNNN_description.sql and applied in lexical order.
func (s *SQLiteStore) migrate(fsys embed.FS) error {
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

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			return fmt.Errorf("migration %s: bad version prefix: %w", name, err)
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
		slog.Info("applied migration", "file", name)
	}

	return nil
}

// GetUserContracts returns live contracts keyed by document type. Rows are
// scanned in id order and the first document type seen wins, so duplicate
// keys resolve deterministically.
func (s *SQLiteStore) GetUserContracts(ctx context.Context, orgID string) (map[string]json.RawMessage, error) {
	query := "SELECT document_type, fields FROM user_contracts WHERE deleted_at IS NULL"
	args := []any{}
	if orgID != "" {
		query += " AND org_id = ?"
		args = append(args, orgID)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying user contracts: %w", err)
	}
	defer rows.Close()

	contracts := make(map[string]json.RawMessage)
	for rows.Next() {
		var docType, fields string
		if err := rows.Scan(&docType, &fields); err != nil {
			return nil, fmt.Errorf("scanning user contract: %w", err)
		}
		if _, exists := contracts[docType]; exists {
			continue
		}
		contracts[docType] = json.RawMessage(fields)
	}
	return contracts, rows.Err()
}

func (s *SQLiteStore) ListUserContracts(ctx context.Context, orgID string) ([]model.Contract, error) {
	query := `SELECT id, org_id, user_id, name, document_type, system_contract_id, version, created_at, updated_at
		FROM user_contracts WHERE deleted_at IS NULL`
	args := []any{}
	if orgID != "" {
		query += " AND org_id = ?"
		args = append(args, orgID)
	}
	query += " ORDER BY created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing user contracts: %w", err)
	}
	defer rows.Close()

	var out []model.Contract
	for rows.Next() {
		var c model.Contract
		var org, user, tmpl sql.NullString
		var created, updated string
		if err := rows.Scan(&c.ID, &org, &user, &c.Name, &c.DocumentType, &tmpl, &c.Version, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning user contract: %w", err)
		}
		c.OrgID, c.UserID, c.TemplateID = org.String, user.String, tmpl.String
		c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetUserContract(ctx context.Context, id string) (*model.Contract, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, org_id, user_id, name, document_type, system_contract_id,
		fields, version, created_at, updated_at FROM user_contracts WHERE id = ? AND deleted_at IS NULL`, id)

	var c model.Contract
	var org, user, tmpl sql.NullString
	var fields, created, updated string
	err := row.Scan(&c.ID, &org, &user, &c.Name, &c.DocumentType, &tmpl, &fields, &c.Version, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user contract: %w", err)
	}
	c.OrgID, c.UserID, c.TemplateID = org.String, user.String, tmpl.String
	c.Fields = json.RawMessage(fields)
	c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
	return &c, nil
}

func (s *SQLiteStore) InsertUserContract(ctx context.Context, c *model.Contract) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if c.Version == 0 {
		c.Version = 1
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO user_contracts
		(id, org_id, user_id, name, document_type, system_contract_id, fields, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullable(c.OrgID), nullable(c.UserID), c.Name, c.DocumentType, nullable(c.TemplateID),
		string(c.Fields), c.Version, formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting user contract: %w", err)
	}
	return nil
}

// DeleteUserContract soft-deletes a contract by setting deleted_at.
func (s *SQLiteStore) DeleteUserContract(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE user_contracts SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		formatTime(time.Now().UTC()), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("deleting user contract: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]model.ContractTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, document_type, created_at FROM system_contracts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var out []model.ContractTemplate
	for rows.Next() {
		var t model.ContractTemplate
		var created string
		if err := rows.Scan(&t.ID, &t.Name, &t.DocumentType, &created); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		t.CreatedAt = parseTime(created)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*model.ContractTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, document_type, fields, created_at FROM system_contracts WHERE id = ?", id)

	var t model.ContractTemplate
	var fields, created string
	err := row.Scan(&t.ID, &t.Name, &t.DocumentType, &fields, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting template: %w", err)
	}
	t.Fields = json.RawMessage(fields)
	t.CreatedAt = parseTime(created)
	return &t, nil
}

func (s *SQLiteStore) ActiveTemplate(ctx context.Context) (*model.ContractTemplate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT sc.id, sc.name, sc.document_type, sc.fields, sc.created_at
		FROM active_contract ac JOIN system_contracts sc ON sc.id = ac.contract_id WHERE ac.id = 1`)

	var t model.ContractTemplate
	var fields, created string
	err := row.Scan(&t.ID, &t.Name, &t.DocumentType, &fields, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active template: %w", err)
	}
	t.Fields = json.RawMessage(fields)
	t.CreatedAt = parseTime(created)
	return &t, nil
}

func (s *SQLiteStore) SelectActiveTemplate(ctx context.Context, id string) error {
	tmpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return sql.ErrNoRows
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO active_contract (id, contract_id, updated_at)
		VALUES (1, ?, ?) ON CONFLICT(id) DO UPDATE SET contract_id = excluded.contract_id, updated_at = excluded.updated_at`,
		id, formatTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("selecting active template: %w", err)
	}
	return nil
}

// SaveDocument inserts or updates a document record.
func (s *SQLiteStore) SaveDocument(ctx context.Context, d *model.Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	var extracted any
	if d.ExtractedData != nil {
		data, err := json.Marshal(d.ExtractedData)
		if err != nil {
			return fmt.Errorf("encoding extracted data: %w", err)
		}
		extracted = string(data)
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO documents
		(id, file_name, file_type, storage_path, document_type, confidence, extracted_data, status, error, user_id, org_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_type = excluded.document_type,
			confidence = excluded.confidence,
			extracted_data = excluded.extracted_data,
			status = excluded.status,
			error = excluded.error,
			user_id = excluded.user_id,
			org_id = excluded.org_id,
			updated_at = excluded.updated_at`,
		d.ID, d.FileName, d.FileType, d.StoragePath, d.DocumentType, d.Confidence, extracted,
		d.Status, d.Error, nullable(d.UserID), nullable(d.OrgID),
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, file_name, file_type, storage_path, document_type,
		confidence, extracted_data, status, error, user_id, org_id, created_at, updated_at
		FROM documents WHERE id = ?`, id)

	var d model.Document
	var extracted, user, org sql.NullString
	var created, updated string
	err := row.Scan(&d.ID, &d.FileName, &d.FileType, &d.StoragePath, &d.DocumentType,
		&d.Confidence, &extracted, &d.Status, &d.Error, &user, &org, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	if extracted.Valid && extracted.String != "" {
		if err := json.Unmarshal([]byte(extracted.String), &d.ExtractedData); err != nil {
			return nil, fmt.Errorf("decoding extracted data: %w", err)
		}
	}
	d.UserID, d.OrgID = user.String, org.String
	d.CreatedAt, d.UpdatedAt = parseTime(created), parseTime(updated)
	return &d, nil
}

// EnsureUserOrg gets or creates the user (and organization when named).
// An existing user is moved into the named organization if they are not
// already in one that matches.
func (s *SQLiteStore) EnsureUserOrg(ctx context.Context, email, orgName string) (string, string, error) {
	var orgID string
	if orgName != "" {
		row := s.db.QueryRowContext(ctx, "SELECT id FROM organizations WHERE name = ?", orgName)
		err := row.Scan(&orgID)
		if errors.Is(err, sql.ErrNoRows) {
			orgID = uuid.New().String()
			if _, err := s.db.ExecContext(ctx,
				"INSERT INTO organizations (id, name, created_at) VALUES (?, ?, ?)",
				orgID, orgName, formatTime(time.Now().UTC())); err != nil {
				return "", "", fmt.Errorf("creating organization: %w", err)
			}
		} else if err != nil {
			return "", "", fmt.Errorf("looking up organization: %w", err)
		}
	}

	var userID string
	var userOrg sql.NullString
	row := s.db.QueryRowContext(ctx, "SELECT id, org_id FROM users WHERE email = ?", email)
	err := row.Scan(&userID, &userOrg)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		userID = uuid.New().String()
		displayName := email
		if at := strings.Index(email, "@"); at > 0 {
			displayName = email[:at]
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO users (id, email, display_name, org_id, role, created_at) VALUES (?, ?, ?, ?, 'user', ?)",
			userID, email, displayName, nullable(orgID), formatTime(time.Now().UTC())); err != nil {
			return "", "", fmt.Errorf("creating user: %w", err)
		}
	case err != nil:
		return "", "", fmt.Errorf("looking up user: %w", err)
	default:
		if orgID != "" && userOrg.String != orgID {
			if _, err := s.db.ExecContext(ctx, "UPDATE users SET org_id = ? WHERE id = ?", orgID, userID); err != nil {
				return "", "", fmt.Errorf("updating user organization: %w", err)
			}
		} else if orgID == "" {
			orgID = userOrg.String
		}
	}

	return userID, orgID, nil
}

func (s *SQLiteStore) AppendAuditLog(ctx context.Context, e model.AuditEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO audit_logs
		(org_id, user_id, action, entity_id, entity_type, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullable(e.OrgID), nullable(e.UserID), e.Action, e.EntityID, e.EntityType, e.Description,
		formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("appending audit log: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
