/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the commission engine's repository interfaces (SaleRepository,
  ConfigRepository, EmployeeDirectory) plus the client directory using
  SQLite. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

SCORE ATOMICITY:
  Every sale write recomputes the score from the attributes being written,
  inside the same statement that persists them. A sale row can never hold a
  score computed from a different attribute set than the one stored.

CONFIG CONCURRENCY:
  Config upserts run an optimistic version check inside a transaction: the
  write carries the version it was based on, a mismatch is rejected with
  commission.ErrConcurrentModification. Version 0 skips the check (first
  write / forced save).

KEY TABLES:
  employees:          Directory for report labeling
  clients:            Minimal client references for sales
  sales:              Recorded sales with their derived score
  commission_configs: One row per (year, month); categories embedded as JSON

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - commission/aggregate.go: Interface definitions
  - commission/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/hipnotik/commission-engine/commission"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		created_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		company TEXT NOT NULL,
		pack_type TEXT NOT NULL,
		pack_price TEXT,
		fiber_json TEXT,
		lines_json TEXT NOT NULL,
		notes TEXT,
		status TEXT NOT NULL,
		score INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: per-employee, per-month sale fetches for reports
	CREATE INDEX IF NOT EXISTS idx_sales_created_by_at
		ON sales(created_by, created_at);
	CREATE INDEX IF NOT EXISTS idx_sales_created_at
		ON sales(created_at);
	CREATE INDEX IF NOT EXISTS idx_sales_client
		ON sales(client_id);

	CREATE TABLE IF NOT EXISTS commission_configs (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		threshold INTEGER NOT NULL,
		retroactive INTEGER NOT NULL,
		retroactive_from INTEGER NOT NULL,
		categories_json TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (year, month)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e commission.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		string(e.ID), e.Name, e.Email, e.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id commission.EmployeeID) (*commission.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM employees WHERE id = ?`, string(id))
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]commission.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, created_at FROM employees ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []commission.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(r rowScanner) (*commission.Employee, error) {
	var e commission.Employee
	var id, createdAt string
	var email sql.NullString
	if err := r.Scan(&id, &e.Name, &email, &createdAt); err != nil {
		return nil, err
	}
	e.ID = commission.EmployeeID(id)
	e.Email = email.String
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Store) SaveClient(ctx context.Context, c commission.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, phone, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, phone = excluded.phone`,
		string(c.ID), c.Name, c.Phone, string(c.CreatedBy), c.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) GetClient(ctx context.Context, id commission.ClientID) (*commission.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, created_by, created_at FROM clients WHERE id = ?`, string(id))
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]commission.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, created_by, created_at FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []commission.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanClient(r rowScanner) (*commission.Client, error) {
	var c commission.Client
	var id, createdBy, createdAt string
	var phone sql.NullString
	if err := r.Scan(&id, &c.Name, &phone, &createdBy, &createdAt); err != nil {
		return nil, err
	}
	c.ID = commission.ClientID(id)
	c.Phone = phone.String
	c.CreatedBy = commission.EmployeeID(createdBy)
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// =============================================================================
// SALES - Every write recomputes the score
// =============================================================================

// SaveSale inserts or replaces a sale. The score is recomputed from the
// attributes being written; callers never supply it, so a stored score
// always matches the stored attribute set.
func (s *Store) SaveSale(ctx context.Context, sale commission.Sale) (commission.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ClientID == "" || sale.Company == "" || sale.CreatedBy == "" {
		return commission.Sale{}, fmt.Errorf("%w: client, company and created_by are required", commission.ErrMalformedSale)
	}
	if !commission.IsValidPackType(sale.PackType) {
		return commission.Sale{}, fmt.Errorf("%w: unknown pack type %q", commission.ErrMalformedSale, sale.PackType)
	}
	if sale.Status == "" {
		sale.Status = commission.StatusRegistrado
	}
	if !commission.IsValidStatus(sale.Status) {
		return commission.Sale{}, fmt.Errorf("%w: unknown status %q", commission.ErrMalformedSale, sale.Status)
	}

	if sale.ID == "" {
		sale.ID = commission.SaleID(uuid.NewString())
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	sale.UpdatedAt = time.Now().UTC()
	sale.Score = commission.Score(sale)

	fiberJSON, linesJSON, err := encodeSaleParts(sale)
	if err != nil {
		return commission.Sale{}, err
	}

	var price any
	if sale.PackPrice != nil {
		price = sale.PackPrice.String()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sales (id, client_id, company, pack_type, pack_price,
			fiber_json, lines_json, notes, status, score, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			company = excluded.company,
			pack_type = excluded.pack_type,
			pack_price = excluded.pack_price,
			fiber_json = excluded.fiber_json,
			lines_json = excluded.lines_json,
			notes = excluded.notes,
			status = excluded.status,
			score = excluded.score,
			updated_at = excluded.updated_at`,
		string(sale.ID), string(sale.ClientID), sale.Company, string(sale.PackType), price,
		fiberJSON, linesJSON, sale.Notes, string(sale.Status), sale.Score,
		string(sale.CreatedBy), sale.CreatedAt.Format(time.RFC3339Nano),
		sale.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return commission.Sale{}, err
	}
	return sale, nil
}

// UpdateSaleStatus changes only the status, recomputing the score in the
// same write.
func (s *Store) UpdateSaleStatus(ctx context.Context, id commission.SaleID, status commission.SaleStatus) (commission.Sale, error) {
	if !commission.IsValidStatus(status) {
		return commission.Sale{}, fmt.Errorf("%w: unknown status %q", commission.ErrMalformedSale, status)
	}

	sale, err := s.GetSale(ctx, id)
	if err != nil {
		return commission.Sale{}, err
	}
	if sale == nil {
		return commission.Sale{}, commission.ErrSaleNotFound
	}

	sale.Status = status
	return s.SaveSale(ctx, *sale)
}

func (s *Store) GetSale(ctx context.Context, id commission.SaleID) (*commission.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, saleSelect+` WHERE id = ?`, string(id))
	sale, err := scanSale(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) ListSales(ctx context.Context) ([]commission.Sale, error) {
	return s.querySales(ctx, saleSelect+` ORDER BY created_at DESC, id`)
}

// SalesByMonth returns all sales created in the month, grouped by employee.
func (s *Store) SalesByMonth(ctx context.Context, m commission.Month) (map[commission.EmployeeID][]commission.Sale, error) {
	sales, err := s.querySales(ctx,
		saleSelect+` WHERE created_at >= ? AND created_at < ? ORDER BY created_at, id`,
		m.Start().Format(time.RFC3339Nano), m.End().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	out := make(map[commission.EmployeeID][]commission.Sale)
	for _, sale := range sales {
		out[sale.CreatedBy] = append(out[sale.CreatedBy], sale)
	}
	return out, nil
}

// SalesByEmployeeMonth returns one employee's sales for the month.
func (s *Store) SalesByEmployeeMonth(ctx context.Context, id commission.EmployeeID, m commission.Month) ([]commission.Sale, error) {
	return s.querySales(ctx,
		saleSelect+` WHERE created_by = ? AND created_at >= ? AND created_at < ? ORDER BY created_at, id`,
		string(id), m.Start().Format(time.RFC3339Nano), m.End().Format(time.RFC3339Nano))
}

const saleSelect = `SELECT id, client_id, company, pack_type, pack_price,
	fiber_json, lines_json, notes, status, score, created_by, created_at, updated_at FROM sales`

func (s *Store) querySales(ctx context.Context, query string, args ...any) ([]commission.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []commission.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}

func scanSale(r rowScanner) (*commission.Sale, error) {
	var sale commission.Sale
	var id, clientID, packType, status, createdBy, createdAt, updatedAt string
	var price, fiberJSON, linesJSON, notes sql.NullString

	err := r.Scan(&id, &clientID, &sale.Company, &packType, &price,
		&fiberJSON, &linesJSON, &notes, &status, &sale.Score,
		&createdBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	sale.ID = commission.SaleID(id)
	sale.ClientID = commission.ClientID(clientID)
	sale.PackType = commission.PackType(packType)
	sale.Status = commission.SaleStatus(status)
	sale.Notes = notes.String
	sale.CreatedBy = commission.EmployeeID(createdBy)
	sale.CreatedAt = parseTime(createdAt)
	sale.UpdatedAt = parseTime(updatedAt)

	if price.Valid {
		d, err := decimal.NewFromString(price.String)
		if err != nil {
			return nil, fmt.Errorf("sale %s: bad pack_price %q: %w", id, price.String, err)
		}
		sale.PackPrice = &d
	}
	if fiberJSON.Valid && fiberJSON.String != "" {
		var f commission.Fiber
		if err := json.Unmarshal([]byte(fiberJSON.String), &f); err != nil {
			return nil, fmt.Errorf("sale %s: bad fiber json: %w", id, err)
		}
		sale.Fiber = &f
	}
	if linesJSON.Valid && linesJSON.String != "" {
		if err := json.Unmarshal([]byte(linesJSON.String), &sale.Lines); err != nil {
			return nil, fmt.Errorf("sale %s: bad lines json: %w", id, err)
		}
	}
	return &sale, nil
}

func encodeSaleParts(sale commission.Sale) (fiberJSON any, linesJSON string, err error) {
	if sale.Fiber != nil {
		b, err := json.Marshal(sale.Fiber)
		if err != nil {
			return nil, "", err
		}
		fiberJSON = string(b)
	}
	lines := sale.Lines
	if lines == nil {
		lines = []commission.MobileLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return nil, "", err
	}
	return fiberJSON, string(b), nil
}

// =============================================================================
// COMMISSION CONFIGS - Optimistic versioned writes
// =============================================================================

func (s *Store) GetConfig(ctx context.Context, m commission.Month) (*commission.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getConfig(ctx, s.db, m)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getConfig(ctx context.Context, q querier, m commission.Month) (*commission.Config, error) {
	var threshold, retroactive, retroFrom, version int
	var categoriesJSON string
	err := q.QueryRowContext(ctx, `
		SELECT threshold, retroactive, retroactive_from, categories_json, version
		FROM commission_configs WHERE year = ? AND month = ?`,
		m.Year, int(m.Month)).Scan(&threshold, &retroactive, &retroFrom, &categoriesJSON, &version)
	if err == sql.ErrNoRows {
		return nil, commission.ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg := commission.Config{
		Month:           m,
		Threshold:       threshold,
		Retroactive:     retroactive != 0,
		RetroactiveFrom: retroFrom,
		Version:         version,
	}
	if err := json.Unmarshal([]byte(categoriesJSON), &cfg.Categories); err != nil {
		return nil, fmt.Errorf("config %s: bad categories json: %w", m, err)
	}
	return &cfg, nil
}

// PutConfig validates and upserts the month's config with an optimistic
// version check, all inside one transaction.
func (s *Store) PutConfig(ctx context.Context, cfg commission.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := putConfigTx(ctx, tx, cfg); err != nil {
		return err
	}
	return tx.Commit()
}

func putConfigTx(ctx context.Context, tx *sql.Tx, cfg commission.Config) error {
	existing, err := getConfig(ctx, tx, cfg.Month)
	if err != nil && err != commission.ErrConfigNotFound {
		return err
	}

	currentVersion := 0
	if existing != nil {
		currentVersion = existing.Version
	}
	if existing != nil && cfg.Version != 0 && cfg.Version != currentVersion {
		return &commission.ConflictError{
			Month:           cfg.Month,
			ExpectedVersion: cfg.Version,
			ActualVersion:   currentVersion,
		}
	}

	for i := range cfg.Categories {
		if cfg.Categories[i].ID == "" {
			cfg.Categories[i].ID = commission.CategoryID(uuid.NewString())
		}
	}
	categoriesJSON, err := json.Marshal(cfg.Categories)
	if err != nil {
		return err
	}

	retroactive := 0
	if cfg.Retroactive {
		retroactive = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO commission_configs
			(year, month, threshold, retroactive, retroactive_from, categories_json, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(year, month) DO UPDATE SET
			threshold = excluded.threshold,
			retroactive = excluded.retroactive,
			retroactive_from = excluded.retroactive_from,
			categories_json = excluded.categories_json,
			version = excluded.version,
			updated_at = excluded.updated_at`,
		cfg.Month.Year, int(cfg.Month.Month), cfg.Threshold, retroactive,
		cfg.RetroactiveFrom, string(categoriesJSON), currentVersion+1,
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// DuplicateConfig deep-copies the source month's config into target with
// fresh category identities. Refuses an already-configured target unless
// overwrite is set.
func (s *Store) DuplicateConfig(ctx context.Context, source, target commission.Month, overwrite bool) (*commission.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	src, err := getConfig(ctx, tx, source)
	if err != nil {
		return nil, err
	}

	existing, err := getConfig(ctx, tx, target)
	if err != nil && err != commission.ErrConfigNotFound {
		return nil, err
	}
	if existing != nil && !overwrite {
		return nil, commission.ErrDuplicateTargetExists
	}

	cp := src.Clone(target)
	if existing != nil {
		cp.Version = existing.Version // checked and bumped by putConfigTx
	}
	if err := putConfigTx(ctx, tx, cp); err != nil {
		return nil, err
	}
	out, err := getConfig(ctx, tx, target)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset wipes all data. Used by demo scenario loading only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"sales", "clients", "employees", "commission_configs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
