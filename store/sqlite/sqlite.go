/*
Package sqlite provides a SQLite-backed implementation of funding.Store.

PURPOSE:
  Persists payees, client fee schedules, obligations (SOAs and reserve
  releases), disbursements, and the reserve release link rows. In
  production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

MONEY REPRESENTATION:
  Every money column is TEXT holding a fixed 2-decimal string ("123.45").
  Never REAL: binary floats drift and this schema backs fee math.

SOFT DELETE:
  Rows are never removed. DELETE on a disbursement sets is_deleted and
  deleted_at; every SELECT filters is_deleted = 0. The dead rows stay
  for audit.

KEY TABLES:
  payees:                         Parties that receive disbursements
  client_settings:                Per-client fee schedule
  client_payees:                  Client<->payee associations
  soa:                            Statements of account
  reserve_release:                Reserve releases (with cached
                                  disbursement_amount)
  disbursements:                  The payments themselves
  reserve_release_disbursements:  Reserve release link rows

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/funding.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  mgr := funding.NewManager(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - funding/store.go: the interface definition
  - funding/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aravind238/funding-sub002/funding"
	"github.com/aravind238/funding-sub002/money"
)

// Store implements funding.Store using SQLite.
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
	// a :memory: database lives in a single connection
	db.SetMaxOpenConns(1)

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
	CREATE TABLE IF NOT EXISTS payees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		account_nickname TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE TABLE IF NOT EXISTS client_settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		high_priority_fee TEXT NOT NULL DEFAULT '0.00',
		same_day_ach_fee TEXT NOT NULL DEFAULT '0.00',
		wire_fee TEXT NOT NULL DEFAULT '0.00',
		third_party_fee TEXT NOT NULL DEFAULT '0.00',
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	-- One live schedule per client
	CREATE UNIQUE INDEX IF NOT EXISTS idx_client_settings_client
		ON client_settings(client_id) WHERE is_deleted = 0;

	CREATE TABLE IF NOT EXISTS client_payees (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		payee_id INTEGER NOT NULL,
		ref_type TEXT NOT NULL DEFAULT 'payee',
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_client_payees_pair
		ON client_payees(client_id, payee_id);

	CREATE TABLE IF NOT EXISTS soa (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		reference_number TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		advance_amount TEXT NOT NULL DEFAULT '0.00',
		invoice_total TEXT NOT NULL DEFAULT '0.00',
		high_priority INTEGER NOT NULL DEFAULT 0,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_soa_client ON soa(client_id);

	CREATE TABLE IF NOT EXISTS reserve_release (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		reference_number TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		advance_amount TEXT NOT NULL DEFAULT '0.00',
		discount_fee_adjustment TEXT NOT NULL DEFAULT '0.00',
		miscellaneous_adjustment TEXT NOT NULL DEFAULT '0.00',
		disbursement_amount TEXT NOT NULL DEFAULT '0.00',
		high_priority INTEGER NOT NULL DEFAULT 0,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reserve_release_client
		ON reserve_release(client_id);

	CREATE TABLE IF NOT EXISTS disbursements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER NOT NULL,
		soa_id INTEGER,
		payee_id INTEGER NOT NULL,
		ref_type TEXT NOT NULL,
		ref_id INTEGER NOT NULL,
		payment_method TEXT NOT NULL DEFAULT 'wire',
		amount TEXT NOT NULL DEFAULT '0.00',
		client_fee TEXT NOT NULL DEFAULT '0.00',
		third_party_fee TEXT NOT NULL DEFAULT '0.00',
		tp_ticket_number TEXT NOT NULL DEFAULT '',
		is_reviewed INTEGER NOT NULL DEFAULT 0,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	-- Balance computation (hot path)
	CREATE INDEX IF NOT EXISTS idx_disbursements_soa
		ON disbursements(soa_id) WHERE soa_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_disbursements_ref
		ON disbursements(ref_type, ref_id);
	CREATE INDEX IF NOT EXISTS idx_disbursements_payee
		ON disbursements(payee_id);

	CREATE TABLE IF NOT EXISTS reserve_release_disbursements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		disbursement_id INTEGER NOT NULL,
		reserve_release_id INTEGER NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_rr_links_disbursement
		ON reserve_release_disbursements(disbursement_id);
	CREATE INDEX IF NOT EXISTS idx_rr_links_release
		ON reserve_release_disbursements(reserve_release_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the query helpers
// serve the plain store and the transactional view alike.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// PAYEES
// =============================================================================

const payeeColumns = `id, first_name, last_name, account_nickname, is_active,
	is_deleted, created_at, updated_at, deleted_at`

func (s *Store) GetPayee(ctx context.Context, id int64) (*funding.Payee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPayee(ctx, s.db, id)
}

func getPayee(ctx context.Context, q dbtx, id int64) (*funding.Payee, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+payeeColumns+` FROM payees WHERE id = ? AND is_deleted = 0`, id)
	p, err := scanPayee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payee: %w", err)
	}
	return p, nil
}

func scanPayee(row interface{ Scan(...any) error }) (*funding.Payee, error) {
	var (
		p         funding.Payee
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.AccountNickname,
		&p.IsActive, &p.IsDeleted, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	p.DeletedAt = parseNullTime(deletedAt)
	return &p, nil
}

func (s *Store) SavePayee(ctx context.Context, p *funding.Payee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePayee(ctx, s.db, p)
}

func savePayee(ctx context.Context, q dbtx, p *funding.Payee) error {
	touch(&p.CreatedAt, &p.UpdatedAt)
	if p.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO payees
			(first_name, last_name, account_nickname, is_active, is_deleted,
			 created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.FirstName, p.LastName, p.AccountNickname, p.IsActive, p.IsDeleted,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt), nullTime(p.DeletedAt))
		if err != nil {
			return fmt.Errorf("failed to insert payee: %w", err)
		}
		p.ID, err = res.LastInsertId()
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE payees SET first_name = ?, last_name = ?, account_nickname = ?,
			is_active = ?, is_deleted = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		p.FirstName, p.LastName, p.AccountNickname, p.IsActive, p.IsDeleted,
		formatTime(p.UpdatedAt), nullTime(p.DeletedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update payee: %w", err)
	}
	return nil
}

func (s *Store) ListPayees(ctx context.Context) ([]funding.Payee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPayees(ctx, s.db)
}

func listPayees(ctx context.Context, q dbtx) ([]funding.Payee, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+payeeColumns+` FROM payees WHERE is_deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list payees: %w", err)
	}
	defer rows.Close()

	var out []funding.Payee
	for rows.Next() {
		p, err := scanPayee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payee: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// =============================================================================
// CLIENT SETTINGS
// =============================================================================

const settingsColumns = `id, client_id, high_priority_fee, same_day_ach_fee,
	wire_fee, third_party_fee, is_deleted, created_at, updated_at, deleted_at`

func (s *Store) GetClientSettings(ctx context.Context, clientID int64) (*funding.ClientSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getClientSettings(ctx, s.db, clientID)
}

func getClientSettings(ctx context.Context, q dbtx, clientID int64) (*funding.ClientSettings, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM client_settings
		 WHERE client_id = ? AND is_deleted = 0`, clientID)

	var (
		cs           funding.ClientSettings
		highPriority string
		sameDayACH   string
		wire         string
		thirdParty   string
		createdAt    string
		updatedAt    string
		deletedAt    sql.NullString
	)
	err := row.Scan(&cs.ID, &cs.ClientID, &highPriority, &sameDayACH, &wire,
		&thirdParty, &cs.IsDeleted, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client settings: %w", err)
	}
	cs.HighPriorityFee = parseMoney(highPriority)
	cs.SameDayACHFee = parseMoney(sameDayACH)
	cs.WireFee = parseMoney(wire)
	cs.ThirdPartyFee = parseMoney(thirdParty)
	cs.CreatedAt = parseTime(createdAt)
	cs.UpdatedAt = parseTime(updatedAt)
	cs.DeletedAt = parseNullTime(deletedAt)
	return &cs, nil
}

func (s *Store) SaveClientSettings(ctx context.Context, cs *funding.ClientSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveClientSettings(ctx, s.db, cs)
}

func saveClientSettings(ctx context.Context, q dbtx, cs *funding.ClientSettings) error {
	touch(&cs.CreatedAt, &cs.UpdatedAt)
	if cs.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO client_settings
			(client_id, high_priority_fee, same_day_ach_fee, wire_fee,
			 third_party_fee, is_deleted, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cs.ClientID, moneyStr(cs.HighPriorityFee), moneyStr(cs.SameDayACHFee),
			moneyStr(cs.WireFee), moneyStr(cs.ThirdPartyFee), cs.IsDeleted,
			formatTime(cs.CreatedAt), formatTime(cs.UpdatedAt), nullTime(cs.DeletedAt))
		if err != nil {
			return fmt.Errorf("failed to insert client settings: %w", err)
		}
		cs.ID, err = res.LastInsertId()
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE client_settings SET client_id = ?, high_priority_fee = ?,
			same_day_ach_fee = ?, wire_fee = ?, third_party_fee = ?,
			is_deleted = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		cs.ClientID, moneyStr(cs.HighPriorityFee), moneyStr(cs.SameDayACHFee),
		moneyStr(cs.WireFee), moneyStr(cs.ThirdPartyFee), cs.IsDeleted,
		formatTime(cs.UpdatedAt), nullTime(cs.DeletedAt), cs.ID)
	if err != nil {
		return fmt.Errorf("failed to update client settings: %w", err)
	}
	return nil
}

// =============================================================================
// CLIENT <-> PAYEE ASSOCIATIONS
// =============================================================================

func (s *Store) GetClientPayee(ctx context.Context, clientID, payeeID int64) (*funding.ClientPayee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getClientPayee(ctx, s.db, clientID, payeeID)
}

func getClientPayee(ctx context.Context, q dbtx, clientID, payeeID int64) (*funding.ClientPayee, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, client_id, payee_id, ref_type, is_deleted,
		       created_at, updated_at, deleted_at
		FROM client_payees
		WHERE client_id = ? AND payee_id = ? AND is_deleted = 0`, clientID, payeeID)

	var (
		cp        funding.ClientPayee
		refType   string
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)
	err := row.Scan(&cp.ID, &cp.ClientID, &cp.PayeeID, &refType, &cp.IsDeleted,
		&createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client payee: %w", err)
	}
	cp.RefType = funding.ClientPayeeRefType(refType)
	cp.CreatedAt = parseTime(createdAt)
	cp.UpdatedAt = parseTime(updatedAt)
	cp.DeletedAt = parseNullTime(deletedAt)
	return &cp, nil
}

func (s *Store) SaveClientPayee(ctx context.Context, cp *funding.ClientPayee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveClientPayee(ctx, s.db, cp)
}

func saveClientPayee(ctx context.Context, q dbtx, cp *funding.ClientPayee) error {
	touch(&cp.CreatedAt, &cp.UpdatedAt)
	if cp.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO client_payees
			(client_id, payee_id, ref_type, is_deleted, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cp.ClientID, cp.PayeeID, string(cp.RefType), cp.IsDeleted,
			formatTime(cp.CreatedAt), formatTime(cp.UpdatedAt), nullTime(cp.DeletedAt))
		if err != nil {
			return fmt.Errorf("failed to insert client payee: %w", err)
		}
		cp.ID, err = res.LastInsertId()
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE client_payees SET client_id = ?, payee_id = ?, ref_type = ?,
			is_deleted = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		cp.ClientID, cp.PayeeID, string(cp.RefType), cp.IsDeleted,
		formatTime(cp.UpdatedAt), nullTime(cp.DeletedAt), cp.ID)
	if err != nil {
		return fmt.Errorf("failed to update client payee: %w", err)
	}
	return nil
}

// =============================================================================
// SOA
// =============================================================================

const soaColumns = `id, client_id, reference_number, status, advance_amount,
	invoice_total, high_priority, is_deleted, created_at, updated_at, deleted_at`

func (s *Store) GetSOA(ctx context.Context, id int64) (*funding.SOA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSOA(ctx, s.db, id)
}

func getSOA(ctx context.Context, q dbtx, id int64) (*funding.SOA, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+soaColumns+` FROM soa WHERE id = ? AND is_deleted = 0`, id)
	soa, err := scanSOA(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get soa: %w", err)
	}
	return soa, nil
}

func scanSOA(row interface{ Scan(...any) error }) (*funding.SOA, error) {
	var (
		soa          funding.SOA
		status       string
		advance      string
		invoiceTotal string
		createdAt    string
		updatedAt    string
		deletedAt    sql.NullString
	)
	err := row.Scan(&soa.ID, &soa.ClientID, &soa.ReferenceNumber, &status,
		&advance, &invoiceTotal, &soa.HighPriority, &soa.IsDeleted,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	soa.Status = funding.ObligationStatus(status)
	soa.AdvanceAmount = parseMoney(advance)
	soa.InvoiceTotal = parseMoney(invoiceTotal)
	soa.CreatedAt = parseTime(createdAt)
	soa.UpdatedAt = parseTime(updatedAt)
	soa.DeletedAt = parseNullTime(deletedAt)
	return &soa, nil
}

func (s *Store) SaveSOA(ctx context.Context, soa *funding.SOA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveSOA(ctx, s.db, soa)
}

func saveSOA(ctx context.Context, q dbtx, soa *funding.SOA) error {
	touch(&soa.CreatedAt, &soa.UpdatedAt)
	if soa.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO soa
			(client_id, reference_number, status, advance_amount, invoice_total,
			 high_priority, is_deleted, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			soa.ClientID, soa.ReferenceNumber, string(soa.Status),
			moneyStr(soa.AdvanceAmount), moneyStr(soa.InvoiceTotal),
			soa.HighPriority, soa.IsDeleted,
			formatTime(soa.CreatedAt), formatTime(soa.UpdatedAt), nullTime(soa.DeletedAt))
		if err != nil {
			return fmt.Errorf("failed to insert soa: %w", err)
		}
		soa.ID, err = res.LastInsertId()
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE soa SET client_id = ?, reference_number = ?, status = ?,
			advance_amount = ?, invoice_total = ?, high_priority = ?,
			is_deleted = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		soa.ClientID, soa.ReferenceNumber, string(soa.Status),
		moneyStr(soa.AdvanceAmount), moneyStr(soa.InvoiceTotal),
		soa.HighPriority, soa.IsDeleted,
		formatTime(soa.UpdatedAt), nullTime(soa.DeletedAt), soa.ID)
	if err != nil {
		return fmt.Errorf("failed to update soa: %w", err)
	}
	return nil
}

func (s *Store) ListSOAs(ctx context.Context) ([]funding.SOA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSOAs(ctx, s.db)
}

func listSOAs(ctx context.Context, q dbtx) ([]funding.SOA, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+soaColumns+` FROM soa WHERE is_deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list soas: %w", err)
	}
	defer rows.Close()

	var out []funding.SOA
	for rows.Next() {
		soa, err := scanSOA(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan soa: %w", err)
		}
		out = append(out, *soa)
	}
	return out, rows.Err()
}

// =============================================================================
// RESERVE RELEASE
// =============================================================================

const reserveColumns = `id, client_id, reference_number, status, advance_amount,
	discount_fee_adjustment, miscellaneous_adjustment, disbursement_amount,
	high_priority, is_deleted, created_at, updated_at, deleted_at`

func (s *Store) GetReserveRelease(ctx context.Context, id int64) (*funding.ReserveRelease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getReserveRelease(ctx, s.db, id)
}

func getReserveRelease(ctx context.Context, q dbtx, id int64) (*funding.ReserveRelease, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+reserveColumns+` FROM reserve_release
		 WHERE id = ? AND is_deleted = 0`, id)
	rr, err := scanReserveRelease(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reserve release: %w", err)
	}
	return rr, nil
}

func scanReserveRelease(row interface{ Scan(...any) error }) (*funding.ReserveRelease, error) {
	var (
		rr           funding.ReserveRelease
		status       string
		advance      string
		discount     string
		misc         string
		disbursement string
		createdAt    string
		updatedAt    string
		deletedAt    sql.NullString
	)
	err := row.Scan(&rr.ID, &rr.ClientID, &rr.ReferenceNumber, &status,
		&advance, &discount, &misc, &disbursement, &rr.HighPriority,
		&rr.IsDeleted, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	rr.Status = funding.ObligationStatus(status)
	rr.AdvanceAmount = parseMoney(advance)
	rr.DiscountFeeAdjustment = parseMoney(discount)
	rr.MiscellaneousAdjustment = parseMoney(misc)
	rr.DisbursementAmount = parseMoney(disbursement)
	rr.CreatedAt = parseTime(createdAt)
	rr.UpdatedAt = parseTime(updatedAt)
	rr.DeletedAt = parseNullTime(deletedAt)
	return &rr, nil
}

func (s *Store) SaveReserveRelease(ctx context.Context, rr *funding.ReserveRelease) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveReserveRelease(ctx, s.db, rr)
}

func saveReserveRelease(ctx context.Context, q dbtx, rr *funding.ReserveRelease) error {
	touch(&rr.CreatedAt, &rr.UpdatedAt)
	if rr.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO reserve_release
			(client_id, reference_number, status, advance_amount,
			 discount_fee_adjustment, miscellaneous_adjustment, disbursement_amount,
			 high_priority, is_deleted, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rr.ClientID, rr.ReferenceNumber, string(rr.Status),
			moneyStr(rr.AdvanceAmount), moneyStr(rr.DiscountFeeAdjustment),
			moneyStr(rr.MiscellaneousAdjustment), moneyStr(rr.DisbursementAmount),
			rr.HighPriority, rr.IsDeleted,
			formatTime(rr.CreatedAt), formatTime(rr.UpdatedAt), nullTime(rr.DeletedAt))
		if err != nil {
			return fmt.Errorf("failed to insert reserve release: %w", err)
		}
		rr.ID, err = res.LastInsertId()
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE reserve_release SET client_id = ?, reference_number = ?, status = ?,
			advance_amount = ?, discount_fee_adjustment = ?,
			miscellaneous_adjustment = ?, disbursement_amount = ?,
			high_priority = ?, is_deleted = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		rr.ClientID, rr.ReferenceNumber, string(rr.Status),
		moneyStr(rr.AdvanceAmount), moneyStr(rr.DiscountFeeAdjustment),
		moneyStr(rr.MiscellaneousAdjustment), moneyStr(rr.DisbursementAmount),
		rr.HighPriority, rr.IsDeleted,
		formatTime(rr.UpdatedAt), nullTime(rr.DeletedAt), rr.ID)
	if err != nil {
		return fmt.Errorf("failed to update reserve release: %w", err)
	}
	return nil
}

func (s *Store) ListReserveReleases(ctx context.Context) ([]funding.ReserveRelease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listReserveReleases(ctx, s.db)
}

func listReserveReleases(ctx context.Context, q dbtx) ([]funding.ReserveRelease, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+reserveColumns+` FROM reserve_release
		 WHERE is_deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reserve releases: %w", err)
	}
	defer rows.Close()

	var out []funding.ReserveRelease
	for rows.Next() {
		rr, err := scanReserveRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reserve release: %w", err)
		}
		out = append(out, *rr)
	}
	return out, rows.Err()
}

// =============================================================================
// DISBURSEMENTS
// =============================================================================

const disbursementColumns = `d.id, d.client_id, d.soa_id, d.payee_id, d.ref_type,
	d.ref_id, d.payment_method, d.amount, d.client_fee, d.third_party_fee,
	d.tp_ticket_number, d.is_reviewed, d.is_deleted, d.created_at, d.updated_at,
	d.deleted_at`

func (s *Store) GetDisbursement(ctx context.Context, id int64) (*funding.Disbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDisbursement(ctx, s.db, id)
}

func getDisbursement(ctx context.Context, q dbtx, id int64) (*funding.Disbursement, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+disbursementColumns+` FROM disbursements d
		 WHERE d.id = ? AND d.is_deleted = 0`, id)
	d, err := scanDisbursement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get disbursement: %w", err)
	}
	return d, nil
}

func scanDisbursement(row interface{ Scan(...any) error }) (*funding.Disbursement, error) {
	var (
		d          funding.Disbursement
		soaID      sql.NullInt64
		refType    string
		method     string
		amount     string
		clientFee  string
		thirdParty string
		createdAt  string
		updatedAt  string
		deletedAt  sql.NullString
	)
	err := row.Scan(&d.ID, &d.ClientID, &soaID, &d.PayeeID, &refType,
		&d.RefID, &method, &amount, &clientFee, &thirdParty,
		&d.TPTicketNumber, &d.IsReviewed, &d.IsDeleted,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if soaID.Valid {
		d.SOAID = &soaID.Int64
	}
	d.RefType = funding.RefType(refType)
	d.PaymentMethod = funding.PaymentMethod(method)
	d.Amount = parseMoney(amount)
	d.ClientFee = parseMoney(clientFee)
	d.ThirdPartyFee = parseMoney(thirdParty)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	d.DeletedAt = parseNullTime(deletedAt)
	return &d, nil
}

func (s *Store) ListDisbursements(ctx context.Context) ([]funding.Disbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryDisbursements(ctx, s.db,
		`SELECT `+disbursementColumns+` FROM disbursements d
		 WHERE d.is_deleted = 0 ORDER BY d.id`)
}

func (s *Store) ListObligationDisbursements(ctx context.Context, refType funding.RefType, refID int64) ([]funding.Disbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listObligationDisbursements(ctx, s.db, refType, refID)
}

func listObligationDisbursements(ctx context.Context, q dbtx, refType funding.RefType, refID int64) ([]funding.Disbursement, error) {
	if refType == funding.RefSOA {
		return queryDisbursements(ctx, q,
			`SELECT `+disbursementColumns+` FROM disbursements d
			 WHERE d.soa_id = ? AND d.is_deleted = 0 ORDER BY d.id`, refID)
	}
	return queryDisbursements(ctx, q,
		`SELECT `+disbursementColumns+`
		 FROM disbursements d
		 JOIN reserve_release_disbursements l ON l.disbursement_id = d.id
		 WHERE l.reserve_release_id = ? AND l.is_deleted = 0 AND d.is_deleted = 0
		 ORDER BY d.id`, refID)
}

func queryDisbursements(ctx context.Context, q dbtx, query string, args ...any) ([]funding.Disbursement, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query disbursements: %w", err)
	}
	defer rows.Close()

	var out []funding.Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan disbursement: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *Store) SaveDisbursement(ctx context.Context, d *funding.Disbursement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveDisbursement(ctx, s.db, d)
}

func saveDisbursement(ctx context.Context, q dbtx, d *funding.Disbursement) error {
	touch(&d.CreatedAt, &d.UpdatedAt)
	var soaID sql.NullInt64
	if d.SOAID != nil {
		soaID = sql.NullInt64{Int64: *d.SOAID, Valid: true}
	}
	if d.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO disbursements
			(client_id, soa_id, payee_id, ref_type, ref_id, payment_method,
			 amount, client_fee, third_party_fee, tp_ticket_number, is_reviewed,
			 is_deleted, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ClientID, soaID, d.PayeeID, string(d.RefType), d.RefID,
			string(d.PaymentMethod), moneyStr(d.Amount), moneyStr(d.ClientFee),
			moneyStr(d.ThirdPartyFee), d.TPTicketNumber, d.IsReviewed, d.IsDeleted,
			formatTime(d.CreatedAt), formatTime(d.UpdatedAt), nullTime(d.DeletedAt))
		if err != nil {
			return fmt.Errorf("failed to insert disbursement: %w", err)
		}
		d.ID, err = res.LastInsertId()
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE disbursements SET client_id = ?, soa_id = ?, payee_id = ?,
			ref_type = ?, ref_id = ?, payment_method = ?, amount = ?,
			client_fee = ?, third_party_fee = ?, tp_ticket_number = ?,
			is_reviewed = ?, is_deleted = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		d.ClientID, soaID, d.PayeeID, string(d.RefType), d.RefID,
		string(d.PaymentMethod), moneyStr(d.Amount), moneyStr(d.ClientFee),
		moneyStr(d.ThirdPartyFee), d.TPTicketNumber, d.IsReviewed, d.IsDeleted,
		formatTime(d.UpdatedAt), nullTime(d.DeletedAt), d.ID)
	if err != nil {
		return fmt.Errorf("failed to update disbursement: %w", err)
	}
	return nil
}

func (s *Store) DeleteDisbursement(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteDisbursement(ctx, s.db, id)
}

func deleteDisbursement(ctx context.Context, q dbtx, id int64) error {
	now := formatTime(time.Now().UTC())
	_, err := q.ExecContext(ctx, `
		UPDATE disbursements SET is_deleted = 1, deleted_at = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete disbursement: %w", err)
	}
	return nil
}

// =============================================================================
// RESERVE RELEASE LINKS
// =============================================================================

const linkColumns = `id, disbursement_id, reserve_release_id, is_deleted,
	created_at, updated_at, deleted_at`

func (s *Store) GetLinkByDisbursement(ctx context.Context, disbursementID int64) (*funding.ReserveReleaseDisbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getLinkWhere(ctx, s.db,
		`disbursement_id = ? AND is_deleted = 0`, disbursementID)
}

func (s *Store) GetLink(ctx context.Context, disbursementID, reserveReleaseID int64) (*funding.ReserveReleaseDisbursement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getLinkWhere(ctx, s.db,
		`disbursement_id = ? AND reserve_release_id = ? AND is_deleted = 0`,
		disbursementID, reserveReleaseID)
}

func getLinkWhere(ctx context.Context, q dbtx, where string, args ...any) (*funding.ReserveReleaseDisbursement, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM reserve_release_disbursements WHERE `+where, args...)

	var (
		l         funding.ReserveReleaseDisbursement
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)
	err := row.Scan(&l.ID, &l.DisbursementID, &l.ReserveReleaseID, &l.IsDeleted,
		&createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reserve release link: %w", err)
	}
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	l.DeletedAt = parseNullTime(deletedAt)
	return &l, nil
}

func (s *Store) SaveLink(ctx context.Context, l *funding.ReserveReleaseDisbursement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveLink(ctx, s.db, l)
}

func saveLink(ctx context.Context, q dbtx, l *funding.ReserveReleaseDisbursement) error {
	touch(&l.CreatedAt, &l.UpdatedAt)
	if l.ID == 0 {
		res, err := q.ExecContext(ctx, `
			INSERT INTO reserve_release_disbursements
			(disbursement_id, reserve_release_id, is_deleted, created_at, updated_at, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			l.DisbursementID, l.ReserveReleaseID, l.IsDeleted,
			formatTime(l.CreatedAt), formatTime(l.UpdatedAt), nullTime(l.DeletedAt))
		if err != nil {
			return fmt.Errorf("failed to insert reserve release link: %w", err)
		}
		l.ID, err = res.LastInsertId()
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE reserve_release_disbursements SET disbursement_id = ?,
			reserve_release_id = ?, is_deleted = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		l.DisbursementID, l.ReserveReleaseID, l.IsDeleted,
		formatTime(l.UpdatedAt), nullTime(l.DeletedAt), l.ID)
	if err != nil {
		return fmt.Errorf("failed to update reserve release link: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store funding.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes every call through the open *sql.Tx. The parent's lock
// is held for the transaction's duration.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetPayee(ctx context.Context, id int64) (*funding.Payee, error) {
	return getPayee(ctx, ts.tx, id)
}

func (ts *txStore) SavePayee(ctx context.Context, p *funding.Payee) error {
	return savePayee(ctx, ts.tx, p)
}

func (ts *txStore) ListPayees(ctx context.Context) ([]funding.Payee, error) {
	return listPayees(ctx, ts.tx)
}

func (ts *txStore) GetClientSettings(ctx context.Context, clientID int64) (*funding.ClientSettings, error) {
	return getClientSettings(ctx, ts.tx, clientID)
}

func (ts *txStore) SaveClientSettings(ctx context.Context, cs *funding.ClientSettings) error {
	return saveClientSettings(ctx, ts.tx, cs)
}

func (ts *txStore) GetClientPayee(ctx context.Context, clientID, payeeID int64) (*funding.ClientPayee, error) {
	return getClientPayee(ctx, ts.tx, clientID, payeeID)
}

func (ts *txStore) SaveClientPayee(ctx context.Context, cp *funding.ClientPayee) error {
	return saveClientPayee(ctx, ts.tx, cp)
}

func (ts *txStore) GetSOA(ctx context.Context, id int64) (*funding.SOA, error) {
	return getSOA(ctx, ts.tx, id)
}

func (ts *txStore) SaveSOA(ctx context.Context, soa *funding.SOA) error {
	return saveSOA(ctx, ts.tx, soa)
}

func (ts *txStore) ListSOAs(ctx context.Context) ([]funding.SOA, error) {
	return listSOAs(ctx, ts.tx)
}

func (ts *txStore) GetReserveRelease(ctx context.Context, id int64) (*funding.ReserveRelease, error) {
	return getReserveRelease(ctx, ts.tx, id)
}

func (ts *txStore) SaveReserveRelease(ctx context.Context, rr *funding.ReserveRelease) error {
	return saveReserveRelease(ctx, ts.tx, rr)
}

func (ts *txStore) ListReserveReleases(ctx context.Context) ([]funding.ReserveRelease, error) {
	return listReserveReleases(ctx, ts.tx)
}

func (ts *txStore) GetDisbursement(ctx context.Context, id int64) (*funding.Disbursement, error) {
	return getDisbursement(ctx, ts.tx, id)
}

func (ts *txStore) ListDisbursements(ctx context.Context) ([]funding.Disbursement, error) {
	return queryDisbursements(ctx, ts.tx,
		`SELECT `+disbursementColumns+` FROM disbursements d
		 WHERE d.is_deleted = 0 ORDER BY d.id`)
}

func (ts *txStore) ListObligationDisbursements(ctx context.Context, refType funding.RefType, refID int64) ([]funding.Disbursement, error) {
	return listObligationDisbursements(ctx, ts.tx, refType, refID)
}

func (ts *txStore) SaveDisbursement(ctx context.Context, d *funding.Disbursement) error {
	return saveDisbursement(ctx, ts.tx, d)
}

func (ts *txStore) DeleteDisbursement(ctx context.Context, id int64) error {
	return deleteDisbursement(ctx, ts.tx, id)
}

func (ts *txStore) GetLinkByDisbursement(ctx context.Context, disbursementID int64) (*funding.ReserveReleaseDisbursement, error) {
	return getLinkWhere(ctx, ts.tx,
		`disbursement_id = ? AND is_deleted = 0`, disbursementID)
}

func (ts *txStore) GetLink(ctx context.Context, disbursementID, reserveReleaseID int64) (*funding.ReserveReleaseDisbursement, error) {
	return getLinkWhere(ctx, ts.tx,
		`disbursement_id = ? AND reserve_release_id = ? AND is_deleted = 0`,
		disbursementID, reserveReleaseID)
}

func (ts *txStore) SaveLink(ctx context.Context, l *funding.ReserveReleaseDisbursement) error {
	return saveLink(ctx, ts.tx, l)
}

// WithTx on an already-transactional store reuses the open transaction.
func (ts *txStore) WithTx(_ context.Context, fn func(funding.Store) error) error {
	return fn(ts)
}

// =============================================================================
// HELPERS
// =============================================================================

func moneyStr(m money.Money) string {
	return m.Round2().Decimal().StringFixed(2)
}

func parseMoney(s string) money.Money {
	m, err := money.FromString(s)
	if err != nil {
		return money.Zero()
	}
	return m
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

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

// touch fills zero timestamps on first save.
func touch(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = now
	}
}

// Compile-time interface checks.
var (
	_ funding.Store = (*Store)(nil)
	_ funding.Store = (*txStore)(nil)
)
