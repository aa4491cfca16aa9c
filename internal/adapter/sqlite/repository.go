package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/basecloud/tenantd/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: TenantStore implements domain.TenantStore.
var _ domain.TenantStore = (*TenantStore)(nil)

// TenantStore implements domain.TenantStore using SQLite.
type TenantStore struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*TenantStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and
// returns a ready store. Use this when the *sql.DB has been
// pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*TenantStore, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &TenantStore{db: db}, nil
}

// Close closes the underlying database connection.
func (r *TenantStore) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (e.g., river).
func (r *TenantStore) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const (
	timeFormat = "2006-01-02T15:04:05Z"
	dateFormat = "2006-01-02"
)

const tenantColumns = `id, code, name, alias, company_info, remark, status,
	is_invalid, auditor, auditor_id, audited_at, creator, creator_id, created_at`

func (r *TenantStore) Create(ctx context.Context, t domain.Tenant) error {
	info, err := json.Marshal(t.CompanyInfo)
	if err != nil {
		return fmt.Errorf("encoding company info: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO tenants (id, code, name, alias, company_info, remark, status,
		 is_invalid, creator, creator_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Code, t.Name, t.Alias, string(info), t.Remark, string(t.Status),
		t.Invalid, t.Creator, t.CreatorID, t.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "tenants.code"):
			return &domain.CodeConflictError{Code: t.Code}
		case uniqueViolation(err, "tenants.alias"):
			return &domain.AliasConflictError{Alias: t.Alias}
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}
	return nil
}

func (r *TenantStore) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return r.scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id,
	))
}

func (r *TenantStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	var args []any

	if filter.Status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY created_at DESC`

	// SQLite only accepts OFFSET after a LIMIT clause; -1 means unlimited.
	switch {
	case filter.Limit > 0:
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		query += ` LIMIT -1`
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenantRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}

	return tenants, rows.Err()
}

func (r *TenantStore) Update(ctx context.Context, t domain.Tenant) error {
	info, err := json.Marshal(t.CompanyInfo)
	if err != nil {
		return fmt.Errorf("encoding company info: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET name = ?, alias = ?, company_info = ?, remark = ?
		 WHERE id = ?`,
		t.Name, t.Alias, string(info), t.Remark, t.ID,
	)
	if err != nil {
		if uniqueViolation(err, "tenants.alias") {
			return &domain.AliasConflictError{Alias: t.Alias}
		}
		return fmt.Errorf("updating tenant: %w", err)
	}

	return requireRow(result)
}

func (r *TenantStore) UpdateStatus(ctx context.Context, id string, status domain.Status, auditor domain.Actor, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET status = ?, auditor = ?, auditor_id = ?, audited_at = ?
		 WHERE id = ?`,
		string(status), auditor.Name, auditor.ID, at.Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("updating tenant status: %w", err)
	}

	return requireRow(result)
}

func (r *TenantStore) UpdateInvalid(ctx context.Context, id string, invalid bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET is_invalid = ? WHERE id = ?`, invalid, id,
	)
	if err != nil {
		return fmt.Errorf("updating tenant invalid flag: %w", err)
	}

	return requireRow(result)
}

// DeleteCascade removes the tenant and all dependent rows in one
// transaction.
func (r *TenantStore) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting delete transaction: %w", err)
	}
	defer tx.Rollback()

	deletes := []string{
		`DELETE FROM roles WHERE tenant_id = ?`,
		`DELETE FROM tenant_users WHERE tenant_id = ?`,
		`DELETE FROM tenant_apps WHERE tenant_id = ?`,
	}
	for _, q := range deletes {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("deleting dependent rows: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *TenantStore) CountByCode(ctx context.Context, code string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tenants WHERE code = ?`, code,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting tenants by code: %w", err)
	}
	return count, nil
}

// CountAccountAlias checks both sides of the shared namespace: tenant
// aliases and user accounts.
func (r *TenantStore) CountAccountAlias(ctx context.Context, alias string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM tenants WHERE alias = ?)
		      + (SELECT COUNT(*) FROM accounts WHERE account = ?)`,
		alias, alias,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting alias usage: %w", err)
	}
	return count, nil
}

func (r *TenantStore) ListEntitlements(ctx context.Context, tenantID string) ([]domain.Entitlement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tenant_id, app_id, expire_date FROM tenant_apps WHERE tenant_id = ?`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing entitlements: %w", err)
	}
	defer rows.Close()

	var out []domain.Entitlement
	for rows.Next() {
		var e domain.Entitlement
		var expire sql.NullString
		if err := rows.Scan(&e.TenantID, &e.AppID, &expire); err != nil {
			return nil, fmt.Errorf("scanning entitlement: %w", err)
		}
		if expire.Valid {
			e.ExpireDate, err = time.Parse(dateFormat, expire.String)
			if err != nil {
				return nil, fmt.Errorf("parsing expire date: %w", err)
			}
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func (r *TenantStore) InsertEntitlements(ctx context.Context, tenantID string, appIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting bind transaction: %w", err)
	}
	defer tx.Rollback()

	for _, appID := range appIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tenant_apps (tenant_id, app_id) VALUES (?, ?)`,
			tenantID, appID,
		); err != nil {
			return fmt.Errorf("inserting entitlement for app %s: %w", appID, err)
		}
	}

	return tx.Commit()
}

func (r *TenantStore) DeleteEntitlements(ctx context.Context, tenantID string, appIDs []string) error {
	query, args := inClause(
		`DELETE FROM tenant_apps WHERE tenant_id = ? AND app_id IN`, tenantID, appIDs,
	)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting entitlements: %w", err)
	}
	return nil
}

func (r *TenantStore) RenewEntitlement(ctx context.Context, tenantID, appID string, expire time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tenant_apps SET expire_date = ? WHERE tenant_id = ? AND app_id = ?`,
		expire.Format(dateFormat), tenantID, appID,
	)
	if err != nil {
		return fmt.Errorf("renewing entitlement: %w", err)
	}
	return nil
}

func (r *TenantStore) CountRolesForApps(ctx context.Context, tenantID string, appIDs []string) (int, error) {
	query, args := inClause(
		`SELECT COUNT(*) FROM roles WHERE tenant_id = ? AND app_id IN`, tenantID, appIDs,
	)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting roles for apps: %w", err)
	}
	return count, nil
}

func (r *TenantStore) InsertTenantUser(ctx context.Context, tenantID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenant_users (tenant_id, user_id) VALUES (?, ?)`,
		tenantID, userID,
	)
	if err != nil {
		return fmt.Errorf("inserting tenant-user link: %w", err)
	}
	return nil
}

// scanTenant scans a single row from QueryRow into a domain.Tenant.
func (r *TenantStore) scanTenant(row *sql.Row) (domain.Tenant, error) {
	t, err := scanTenantRow(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Tenant{}, domain.ErrTenantNotFound
	}
	return t, err
}

// scanTenantRow scans one tenant from any Scan-shaped source.
func scanTenantRow(scan func(...any) error) (domain.Tenant, error) {
	var t domain.Tenant
	var status, info, createdAt string
	var auditor, auditorID, auditedAt sql.NullString

	err := scan(&t.ID, &t.Code, &t.Name, &t.Alias, &info, &t.Remark, &status,
		&t.Invalid, &auditor, &auditorID, &auditedAt, &t.Creator, &t.CreatorID, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tenant{}, err
		}
		return domain.Tenant{}, fmt.Errorf("scanning tenant: %w", err)
	}

	if err := json.Unmarshal([]byte(info), &t.CompanyInfo); err != nil {
		return domain.Tenant{}, fmt.Errorf("decoding company info: %w", err)
	}

	t.Status = domain.Status(status)
	t.Auditor = auditor.String
	t.AuditorID = auditorID.String
	if auditedAt.Valid {
		at, err := time.Parse(timeFormat, auditedAt.String)
		if err != nil {
			return domain.Tenant{}, fmt.Errorf("parsing audited_at: %w", err)
		}
		t.AuditedAt = &at
	}
	t.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("parsing created_at: %w", err)
	}

	return t, nil
}

// requireRow maps zero affected rows to the not-found error.
func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}

// inClause appends a parenthesized placeholder list for ids to the query.
func inClause(query, first string, ids []string) (string, []any) {
	placeholders := strings.Repeat("?, ", len(ids))
	placeholders = strings.TrimSuffix(placeholders, ", ")

	args := make([]any, 0, len(ids)+1)
	args = append(args, first)
	for _, id := range ids {
		args = append(args, id)
	}

	return query + " (" + placeholders + ")", args
}

// uniqueViolation checks if a SQLite error is a UNIQUE constraint
// violation on the given column.
func uniqueViolation(err error, column string) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
