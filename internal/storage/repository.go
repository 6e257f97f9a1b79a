package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"atlas/internal/core"
)

const (
	dateLayout = "2006-01-02"
	// Fixed width so lexical order matches chronological order.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"

	syncPending = "pending"
	syncSynced  = "synced"
	syncError   = "error"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

// Orders

const orderColumns = `id, external_id, order_date, status, price_cents, cost_cents,
	shipping_cents, fees_cents, tracking_number, notes, created_at, updated_at`

func (r *SQLiteRepository) CreateOrder(ctx context.Context, o core.Order) (core.Order, error) {
	now := r.now()
	o.ID = uuid.NewString()
	o.CreatedAt, o.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ExternalID, formatDate(o.OrderDate), string(o.Status),
		o.Price.Cents, o.Cost.Cents, o.Shipping.Cents, o.Fees.Cents,
		o.TrackingNumber, o.Notes, formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		return core.Order{}, fmt.Errorf("create order: %w", err)
	}

	slog.InfoContext(ctx, "Order saved to SQLite",
		"id", o.ID,
		"external_id", o.ExternalID,
		"status", o.Status,
		"price_cents", o.Price.Cents)
	return o, nil
}

func (r *SQLiteRepository) GetOrder(ctx context.Context, id string) (core.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Order{}, fmt.Errorf("get order %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (r *SQLiteRepository) ListOrders(ctx context.Context, f OrderFilter) ([]core.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY order_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []core.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *SQLiteRepository) UpdateOrder(ctx context.Context, o core.Order) (core.Order, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET
			external_id = ?, order_date = ?, status = ?, price_cents = ?, cost_cents = ?,
			shipping_cents = ?, fees_cents = ?, tracking_number = ?, notes = ?,
			updated_at = ?, version = version + 1, sync_status = ?
		WHERE id = ?`,
		o.ExternalID, formatDate(o.OrderDate), string(o.Status), o.Price.Cents, o.Cost.Cents,
		o.Shipping.Cents, o.Fees.Cents, o.TrackingNumber, o.Notes,
		formatTimestamp(r.now()), syncPending, o.ID)
	if err != nil {
		return core.Order{}, fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if err := expectAffected(res, "order", o.ID); err != nil {
		return core.Order{}, err
	}
	return r.GetOrder(ctx, o.ID)
}

func (r *SQLiteRepository) DeleteOrder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return expectAffected(res, "order", id)
}

func scanOrder(s scanner) (core.Order, error) {
	var (
		o                              core.Order
		orderDate, status              string
		createdAt, updatedAt           string
		price, cost, shipping, feesAmt int64
	)
	if err := s.Scan(&o.ID, &o.ExternalID, &orderDate, &status, &price, &cost,
		&shipping, &feesAmt, &o.TrackingNumber, &o.Notes, &createdAt, &updatedAt); err != nil {
		return core.Order{}, err
	}
	// An unparseable stored date leaves OrderDate zero.
	o.OrderDate, _ = core.NormalizeDate(orderDate)
	o.Status = core.OrderStatus(status)
	o.Price = core.Money{Cents: price}
	o.Cost = core.Money{Cents: cost}
	o.Shipping = core.Money{Cents: shipping}
	o.Fees = core.Money{Cents: feesAmt}
	o.CreatedAt = parseTimestamp(createdAt)
	o.UpdatedAt = parseTimestamp(updatedAt)
	return o, nil
}

// Capital entries

const capitalColumns = `id, type, source, amount_cents, transaction_date, submitted_by,
	notes, created_at, updated_at`

func (r *SQLiteRepository) CreateCapitalEntry(ctx context.Context, e core.CapitalEntry) (core.CapitalEntry, error) {
	now := r.now()
	e.ID = uuid.NewString()
	e.CreatedAt, e.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `INSERT INTO capital_entries (`+capitalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), string(e.Source), e.Amount.Cents, formatDate(e.TransactionDate),
		e.SubmittedBy, e.Notes, formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		return core.CapitalEntry{}, fmt.Errorf("create capital entry: %w", err)
	}

	slog.InfoContext(ctx, "Capital entry saved to SQLite",
		"id", e.ID,
		"type", e.Type,
		"source", e.Source,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

func (r *SQLiteRepository) GetCapitalEntry(ctx context.Context, id string) (core.CapitalEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+capitalColumns+` FROM capital_entries WHERE id = ?`, id)
	e, err := scanCapitalEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CapitalEntry{}, fmt.Errorf("get capital entry %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.CapitalEntry{}, fmt.Errorf("get capital entry %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListCapitalEntries(ctx context.Context, f CapitalFilter) ([]core.CapitalEntry, error) {
	query := `SELECT ` + capitalColumns + ` FROM capital_entries`
	var args []any
	if f.Type != "" {
		query += ` WHERE type = ?`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list capital entries: %w", err)
	}
	defer rows.Close()

	entries := []core.CapitalEntry{}
	for rows.Next() {
		e, err := scanCapitalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan capital entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list capital entries: %w", err)
	}
	return entries, nil
}

func (r *SQLiteRepository) UpdateCapitalEntry(ctx context.Context, e core.CapitalEntry) (core.CapitalEntry, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE capital_entries SET
			type = ?, source = ?, amount_cents = ?, transaction_date = ?, submitted_by = ?,
			notes = ?, updated_at = ?, version = version + 1, sync_status = ?
		WHERE id = ?`,
		string(e.Type), string(e.Source), e.Amount.Cents, formatDate(e.TransactionDate),
		e.SubmittedBy, e.Notes, formatTimestamp(r.now()), syncPending, e.ID)
	if err != nil {
		return core.CapitalEntry{}, fmt.Errorf("update capital entry %s: %w", e.ID, err)
	}
	if err := expectAffected(res, "capital entry", e.ID); err != nil {
		return core.CapitalEntry{}, err
	}
	return r.GetCapitalEntry(ctx, e.ID)
}

func (r *SQLiteRepository) DeleteCapitalEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM capital_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete capital entry %s: %w", id, err)
	}
	return expectAffected(res, "capital entry", id)
}

func scanCapitalEntry(s scanner) (core.CapitalEntry, error) {
	var (
		e                    core.CapitalEntry
		typ, source, txDate  string
		createdAt, updatedAt string
		amount               int64
	)
	if err := s.Scan(&e.ID, &typ, &source, &amount, &txDate, &e.SubmittedBy,
		&e.Notes, &createdAt, &updatedAt); err != nil {
		return core.CapitalEntry{}, err
	}
	e.Type = core.CapitalType(typ)
	e.Source = core.CapitalSource(source)
	e.Amount = core.Money{Cents: amount}
	e.TransactionDate, _ = core.NormalizeDate(txDate)
	e.CreatedAt = parseTimestamp(createdAt)
	e.UpdatedAt = parseTimestamp(updatedAt)
	return e, nil
}

// Users

const userColumns = `id, name, email, role, created_at, updated_at`

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := r.now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, string(u.Role), formatTimestamp(now), formatTimestamp(now))
	if isUniqueViolation(err) {
		return core.User{}, fmt.Errorf("create user %s: %w", u.Email, core.ErrDuplicateEmail)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", u.ID, "role", u.Role)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get user %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context, f UserFilter) ([]core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if f.Role != "" {
		query += ` WHERE role = ?`
		args = append(args, string(f.Role))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []core.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET name = ?, email = ?, role = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, u.Email, string(u.Role), formatTimestamp(r.now()), u.ID)
	if isUniqueViolation(err) {
		return core.User{}, fmt.Errorf("update user %s: %w", u.ID, core.ErrDuplicateEmail)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user %s: %w", u.ID, err)
	}
	if err := expectAffected(res, "user", u.ID); err != nil {
		return core.User{}, err
	}
	return r.GetUser(ctx, u.ID)
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return expectAffected(res, "user", id)
}

func scanUser(s scanner) (core.User, error) {
	var (
		u                    core.User
		role                 string
		createdAt, updatedAt string
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &role, &createdAt, &updatedAt); err != nil {
		return core.User{}, err
	}
	u.Role = core.Role(role)
	u.CreatedAt = parseTimestamp(createdAt)
	u.UpdatedAt = parseTimestamp(updatedAt)
	return u, nil
}

// Sync tracking

// PendingSync returns mirrored rows whose latest version has not been synced,
// oldest change first. Rows marked with a sync error are retried.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, id, version, updated_at FROM (
			SELECT 'order' AS kind, id, version, updated_at FROM orders WHERE synced_version < version
			UNION ALL
			SELECT 'capital' AS kind, id, version, updated_at FROM capital_entries WHERE synced_version < version
		)
		ORDER BY updated_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync records: %w", err)
	}
	defer rows.Close()

	var pending []PendingRecord
	for rows.Next() {
		var (
			p        PendingRecord
			kind, ts string
		)
		if err := rows.Scan(&kind, &p.ID, &p.Version, &ts); err != nil {
			return nil, fmt.Errorf("scan pending sync record: %w", err)
		}
		p.Kind = Kind(kind)
		p.UpdatedAt = parseTimestamp(ts)
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (r *SQLiteRepository) SyncVersion(ctx context.Context, kind Kind, id string) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var version int64
	err = r.db.QueryRowContext(ctx, `SELECT version FROM `+table+` WHERE id = ?`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get %s sync version: %w", kind, err)
	}
	return version, nil
}

// MarkSynced records that version of the row reached the mirror. A newer local
// version keeps the row pending. Rows deleted in the meantime are ignored.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, kind Kind, id string, version int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE `+table+` SET
			synced_version = MAX(synced_version, ?),
			sync_status = CASE WHEN ? >= version THEN ? ELSE ? END
		WHERE id = ?`,
		version, version, syncSynced, syncPending, id)
	if err != nil {
		return fmt.Errorf("mark %s synced: %w", kind, err)
	}

	slog.InfoContext(ctx, "Record marked as synced", "kind", kind, "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, kind Kind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE `+table+` SET sync_status = ? WHERE id = ?`, syncError, id); err != nil {
		return fmt.Errorf("mark %s sync error: %w", kind, err)
	}

	slog.WarnContext(ctx, "Record marked with sync error", "kind", kind, "id", id)
	return nil
}

func tableFor(kind Kind) (string, error) {
	switch kind {
	case KindOrder:
		return "orders", nil
	case KindCapital:
		return "capital_entries", nil
	default:
		return "", fmt.Errorf("unsupported sync kind: %q", kind)
	}
}

func expectAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, _ := core.NormalizeDate(s)
	return t
}
