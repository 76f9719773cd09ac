package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ebook_checkout/internal/domain"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLRepo stores transactions through database/sql. The same queries
// serve SQLite and Postgres; placeholders are rewritten for the latter.
type SQLRepo struct {
	db      *sql.DB
	dialect dialect
}

func NewSQLiteRepo(dsn string) (*SQLRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	db.Exec("PRAGMA journal_mode = WAL;")
	db.Exec("PRAGMA busy_timeout = 5000;")

	r := &SQLRepo{db: db, dialect: dialectSQLite}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func NewPostgresRepo(dsn string) (*SQLRepo, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	r := &SQLRepo{db: db, dialect: dialectPostgres}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLRepo) Close() error {
	return r.db.Close()
}

func (r *SQLRepo) migrate() error {
	idCol := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if r.dialect == dialectPostgres {
		idCol = "id BIGSERIAL PRIMARY KEY"
	}

	schema := `
		CREATE TABLE IF NOT EXISTS transactions(
			` + idCol + `,
			reference TEXT NOT NULL UNIQUE,
			phone TEXT NOT NULL,
			amount BIGINT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			settled_at TEXT
		);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS idx_tx_phone ON transactions(phone)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_status ON transactions(status)`,
	} {
		if _, err := r.db.Exec(idx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind turns ? placeholders into $1..$n for Postgres.
func (r *SQLRepo) rebind(q string) string {
	if r.dialect != dialectPostgres {
		return q
	}

	var b strings.Builder
	n := 0
	for _, ch := range q {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

const selectCols = `
	SELECT
		id,
		reference,
		phone,
		amount,
		status,
		created_at,
		updated_at,
		settled_at
	FROM transactions
`

func (r *SQLRepo) Get(ctx context.Context, ref string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(selectCols+` WHERE reference = ?`), ref)
	t, err := scanTx(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// Upsert inserts t or overwrites the row with the same reference. The
// original id and created_at are kept.
func (r *SQLRepo) Upsert(ctx context.Context, t *domain.Transaction) error {
	q := `
		INSERT INTO transactions(
			reference,
			phone,
			amount,
			status,
			created_at,
			updated_at,
			settled_at
		)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(reference) DO UPDATE SET
			phone = excluded.phone,
			amount = excluded.amount,
			status = excluded.status,
			updated_at = excluded.updated_at,
			settled_at = excluded.settled_at
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, r.rebind(q), txArgs(t)...).Scan(&t.ID)
}

// UpdateStatus moves a PENDING row to status with a compare-and-set, so
// concurrent confirmations cannot both win.
func (r *SQLRepo) UpdateStatus(ctx context.Context, ref string, status domain.TxStatus, at time.Time) (*domain.Transaction, bool, error) {
	if !status.Valid() {
		return nil, false, domain.ErrInvalidTransition
	}
	if !status.Terminal() {
		cur, err := r.Get(ctx, ref)
		if err != nil {
			return nil, false, err
		}
		return cur, false, domain.CheckTransition(cur.Status, status)
	}

	q := `UPDATE transactions SET status = ?, updated_at = ?, settled_at = ? WHERE reference = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, r.rebind(q), string(status), formatTime(at), formatTime(at), ref, string(domain.StatusPending))
	if err != nil {
		return nil, false, err
	}
	aff, _ := res.RowsAffected()

	cur, err := r.Get(ctx, ref)
	if err != nil {
		return nil, false, err
	}
	if aff > 0 {
		return cur, true, nil
	}
	if err := domain.CheckTransition(cur.Status, status); err != nil {
		return cur, false, err
	}
	return cur, false, nil
}

func (r *SQLRepo) List(ctx context.Context, f TxFilter, limit, offset int) ([]domain.Transaction, error) {
	q := selectCols + ` WHERE 1 = 1`
	args := []any{}

	if f.Reference != "" {
		q += " AND reference = ?"
		args = append(args, f.Reference)
	}
	if f.Phone != "" {
		q += " AND phone = ?"
		args = append(args, f.Phone)
	}
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, string(f.Status))
	}

	q += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, r.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.Transaction{}
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}
	return res, rows.Err()
}

func txArgs(t *domain.Transaction) []any {
	var settled any
	if t.SettledAt != nil {
		settled = formatTime(*t.SettledAt)
	}
	return []any{
		t.Reference,
		t.Phone,
		t.Amount,
		string(t.Status),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
		settled,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func scanTx(scanner interface {
	Scan(dest ...any) error
}) (*domain.Transaction, error) {
	var t domain.Transaction
	var status string
	var createdStr, updatedStr string
	var settledStr *string

	if err := scanner.Scan(
		&t.ID,
		&t.Reference,
		&t.Phone,
		&t.Amount,
		&status,
		&createdStr,
		&updatedStr,
		&settledStr,
	); err != nil {
		return nil, err
	}

	t.Status = domain.TxStatus(status)

	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
		return nil, fmt.Errorf("parse created time: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedStr); err != nil {
		return nil, fmt.Errorf("parse updated time: %w", err)
	}
	if settledStr != nil {
		sd, err := time.Parse(time.RFC3339Nano, *settledStr)
		if err != nil {
			return nil, fmt.Errorf("parse settled time: %w", err)
		}
		t.SettledAt = &sd
	}

	return &t, nil
}
