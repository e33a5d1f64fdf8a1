package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

const uniqueViolation = "23505"

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// ---------- helpers ----------

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate")
}

func (r *AccountRepo) getOne(ctx context.Context, q string, arg any) (domain.Account, error) {
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrUserNotFound()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

// ---------- auth.AccountRepo ----------

func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.Email = domain.NormalizeEmail(a.Email)
	if a.Email == "" {
		return domain.Account{}, domain.ErrMissingField("email")
	}
	if a.PasswordHash == "" {
		return domain.Account{}, domain.ErrMissingField("password_hash")
	}
	if a.Username == "" {
		a.Username = a.Email
	}
	if a.DateJoined.IsZero() {
		a.DateJoined = time.Now().UTC()
	}

	const q = `
INSERT INTO accounts (email, username, password_hash, first_name, last_name, is_active, role, date_joined)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING ` + accountColumns + `;
`
	ar, err := scanAccountRow(r.db.QueryRowContext(ctx, q,
		a.Email, a.Username, a.PasswordHash, a.FirstName, a.LastName, a.IsActive, roleToDB(a.Role), a.DateJoined,
	))
	if err != nil {
		if isDuplicate(err) {
			return domain.Account{}, domain.ErrEmailAlreadyExists()
		}
		return domain.Account{}, domain.ErrDBUnavailable(err)
	}
	return toDomainAccount(ar), nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	if id <= 0 {
		return domain.Account{}, domain.ErrUserNotFound()
	}
	const q = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
LIMIT 1;
`
	return r.getOne(ctx, q, id)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Account{}, domain.ErrUserNotFound()
	}
	const q = `
SELECT ` + accountColumns + `
FROM accounts
WHERE email = $1
LIMIT 1;
`
	return r.getOne(ctx, q, email)
}

// Update writes only the fields set in the patch, as one statement.
func (r *AccountRepo) Update(ctx context.Context, id int64, patch domain.AccountPatch) error {
	if patch.Empty() {
		_, err := r.GetByID(ctx, id)
		return err
	}
	if id <= 0 {
		return domain.ErrUserNotFound()
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Role != nil {
		set("role", roleToDB(*patch.Role))
	}
	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}
	if patch.IsActive != nil {
		set("is_active", *patch.IsActive)
	}
	if patch.LastLogin != nil {
		set("last_login", patch.LastLogin.UTC())
	}
	args = append(args, id)

	q := fmt.Sprintf("UPDATE accounts SET %s WHERE id = $%d;", strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

func (r *AccountRepo) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrUserNotFound()
	}
	const q = `DELETE FROM accounts WHERE id = $1;`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

func (r *AccountRepo) ListExcluding(ctx context.Context, id int64) ([]domain.Account, error) {
	const q = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id <> $1
ORDER BY email ASC;
`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.Account, 0, 16)
	for rows.Next() {
		ar, err := scanAccountRow(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, toDomainAccount(ar))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

// Ping is used by the readiness probe.
func (r *AccountRepo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
