package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/userdir/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List returns a page of users in whatever order storage yields them.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]types.User, error) {
	const query = `
		SELECT id, name, email, phone, created_at, updated_at
		FROM users
		LIMIT $1 OFFSET $2`
	return r.queryUsers(ctx, "list users", query, limit, offset)
}

// ListAfter returns up to limit users with an id greater than afterID,
// ordered by id.
func (r *UserRepository) ListAfter(ctx context.Context, afterID, limit int) ([]types.User, error) {
	const query = `
		SELECT id, name, email, phone, created_at, updated_at
		FROM users
		WHERE id > $1
		ORDER BY id
		LIMIT $2`
	return r.queryUsers(ctx, "list users after", query, afterID, limit)
}

// Search matches term as a substring of name or email.
func (r *UserRepository) Search(ctx context.Context, term string, limit int) ([]types.User, error) {
	const query = `
		SELECT id, name, email, phone, created_at, updated_at
		FROM users
		WHERE name LIKE $1 OR email LIKE $1
		LIMIT $2`
	return r.queryUsers(ctx, "search users", query, "%"+term+"%", limit)
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT id, name, email, phone, created_at, updated_at
		FROM users
		WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.User{}, translate("get user", err)
	}
	return user, nil
}

// EmailTaken reports whether a user other than excludeID holds email.
// Pass 0 to check against every user.
func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var taken bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&taken); err != nil {
		return false, translate("check email", err)
	}
	return taken, nil
}

func (r *UserRepository) Create(ctx context.Context, in types.UserCreate) (types.User, error) {
	now := time.Now().UTC()
	user := types.User{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const query = `
		INSERT INTO users (name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Phone,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, translate("create user", err)
	}
	return user, nil
}

// Update applies the fields present in patch and refreshes updated_at.
func (r *UserRepository) Update(ctx context.Context, id int, patch types.UserPatch) (types.User, error) {
	const query = `
		UPDATE users
		SET name = COALESCE($1, name),
			email = COALESCE($2, email),
			phone = COALESCE($3, phone),
			updated_at = $4
		WHERE id = $5
		RETURNING id, name, email, phone, created_at, updated_at`
	user, err := scanUser(r.db.QueryRowContext(
		ctx,
		query,
		nullString(patch.Name),
		nullString(patch.Email),
		nullString(patch.Phone),
		time.Now().UTC(),
		id,
	))
	if err != nil {
		return types.User{}, translate("update user", err)
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return translate("delete user", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return translate("delete user", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping runs a trivial query to prove the database answers.
func (r *UserRepository) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return translate("ping", err)
	}
	return nil
}

func (r *UserRepository) queryUsers(ctx context.Context, op, query string, args ...any) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, translate(op, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

// translate maps driver errors onto the package sentinels and logs anything
// unexpected before handing it back.
func translate(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isUniqueViolation(err):
		log.WithField("op", op).WithError(err).Warn("unique constraint violated")
		return ErrConflict
	default:
		log.WithField("op", op).WithError(err).Error("database operation failed")
		return err
	}
}
