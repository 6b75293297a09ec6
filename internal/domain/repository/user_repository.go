package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, onlyUnverified bool) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetVerified(ctx context.Context, id string) (*model.User, error)
	Delete(ctx context.Context, id string) (*model.User, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, email, hashed_password, name, role, is_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.Name,
		&user.Role, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, hashed_password, name, role, is_verified)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.HashedPassword, user.Name, user.Role, user.IsVerified)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("email already in use: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context, onlyUnverified bool) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if onlyUnverified {
		query += ` WHERE is_verified = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.List query: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("pgUserRepository.List scan: %w", err)
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.List rows.Err: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = $1, role = $2, is_verified = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, user.Name, user.Role, user.IsVerified, user.ID)
	if err != nil {
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgUserRepository) SetVerified(ctx context.Context, id string) (*model.User, error) {
	query := `UPDATE users SET is_verified = TRUE, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.SetVerified: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) (*model.User, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	return user, nil
}
