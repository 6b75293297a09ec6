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

type StartupRepository interface {
	Create(ctx context.Context, startup *model.Startup) error
	List(ctx context.Context) ([]model.Startup, error)
	FindBySlug(ctx context.Context, slug string) (*model.Startup, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type pgStartupRepository struct {
	db *sql.DB
}

func NewPgStartupRepository(db *sql.DB) StartupRepository {
	return &pgStartupRepository{db: db}
}

const startupColumns = `id, slug, name, country, sector, founded_year, description, website, added_by, added_at`

func scanStartup(row interface{ Scan(...interface{}) error }) (*model.Startup, error) {
	s := &model.Startup{}
	var description, website sql.NullString
	err := row.Scan(
		&s.ID, &s.Slug, &s.Name, &s.Country, &s.Sector, &s.FoundedYear,
		&description, &website, &s.AddedBy, &s.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		s.Description = &description.String
	}
	if website.Valid {
		s.Website = &website.String
	}
	return s, nil
}

func (r *pgStartupRepository) Create(ctx context.Context, s *model.Startup) error {
	query := `INSERT INTO startups (id, slug, name, country, sector, founded_year, description, website, added_by, added_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Slug, s.Name, s.Country, s.Sector, s.FoundedYear, s.Description, s.Website, s.AddedBy, s.AddedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // slug unique
			return fmt.Errorf("startup with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgStartupRepository.Create: %w", err)
	}
	return nil
}

func (r *pgStartupRepository) List(ctx context.Context) ([]model.Startup, error) {
	query := `SELECT ` + startupColumns + ` FROM startups ORDER BY added_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgStartupRepository.List query: %w", err)
	}
	defer rows.Close()

	startups := []model.Startup{}
	for rows.Next() {
		s, err := scanStartup(rows)
		if err != nil {
			return nil, fmt.Errorf("pgStartupRepository.List scan: %w", err)
		}
		startups = append(startups, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgStartupRepository.List rows.Err: %w", err)
	}
	return startups, nil
}

func (r *pgStartupRepository) FindBySlug(ctx context.Context, slug string) (*model.Startup, error) {
	query := `SELECT ` + startupColumns + ` FROM startups WHERE slug = $1`
	s, err := scanStartup(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgStartupRepository.FindBySlug: %w", err)
	}
	return s, nil
}

func (r *pgStartupRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM startups WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgStartupRepository.SlugExists: %w", err)
	}
	return exists, nil
}
