package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// CountryDataFilter carries the optional list filters. Nil/zero fields are
// unset. Limit is capped by the service at 1000 rows (single-page semantics,
// no pagination cursor).
type CountryDataFilter struct {
	Year    *int
	Country string // case-insensitive substring on name or code
	Limit   int
	Sort    string // "score", "name" or "" for the default year desc / name asc
}

type CountryDataRepository interface {
	List(ctx context.Context, filter CountryDataFilter) ([]model.CountryData, error)
	Stats(ctx context.Context) (*model.CountryDataStats, error)
	Years(ctx context.Context) ([]int, error)
	Countries(ctx context.Context) ([]string, error)

	Create(ctx context.Context, data *model.CountryData) error
	Update(ctx context.Context, data *model.CountryData) error
	FindByCodeYear(ctx context.Context, code string, year int) (*model.CountryData, error)

	Delete(ctx context.Context, code string, year int) (*model.CountryData, error)
	DeleteByYear(ctx context.Context, year int) (int64, error)
	DeleteByCountry(ctx context.Context, country string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)

	// InsertIgnoreConflicts performs an unordered bulk insert: rows whose
	// (country_code, year) pair already exists are skipped, the rest land.
	InsertIgnoreConflicts(ctx context.Context, rows []model.CountryData) (int64, error)
}

type pgCountryDataRepository struct {
	db *sql.DB
}

func NewPgCountryDataRepository(db *sql.DB) CountryDataRepository {
	return &pgCountryDataRepository{db: db}
}

const countryDataColumns = `id, country_code, name, literacy_rate, digital_infrastructure, investment,
	final_score, year, population, gdp, fintech_companies, created_by, updated_by, created_at, updated_at`

func scanCountryData(row interface{ Scan(...interface{}) error }) (*model.CountryData, error) {
	cd := &model.CountryData{}
	var population sql.NullInt64
	var gdp sql.NullFloat64
	var fintechCompanies sql.NullInt64
	var createdBy, updatedBy sql.NullString

	err := row.Scan(
		&cd.ID, &cd.CountryCode, &cd.Name, &cd.LiteracyRate, &cd.DigitalInfrastructure, &cd.Investment,
		&cd.FinalScore, &cd.Year, &population, &gdp, &fintechCompanies, &createdBy, &updatedBy,
		&cd.CreatedAt, &cd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if population.Valid {
		cd.Population = &population.Int64
	}
	if gdp.Valid {
		cd.GDP = &gdp.Float64
	}
	if fintechCompanies.Valid {
		n := int(fintechCompanies.Int64)
		cd.FintechCompanies = &n
	}
	if createdBy.Valid {
		cd.CreatedBy = &createdBy.String
	}
	if updatedBy.Valid {
		cd.UpdatedBy = &updatedBy.String
	}
	return cd, nil
}

func (r *pgCountryDataRepository) List(ctx context.Context, filter CountryDataFilter) ([]model.CountryData, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + countryDataColumns + ` FROM country_data`)

	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", argID))
		args = append(args, *filter.Year)
		argID++
	}
	if filter.Country != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR country_code ILIKE $%d)", argID, argID+1))
		likeTerm := "%" + filter.Country + "%"
		args = append(args, likeTerm, likeTerm)
		argID += 2
	}
	if len(conditions) > 0 {
		query.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	switch filter.Sort {
	case "score":
		query.WriteString(" ORDER BY final_score DESC, year DESC")
	case "name":
		query.WriteString(" ORDER BY name ASC, year DESC")
	default:
		query.WriteString(" ORDER BY year DESC, name ASC")
	}

	query.WriteString(fmt.Sprintf(" LIMIT $%d", argID))
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgCountryDataRepository.List query: %w", err)
	}
	defer rows.Close()

	records := []model.CountryData{}
	for rows.Next() {
		cd, err := scanCountryData(rows)
		if err != nil {
			return nil, fmt.Errorf("pgCountryDataRepository.List scan: %w", err)
		}
		records = append(records, *cd)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCountryDataRepository.List rows.Err: %w", err)
	}
	return records, nil
}

func (r *pgCountryDataRepository) Stats(ctx context.Context) (*model.CountryDataStats, error) {
	query := `SELECT COUNT(*), COUNT(DISTINCT country_code),
	                 COALESCE(AVG(final_score), 0), COALESCE(MIN(final_score), 0), COALESCE(MAX(final_score), 0)
	          FROM country_data`

	stats := &model.CountryDataStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalRecords, &stats.UniqueCountries, &stats.AverageScore, &stats.MinScore, &stats.MaxScore,
	)
	if err != nil {
		return nil, fmt.Errorf("pgCountryDataRepository.Stats: %w", err)
	}
	stats.AverageScore = model.Round2(stats.AverageScore)

	years, err := r.Years(ctx)
	if err != nil {
		return nil, err
	}
	stats.Years = years
	return stats, nil
}

func (r *pgCountryDataRepository) Years(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT year FROM country_data ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgCountryDataRepository.Years query: %w", err)
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("pgCountryDataRepository.Years scan: %w", err)
		}
		years = append(years, y)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCountryDataRepository.Years rows.Err: %w", err)
	}
	return years, nil
}

func (r *pgCountryDataRepository) Countries(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT name FROM country_data WHERE name <> '' ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("pgCountryDataRepository.Countries query: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("pgCountryDataRepository.Countries scan: %w", err)
		}
		names = append(names, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgCountryDataRepository.Countries rows.Err: %w", err)
	}
	return names, nil
}

func (r *pgCountryDataRepository) Create(ctx context.Context, cd *model.CountryData) error {
	query := `INSERT INTO country_data (id, country_code, name, literacy_rate, digital_infrastructure, investment,
	              final_score, year, population, gdp, fintech_companies, created_by, updated_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, query,
		cd.ID, cd.CountryCode, cd.Name, cd.LiteracyRate, cd.DigitalInfrastructure, cd.Investment,
		cd.FinalScore, cd.Year, cd.Population, cd.GDP, cd.FintechCompanies, cd.CreatedBy, cd.UpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // (country_code, year) unique
			return fmt.Errorf("data for this country and year already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgCountryDataRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCountryDataRepository) Update(ctx context.Context, cd *model.CountryData) error {
	query := `UPDATE country_data SET
	              name = $1, literacy_rate = $2, digital_infrastructure = $3, investment = $4,
	              final_score = $5, population = $6, gdp = $7, fintech_companies = $8,
	              updated_by = $9, updated_at = CURRENT_TIMESTAMP
	          WHERE country_code = $10 AND year = $11`
	res, err := r.db.ExecContext(ctx, query,
		cd.Name, cd.LiteracyRate, cd.DigitalInfrastructure, cd.Investment,
		cd.FinalScore, cd.Population, cd.GDP, cd.FintechCompanies,
		cd.UpdatedBy, cd.CountryCode, cd.Year,
	)
	if err != nil {
		return fmt.Errorf("pgCountryDataRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCountryDataRepository) FindByCodeYear(ctx context.Context, code string, year int) (*model.CountryData, error) {
	query := `SELECT ` + countryDataColumns + ` FROM country_data WHERE country_code = $1 AND year = $2`
	cd, err := scanCountryData(r.db.QueryRowContext(ctx, query, code, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCountryDataRepository.FindByCodeYear: %w", err)
	}
	return cd, nil
}

func (r *pgCountryDataRepository) Delete(ctx context.Context, code string, year int) (*model.CountryData, error) {
	query := `DELETE FROM country_data WHERE country_code = $1 AND year = $2 RETURNING ` + countryDataColumns
	cd, err := scanCountryData(r.db.QueryRowContext(ctx, query, code, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCountryDataRepository.Delete: %w", err)
	}
	return cd, nil
}

func (r *pgCountryDataRepository) DeleteByYear(ctx context.Context, year int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM country_data WHERE year = $1`, year)
	if err != nil {
		return 0, fmt.Errorf("pgCountryDataRepository.DeleteByYear: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgCountryDataRepository) DeleteByCountry(ctx context.Context, country string) (int64, error) {
	likeTerm := "%" + country + "%"
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM country_data WHERE name ILIKE $1 OR country_code ILIKE $2`, likeTerm, likeTerm)
	if err != nil {
		return 0, fmt.Errorf("pgCountryDataRepository.DeleteByCountry: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgCountryDataRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`DELETE FROM country_data WHERE id IN (%s)`, strings.Join(placeholders, ","))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("pgCountryDataRepository.DeleteByIDs: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgCountryDataRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM country_data`)
	if err != nil {
		return 0, fmt.Errorf("pgCountryDataRepository.DeleteAll: %w", err)
	}
	return res.RowsAffected()
}

// InsertIgnoreConflicts inserts rows one by one without a wrapping
// transaction. A failure mid-batch leaves earlier rows in place, matching
// the unordered bulk-insert semantics of the HTTP API.
func (r *pgCountryDataRepository) InsertIgnoreConflicts(ctx context.Context, rows []model.CountryData) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmt, err := r.db.PrepareContext(ctx, `INSERT INTO country_data
	        (id, country_code, name, literacy_rate, digital_infrastructure, investment,
	         final_score, year, population, gdp, fintech_companies, created_by, updated_by)
	        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	        ON CONFLICT (country_code, year) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("pgCountryDataRepository.InsertIgnoreConflicts prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, cd := range rows {
		res, err := stmt.ExecContext(ctx,
			cd.ID, cd.CountryCode, cd.Name, cd.LiteracyRate, cd.DigitalInfrastructure, cd.Investment,
			cd.FinalScore, cd.Year, cd.Population, cd.GDP, cd.FintechCompanies, cd.CreatedBy, cd.UpdatedBy,
		)
		if err != nil {
			return inserted, fmt.Errorf("pgCountryDataRepository.InsertIgnoreConflicts exec for %s/%d: %w", cd.CountryCode, cd.Year, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	return inserted, nil
}
