package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"
	"fintech_index/internal/domain/repository"
	"fintech_index/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MaxListRows caps the list endpoint; there is no pagination cursor.
const MaxListRows = 1000

type CountryDataService struct {
	dataRepo  repository.CountryDataRepository
	rdb       *redis.Client    // stats cache; nil disables caching
	snapshots *SnapshotService // dataset snapshot; nil disables snapshots
}

func NewCountryDataService(dataRepo repository.CountryDataRepository, rdb *redis.Client, snapshots *SnapshotService) *CountryDataService {
	return &CountryDataService{dataRepo: dataRepo, rdb: rdb, snapshots: snapshots}
}

// CountryDataRequest is the JSON body for create/update/bulk. The wire name
// of the country code is "id", matching the dashboard's dataset shape.
type CountryDataRequest struct {
	CountryCode           string   `json:"id"`
	Name                  string   `json:"name"`
	LiteracyRate          float64  `json:"literacyRate"`
	DigitalInfrastructure float64  `json:"digitalInfrastructure"`
	Investment            float64  `json:"investment"`
	FinalScore            float64  `json:"finalScore"`
	Year                  int      `json:"year"`
	Population            *int64   `json:"population,omitempty"`
	GDP                   *float64 `json:"gdp,omitempty"`
	FintechCompanies      *int     `json:"fintechCompanies,omitempty"`
}

func (req *CountryDataRequest) validate() error {
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", common.ErrValidation)
	}
	if req.Year == 0 {
		return fmt.Errorf("year is required: %w", common.ErrValidation)
	}
	for field, v := range map[string]float64{
		"literacyRate":          req.LiteracyRate,
		"digitalInfrastructure": req.DigitalInfrastructure,
		"investment":            req.Investment,
		"finalScore":            req.FinalScore,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be between 0 and 100: %w", field, common.ErrValidation)
		}
	}
	return nil
}

// toModel builds the record. The caller-supplied finalScore is range-checked
// but not recomputed server-side.
func (req *CountryDataRequest) toModel(actor string) *model.CountryData {
	code := strings.ToUpper(req.CountryCode)
	if code == "" {
		code = deriveCountryCode(req.Name)
	}
	return &model.CountryData{
		ID:                    uuid.NewString(),
		CountryCode:           code,
		Name:                  strings.TrimSpace(req.Name),
		LiteracyRate:          req.LiteracyRate,
		DigitalInfrastructure: req.DigitalInfrastructure,
		Investment:            req.Investment,
		FinalScore:            req.FinalScore,
		Year:                  req.Year,
		Population:            req.Population,
		GDP:                   req.GDP,
		FintechCompanies:      req.FintechCompanies,
		CreatedBy:             &actor,
		UpdatedBy:             &actor,
	}
}

// deriveCountryCode mirrors the upload fallback: first two letters of the
// country name, uppercased.
func deriveCountryCode(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) < 2 {
		return strings.ToUpper(string(runes))
	}
	return strings.ToUpper(string(runes[:2]))
}

func (s *CountryDataService) List(ctx context.Context, filter repository.CountryDataFilter) ([]model.CountryData, error) {
	if filter.Limit <= 0 || filter.Limit > MaxListRows {
		filter.Limit = MaxListRows
	}
	return s.dataRepo.List(ctx, filter)
}

func (s *CountryDataService) Stats(ctx context.Context) (*model.CountryDataStats, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, config.AppConfig.StatsCacheKey).Bytes()
		if err == nil {
			stats := &model.CountryDataStats{}
			if err := json.Unmarshal(raw, stats); err == nil {
				return stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("WARN: stats cache read failed: %v", err)
		}
	}

	stats, err := s.dataRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(stats); err == nil {
			ttl := time.Duration(config.AppConfig.StatsCacheTTLSeconds) * time.Second
			if err := s.rdb.Set(ctx, config.AppConfig.StatsCacheKey, raw, ttl).Err(); err != nil {
				log.Printf("WARN: stats cache write failed: %v", err)
			}
		}
	}
	return stats, nil
}

func (s *CountryDataService) Years(ctx context.Context) ([]int, error) {
	return s.dataRepo.Years(ctx)
}

func (s *CountryDataService) Countries(ctx context.Context) ([]string, error) {
	return s.dataRepo.Countries(ctx)
}

func (s *CountryDataService) Create(ctx context.Context, req CountryDataRequest, actor string) (*model.CountryData, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	cd := req.toModel(actor)
	if err := s.dataRepo.Create(ctx, cd); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor)
	return cd, nil
}

func (s *CountryDataService) Update(ctx context.Context, code string, year int, req CountryDataRequest, actor string) (*model.CountryData, error) {
	// The path carries the key, so a body without year is still complete.
	if req.Year == 0 {
		req.Year = year
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	cd := req.toModel(actor)
	cd.CountryCode = strings.ToUpper(code)
	cd.Year = year
	if err := s.dataRepo.Update(ctx, cd); err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor)
	return s.dataRepo.FindByCodeYear(ctx, cd.CountryCode, year)
}

func (s *CountryDataService) Delete(ctx context.Context, code string, year int, actor string) (*model.CountryData, error) {
	cd, err := s.dataRepo.Delete(ctx, strings.ToUpper(code), year)
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, actor)
	return cd, nil
}

func (s *CountryDataService) DeleteByYear(ctx context.Context, year int, actor string) (int64, error) {
	count, err := s.dataRepo.DeleteByYear(ctx, year)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("no data found for the specified year: %w", common.ErrNotFound)
	}
	s.afterMutation(ctx, actor)
	return count, nil
}

func (s *CountryDataService) DeleteByCountry(ctx context.Context, country string, actor string) (int64, error) {
	if country == "" {
		return 0, common.ErrBadRequest
	}
	count, err := s.dataRepo.DeleteByCountry(ctx, country)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("no data found for the specified country: %w", common.ErrNotFound)
	}
	s.afterMutation(ctx, actor)
	return count, nil
}

func (s *CountryDataService) DeleteSelective(ctx context.Context, ids []string, actor string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("ids array is required and must not be empty: %w", common.ErrBadRequest)
	}
	count, err := s.dataRepo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("no records found with the provided ids: %w", common.ErrNotFound)
	}
	s.afterMutation(ctx, actor)
	return count, nil
}

func (s *CountryDataService) DeleteAll(ctx context.Context, actor string) (int64, error) {
	count, err := s.dataRepo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.invalidateStatsCache(ctx)
	if s.snapshots != nil {
		if err := s.snapshots.Clear(ctx); err != nil {
			log.Printf("WARN: failed to clear dataset snapshot: %v", err)
		}
	}
	return count, nil
}

type BulkInsertResult struct {
	InsertedCount int64 `json:"insertedCount"`
	SkippedCount  int64 `json:"skippedCount"`
}

// BulkInsert validates every row up front, then performs an unordered
// insert: duplicate (code, year) rows are skipped, the rest still land.
func (s *CountryDataService) BulkInsert(ctx context.Context, reqs []CountryDataRequest, actor string) (*BulkInsertResult, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("data array is required and must not be empty: %w", common.ErrBadRequest)
	}

	rows := make([]model.CountryData, 0, len(reqs))
	for i := range reqs {
		if err := reqs[i].validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, *reqs[i].toModel(actor))
	}

	inserted, err := s.dataRepo.InsertIgnoreConflicts(ctx, rows)
	if err != nil {
		// Earlier rows are already in; report what landed.
		return &BulkInsertResult{InsertedCount: inserted, SkippedCount: int64(len(rows)) - inserted}, err
	}
	s.afterMutation(ctx, actor)
	return &BulkInsertResult{InsertedCount: inserted, SkippedCount: int64(len(rows)) - inserted}, nil
}

func (s *CountryDataService) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s.snapshots == nil {
		return nil, common.ErrNotFound
	}
	return s.snapshots.Load(ctx)
}

func (s *CountryDataService) invalidateStatsCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, config.AppConfig.StatsCacheKey).Err(); err != nil {
		log.Printf("WARN: failed to invalidate stats cache: %v", err)
	}
}

// afterMutation keeps the derived views in step with the primary store:
// the stats cache is dropped and the dataset snapshot rewritten. Both are
// best-effort; a failure is logged, never propagated.
func (s *CountryDataService) afterMutation(ctx context.Context, actor string) {
	s.invalidateStatsCache(ctx)
	if s.snapshots == nil {
		return
	}
	data, err := s.dataRepo.List(ctx, repository.CountryDataFilter{Limit: MaxListRows})
	if err != nil {
		log.Printf("WARN: failed to read dataset for snapshot: %v", err)
		return
	}
	if err := s.snapshots.Save(ctx, data, actor); err != nil {
		log.Printf("WARN: failed to write dataset snapshot: %v", err)
	}
}
