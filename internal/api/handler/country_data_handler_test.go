package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintech_index/internal/app/service"
	"fintech_index/internal/domain/model"
	"fintech_index/internal/domain/repository"
)

// stubCountryDataRepo satisfies the repository without a database; the
// import path only reaches InsertIgnoreConflicts.
type stubCountryDataRepo struct{}

func (stubCountryDataRepo) List(ctx context.Context, filter repository.CountryDataFilter) ([]model.CountryData, error) {
	return nil, nil
}
func (stubCountryDataRepo) Stats(ctx context.Context) (*model.CountryDataStats, error) {
	return &model.CountryDataStats{}, nil
}
func (stubCountryDataRepo) Years(ctx context.Context) ([]int, error)         { return nil, nil }
func (stubCountryDataRepo) Countries(ctx context.Context) ([]string, error)  { return nil, nil }
func (stubCountryDataRepo) Create(ctx context.Context, data *model.CountryData) error { return nil }
func (stubCountryDataRepo) Update(ctx context.Context, data *model.CountryData) error { return nil }
func (stubCountryDataRepo) FindByCodeYear(ctx context.Context, code string, year int) (*model.CountryData, error) {
	return nil, nil
}
func (stubCountryDataRepo) Delete(ctx context.Context, code string, year int) (*model.CountryData, error) {
	return nil, nil
}
func (stubCountryDataRepo) DeleteByYear(ctx context.Context, year int) (int64, error) { return 0, nil }
func (stubCountryDataRepo) DeleteByCountry(ctx context.Context, country string) (int64, error) {
	return 0, nil
}
func (stubCountryDataRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	return 0, nil
}
func (stubCountryDataRepo) DeleteAll(ctx context.Context) (int64, error) { return 0, nil }
func (stubCountryDataRepo) InsertIgnoreConflicts(ctx context.Context, rows []model.CountryData) (int64, error) {
	return int64(len(rows)), nil
}

func TestImportCSVFailureBodyKeepsRowErrors(t *testing.T) {
	dataService := service.NewCountryDataService(stubCountryDataRepo{}, nil, nil)
	h := NewCountryDataHandler(dataService)

	// Every row is invalid; the 400 body must still itemize them.
	csvBody := "name,literacyRate,digitalInfrastructure,investment\n" +
		",50,50,50\n" +
		"Kenya,150,50,50\n"
	req := httptest.NewRequest(http.MethodPost, "/import?year=2024", strings.NewReader(csvBody))
	rec := httptest.NewRecorder()

	h.importCSV(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Error     string   `json:"error"`
		RowErrors []string `json:"rowErrors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	if body.Error == "" {
		t.Fatal("error message missing from failure body")
	}
	if len(body.RowErrors) != 2 {
		t.Fatalf("rowErrors = %v, want both invalid rows itemized", body.RowErrors)
	}
	if !strings.HasPrefix(body.RowErrors[0], "row 1") || !strings.HasPrefix(body.RowErrors[1], "row 2") {
		t.Fatalf("rowErrors not keyed by row number: %v", body.RowErrors)
	}
}

func TestImportCSVPartialSuccessReportsRowErrors(t *testing.T) {
	dataService := service.NewCountryDataService(stubCountryDataRepo{}, nil, nil)
	h := NewCountryDataHandler(dataService)

	csvBody := "name,literacyRate,digitalInfrastructure,investment\n" +
		"Nigeria,62,78.5,85.2\n" +
		"Kenya,150,50,50\n"
	req := httptest.NewRequest(http.MethodPost, "/import?year=2024", strings.NewReader(csvBody))
	rec := httptest.NewRecorder()

	h.importCSV(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	var result service.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if result.InsertedCount != 1 || len(result.RowErrors) != 1 {
		t.Fatalf("result = %+v, want 1 inserted and 1 row error", result)
	}
}
