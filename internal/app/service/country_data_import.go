package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fintech_index/internal/common"
	"fintech_index/internal/domain/model"
)

// ImportResult itemizes per-row validation failures; valid rows go through
// the unordered bulk insert, so duplicates are counted as skipped.
type ImportResult struct {
	InsertedCount int64    `json:"insertedCount"`
	SkippedCount  int64    `json:"skippedCount"`
	RowErrors     []string `json:"rowErrors,omitempty"`
}

var importRequiredColumns = []string{"name", "literacyRate", "digitalInfrastructure", "investment"}

// ImportCSV parses an uploaded dataset. Required columns: name,
// literacyRate, digitalInfrastructure, investment (each score 0-100). The
// year column is optional (2000-2030) and defaults to defaultYear; the
// country code defaults to the first two letters of the name. finalScore is
// always computed as the unweighted mean of the three components.
func (s *CountryDataService) ImportCSV(ctx context.Context, r io.Reader, defaultYear int, actor string) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Ragged rows are itemized per row, not fatal for the file.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("file is empty or has no header row: %w", common.ErrBadRequest)
	}

	colIndex := map[string]int{}
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}
	for _, col := range importRequiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column %q: %w", col, common.ErrBadRequest)
		}
	}

	field := func(record []string, name string) string {
		i, ok := colIndex[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []model.CountryData
	var rowErrors []string
	rowNumber := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed CSV: %w", common.ErrBadRequest)
		}
		rowNumber++

		name := field(record, "name")
		if name == "" {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: missing required field name", rowNumber))
			continue
		}

		scores := map[string]float64{}
		invalid := false
		for _, col := range []string{"literacyRate", "digitalInfrastructure", "investment"} {
			v, err := strconv.ParseFloat(field(record, col), 64)
			if err != nil || v < 0 || v > 100 {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d: invalid numeric value for %s (must be 0-100)", rowNumber, col))
				invalid = true
				break
			}
			scores[col] = v
		}
		if invalid {
			continue
		}

		year := defaultYear
		if raw := field(record, "year"); raw != "" {
			y, err := strconv.Atoi(raw)
			if err != nil || y < 2000 || y > 2030 {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d: invalid year (must be between 2000-2030)", rowNumber))
				continue
			}
			year = y
		}

		code := strings.ToUpper(field(record, "id"))
		if code == "" {
			code = deriveCountryCode(name)
		}

		cd := model.CountryData{
			CountryCode:           code,
			Name:                  name,
			LiteracyRate:          scores["literacyRate"],
			DigitalInfrastructure: scores["digitalInfrastructure"],
			Investment:            scores["investment"],
			FinalScore:            model.ComputeFinalScore(scores["literacyRate"], scores["digitalInfrastructure"], scores["investment"]),
			Year:                  year,
			CreatedBy:             &actor,
			UpdatedBy:             &actor,
		}

		if raw := field(record, "population"); raw != "" {
			if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
				cd.Population = &v
			}
		}
		if raw := field(record, "gdp"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				cd.GDP = &v
			}
		}
		if raw := field(record, "fintechCompanies"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d: invalid fintech companies count (must be a positive number)", rowNumber))
				continue
			}
			cd.FintechCompanies = &v
		}

		rows = append(rows, cd)
	}

	if rowNumber == 0 {
		return nil, fmt.Errorf("file is empty or has no valid data rows: %w", common.ErrBadRequest)
	}
	if len(rows) == 0 {
		return &ImportResult{RowErrors: rowErrors}, fmt.Errorf("no valid rows in file: %w", common.ErrValidation)
	}

	reqs := make([]CountryDataRequest, len(rows))
	for i, cd := range rows {
		reqs[i] = CountryDataRequest{
			CountryCode:           cd.CountryCode,
			Name:                  cd.Name,
			LiteracyRate:          cd.LiteracyRate,
			DigitalInfrastructure: cd.DigitalInfrastructure,
			Investment:            cd.Investment,
			FinalScore:            cd.FinalScore,
			Year:                  cd.Year,
			Population:            cd.Population,
			GDP:                   cd.GDP,
			FintechCompanies:      cd.FintechCompanies,
		}
	}
	result, err := s.BulkInsert(ctx, reqs, actor)
	if err != nil {
		return nil, err
	}
	return &ImportResult{
		InsertedCount: result.InsertedCount,
		SkippedCount:  result.SkippedCount,
		RowErrors:     rowErrors,
	}, nil
}
