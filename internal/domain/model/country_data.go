package model

import (
	"math"
	"time"
)

// CountryData is one country's index record for a given year. At most one
// record may exist per (CountryCode, Year) pair.
type CountryData struct {
	ID                    string    `json:"recordId"`
	CountryCode           string    `json:"id"` // ISO_A2 code, e.g. "NG", "ZA"
	Name                  string    `json:"name"`
	LiteracyRate          float64   `json:"literacyRate"`
	DigitalInfrastructure float64   `json:"digitalInfrastructure"`
	Investment            float64   `json:"investment"`
	FinalScore            float64   `json:"finalScore"`
	Year                  int       `json:"year"`
	Population            *int64    `json:"population,omitempty"`
	GDP                   *float64  `json:"gdp,omitempty"`
	FintechCompanies      *int      `json:"fintechCompanies,omitempty"`
	CreatedBy             *string   `json:"createdBy,omitempty"`
	UpdatedBy             *string   `json:"updatedBy,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// ComputeFinalScore is the composite index: an unweighted mean of the three
// component scores, rounded to two decimals.
func ComputeFinalScore(literacy, digital, investment float64) float64 {
	return Round2((literacy + digital + investment) / 3)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CountryDataStats is the aggregate view served by the stats endpoint.
type CountryDataStats struct {
	TotalRecords    int     `json:"totalRecords"`
	UniqueCountries int     `json:"uniqueCountries"`
	Years           []int   `json:"years"` // descending
	AverageScore    float64 `json:"averageScore"`
	MinScore        float64 `json:"minScore"`
	MaxScore        float64 `json:"maxScore"`
}
