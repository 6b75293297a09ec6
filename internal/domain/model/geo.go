package model

// ScoreLevel classifies a country's final score into the bands shared by
// the map and the analytics views.
type ScoreLevel string

const (
	LevelHigh    ScoreLevel = "high"     // 80+
	LevelMedium  ScoreLevel = "medium"   // 60-79
	LevelLow     ScoreLevel = "low"      // 40-59
	LevelVeryLow ScoreLevel = "very-low" // <40
	LevelNoData  ScoreLevel = "no-data"
)

var levelColors = map[ScoreLevel]string{
	LevelHigh:    "#10B981",
	LevelMedium:  "#F59E0B",
	LevelLow:     "#EF4444",
	LevelVeryLow: "#6B7280",
	LevelNoData:  "#E5E7EB",
}

// LevelForScore is the single source of the score thresholds.
func LevelForScore(score float64) ScoreLevel {
	switch {
	case score >= 80:
		return LevelHigh
	case score >= 60:
		return LevelMedium
	case score >= 40:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

func ColorForLevel(level ScoreLevel) string {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return levelColors[LevelNoData]
}

// ClassifyCountry maps a (possibly absent) record to its level and color.
func ClassifyCountry(data *CountryData) (ScoreLevel, string) {
	if data == nil {
		return LevelNoData, ColorForLevel(LevelNoData)
	}
	level := LevelForScore(data.FinalScore)
	return level, ColorForLevel(level)
}

// BoundarySource tells the caller whether the served boundaries came from
// the configured GeoJSON file or from the embedded simplified fallback.
type BoundarySource string

const (
	SourceLoaded   BoundarySource = "loaded"
	SourceFallback BoundarySource = "fallback"
)

// MapCountry is one joined entry of the geo-match pipeline: a boundary
// feature with its country record (when one exists) rendered to an SVG path.
type MapCountry struct {
	ISOCode string       `json:"isoCode"`
	Name    string       `json:"name"`
	Path    string       `json:"path"`
	Level   ScoreLevel   `json:"level"`
	Color   string       `json:"color"`
	Data    *CountryData `json:"data,omitempty"`
}

type MapView struct {
	Year      int            `json:"year"`
	Source    BoundarySource `json:"source"`
	Countries []MapCountry   `json:"countries"`
}
