package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"fintech_index/internal/domain/model"
	"fintech_index/internal/domain/repository"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// africanCountries is the ISO_A2 allow-list used to filter boundary
// features down to the continent.
var africanCountries = map[string]bool{
	"DZ": true, "AO": true, "BJ": true, "BW": true, "BF": true, "BI": true, "CM": true,
	"CV": true, "CF": true, "TD": true, "KM": true, "CG": true, "CD": true, "DJ": true,
	"EG": true, "GQ": true, "ER": true, "ET": true, "GA": true, "GM": true, "GH": true,
	"GN": true, "GW": true, "CI": true, "KE": true, "LS": true, "LR": true, "LY": true,
	"MG": true, "MW": true, "ML": true, "MR": true, "MU": true, "MA": true, "MZ": true,
	"NA": true, "NE": true, "NG": true, "RW": true, "ST": true, "SN": true, "SC": true,
	"SL": true, "SO": true, "ZA": true, "SS": true, "SD": true, "SZ": true, "TZ": true,
	"TG": true, "TN": true, "UG": true, "ZM": true, "ZW": true,
}

// Fixed Mercator transform matching the dashboard's SVG viewport.
const (
	projCenterLon  = 20.0
	projScale      = 500.0
	projTranslateX = 450.0
	projTranslateY = 350.0
)

type GeoService struct {
	dataRepo    repository.CountryDataRepository
	geojsonPath string
}

func NewGeoService(dataRepo repository.CountryDataRepository, geojsonPath string) *GeoService {
	return &GeoService{dataRepo: dataRepo, geojsonPath: geojsonPath}
}

// LoadBoundaries reads and filters the configured GeoJSON file. On any
// read or parse failure it returns the embedded simplified fallback set
// together with the cause, so the caller can tell why it degraded instead
// of silently getting mock data.
func (s *GeoService) LoadBoundaries() (*geojson.FeatureCollection, model.BoundarySource, error) {
	if s.geojsonPath == "" {
		return simplifiedAfricanBoundaries(), model.SourceFallback, nil
	}

	raw, err := os.ReadFile(s.geojsonPath)
	if err != nil {
		return simplifiedAfricanBoundaries(), model.SourceFallback, fmt.Errorf("failed to read GeoJSON %s: %w", s.geojsonPath, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return simplifiedAfricanBoundaries(), model.SourceFallback, fmt.Errorf("failed to parse GeoJSON %s: %w", s.geojsonPath, err)
	}

	return FilterAfricanFeatures(fc), model.SourceLoaded, nil
}

// FilterAfricanFeatures retains only features whose ISO_A2 code is on the
// African allow-list.
func FilterAfricanFeatures(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	filtered := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if africanCountries[isoCode(f)] {
			filtered.Append(f)
		}
	}
	if len(filtered.Features) != len(fc.Features) {
		log.Printf("WARN: %d non-African features were filtered out of the boundary file",
			len(fc.Features)-len(filtered.Features))
	}
	return filtered
}

// BuildMap joins boundary features to the given year's records by ISO code
// and renders each country to an SVG path with its score-band color.
// Countries without a record keep nil data and the no-data fill.
func (s *GeoService) BuildMap(ctx context.Context, year int) (*model.MapView, error) {
	boundaries, source, loadErr := s.LoadBoundaries()
	if loadErr != nil {
		log.Printf("WARN: using simplified fallback boundaries: %v", loadErr)
	}

	records, err := s.dataRepo.List(ctx, repository.CountryDataFilter{Year: &year, Limit: MaxListRows})
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*model.CountryData, len(records))
	for i := range records {
		byCode[records[i].CountryCode] = &records[i]
	}

	view := &model.MapView{
		Year:      year,
		Source:    source,
		Countries: make([]model.MapCountry, 0, len(boundaries.Features)),
	}
	// Fallback coordinates are already in SVG space; only real boundary
	// data goes through the Mercator transform.
	project := source == model.SourceLoaded

	for _, f := range boundaries.Features {
		iso := isoCode(f)
		data := byCode[iso]
		level, color := model.ClassifyCountry(data)
		view.Countries = append(view.Countries, model.MapCountry{
			ISOCode: iso,
			Name:    adminName(f),
			Path:    GeometryToPath(f.Geometry, project),
			Level:   level,
			Color:   color,
			Data:    data,
		})
	}
	return view, nil
}

func isoCode(f *geojson.Feature) string {
	return f.Properties.MustString("ISO_A2", "")
}

func adminName(f *geojson.Feature) string {
	return f.Properties.MustString("ADMIN", "")
}

// ProjectPoint applies the fixed Mercator transform (centered on Africa)
// used throughout the dashboard's map rendering.
func ProjectPoint(p orb.Point) (float64, float64) {
	lonRad := p[0] * math.Pi / 180
	latRad := p[1] * math.Pi / 180
	centerRad := projCenterLon * math.Pi / 180

	x := projTranslateX + projScale*(lonRad-centerRad)
	y := projTranslateY - projScale*math.Log(math.Tan(math.Pi/4+latRad/2))
	return x, y
}

// GeometryToPath flattens a polygon or multipolygon into SVG path syntax.
// Multipolygons become concatenated sub-paths.
func GeometryToPath(geom orb.Geometry, project bool) string {
	switch g := geom.(type) {
	case orb.Polygon:
		return polygonToPath(g, project)
	case orb.MultiPolygon:
		parts := make([]string, 0, len(g))
		for _, poly := range g {
			if p := polygonToPath(poly, project); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

func polygonToPath(poly orb.Polygon, project bool) string {
	var b strings.Builder
	for _, ring := range poly {
		if len(ring) == 0 {
			continue
		}
		for i, point := range ring {
			x, y := point[0], point[1]
			if project {
				x, y = ProjectPoint(point)
			}
			cmd := "L"
			if i == 0 {
				cmd = "M"
				if b.Len() > 0 {
					b.WriteString(" ")
				}
			} else {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s %.2f %.2f", cmd, x, y)
		}
		b.WriteString(" Z")
	}
	return b.String()
}

// simplifiedAfricanBoundaries is the embedded 8-country fallback used when
// no boundary file can be loaded. Coordinates are pre-projected SVG points.
func simplifiedAfricanBoundaries() *geojson.FeatureCollection {
	type entry struct {
		admin string
		iso   string
		ring  []orb.Point
	}
	entries := []entry{
		{"Nigeria", "NG", []orb.Point{{420, 380}, {480, 380}, {490, 420}, {470, 450}, {420, 450}, {420, 380}}},
		{"South Africa", "ZA", []orb.Point{{480, 650}, {580, 650}, {600, 690}, {560, 720}, {480, 720}, {480, 650}}},
		{"Kenya", "KE", []orb.Point{{620, 450}, {670, 450}, {680, 490}, {660, 520}, {620, 520}, {620, 450}}},
		{"Egypt", "EG", []orb.Point{{520, 200}, {600, 200}, {620, 240}, {580, 280}, {520, 280}, {520, 200}}},
		{"Ghana", "GH", []orb.Point{{360, 420}, {400, 420}, {410, 460}, {390, 490}, {360, 490}, {360, 420}}},
		{"Morocco", "MA", []orb.Point{{380, 250}, {450, 250}, {470, 290}, {430, 330}, {380, 330}, {380, 250}}},
		{"Ethiopia", "ET", []orb.Point{{680, 380}, {740, 380}, {750, 420}, {720, 450}, {680, 450}, {680, 380}}},
		{"Tanzania", "TZ", []orb.Point{{620, 540}, {680, 540}, {690, 580}, {660, 610}, {620, 610}, {620, 540}}},
	}

	fc := geojson.NewFeatureCollection()
	for _, e := range entries {
		f := geojson.NewFeature(orb.Polygon{orb.Ring(e.ring)})
		f.Properties = geojson.Properties{"ADMIN": e.admin, "ISO_A2": e.iso, "CONTINENT": "Africa"}
		fc.Append(f)
	}
	return fc
}
