package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"fintech_index/internal/domain/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestLoadBoundariesFallsBackWithoutFile(t *testing.T) {
	svc := NewGeoService(newFakeCountryDataRepo(), "")

	fc, source, err := svc.LoadBoundaries()
	if err != nil {
		t.Fatalf("empty path should degrade cleanly: %v", err)
	}
	if source != model.SourceFallback {
		t.Fatalf("source = %q, want fallback", source)
	}
	if len(fc.Features) != 8 {
		t.Fatalf("fallback features = %d, want 8", len(fc.Features))
	}

	wantISOs := map[string]bool{"NG": true, "ZA": true, "KE": true, "EG": true, "GH": true, "MA": true, "ET": true, "TZ": true}
	for _, f := range fc.Features {
		if !wantISOs[isoCode(f)] {
			t.Fatalf("unexpected fallback country %q", isoCode(f))
		}
	}
}

func TestLoadBoundariesMissingFileReturnsCause(t *testing.T) {
	svc := NewGeoService(newFakeCountryDataRepo(), "/does/not/exist.geojson")

	fc, source, err := svc.LoadBoundaries()
	if err == nil {
		t.Fatal("missing file should surface a cause alongside the fallback")
	}
	if source != model.SourceFallback || len(fc.Features) != 8 {
		t.Fatalf("degraded result = source %q / %d features", source, len(fc.Features))
	}
}

func TestFilterAfricanFeatures(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	for _, iso := range []string{"NG", "FR", "KE", "US"} {
		f := geojson.NewFeature(orb.Polygon{})
		f.Properties = geojson.Properties{"ISO_A2": iso}
		fc.Append(f)
	}

	filtered := FilterAfricanFeatures(fc)
	if len(filtered.Features) != 2 {
		t.Fatalf("filtered features = %d, want 2", len(filtered.Features))
	}
	for _, f := range filtered.Features {
		iso := isoCode(f)
		if iso != "NG" && iso != "KE" {
			t.Fatalf("non-African feature %q survived the filter", iso)
		}
	}
}

func TestBuildMapJoinsRecordsByISOCode(t *testing.T) {
	repo := newFakeCountryDataRepo()
	seedRecord(t, repo, "NG", "Nigeria", 2024, 85)
	seedRecord(t, repo, "KE", "Kenya", 2024, 45)
	seedRecord(t, repo, "NG", "Nigeria", 2023, 30) // other year, must not join

	svc := NewGeoService(repo, "")
	view, err := svc.BuildMap(context.Background(), 2024)
	if err != nil {
		t.Fatalf("build map failed: %v", err)
	}
	if view.Year != 2024 || view.Source != model.SourceFallback {
		t.Fatalf("view header = year %d source %q", view.Year, view.Source)
	}
	if len(view.Countries) != 8 {
		t.Fatalf("countries = %d, want 8", len(view.Countries))
	}

	byISO := map[string]model.MapCountry{}
	for _, c := range view.Countries {
		byISO[c.ISOCode] = c
	}
	ng := byISO["NG"]
	if ng.Data == nil || ng.Data.FinalScore != 85 {
		t.Fatalf("NG did not join its 2024 record: %+v", ng.Data)
	}
	if ng.Level != model.LevelHigh || ng.Color != "#10B981" {
		t.Fatalf("NG classification = %q %q", ng.Level, ng.Color)
	}
	ke := byISO["KE"]
	if ke.Level != model.LevelLow || ke.Color != "#EF4444" {
		t.Fatalf("KE classification = %q %q", ke.Level, ke.Color)
	}
	za := byISO["ZA"]
	if za.Data != nil || za.Level != model.LevelNoData || za.Color != "#E5E7EB" {
		t.Fatalf("ZA without data = %+v %q %q", za.Data, za.Level, za.Color)
	}
}

func TestBuildMapFallbackPathsAreNotReprojected(t *testing.T) {
	svc := NewGeoService(newFakeCountryDataRepo(), "")
	view, err := svc.BuildMap(context.Background(), 2024)
	if err != nil {
		t.Fatalf("build map failed: %v", err)
	}
	for _, c := range view.Countries {
		if c.ISOCode != "NG" {
			continue
		}
		// First fallback vertex for Nigeria is (420, 380) in SVG space.
		if !strings.HasPrefix(c.Path, "M 420.00 380.00 L ") {
			t.Fatalf("fallback path was transformed: %q", c.Path)
		}
		if !strings.HasSuffix(c.Path, " Z") {
			t.Fatalf("path not closed: %q", c.Path)
		}
		return
	}
	t.Fatal("Nigeria missing from fallback map")
}

func TestProjectPointCenter(t *testing.T) {
	// The projection center maps onto the translate offset.
	x, y := ProjectPoint(orb.Point{20, 0})
	if math.Abs(x-450) > 1e-9 || math.Abs(y-350) > 1e-9 {
		t.Fatalf("center projected to (%v, %v), want (450, 350)", x, y)
	}

	// North of the equator renders above the center line.
	_, yn := ProjectPoint(orb.Point{20, 10})
	if yn >= 350 {
		t.Fatalf("northern latitude projected below center: y = %v", yn)
	}
}

func TestGeometryToPathMultiPolygon(t *testing.T) {
	ring := func(pts ...orb.Point) orb.Ring { return orb.Ring(pts) }
	mp := orb.MultiPolygon{
		{ring(orb.Point{0, 0}, orb.Point{10, 0}, orb.Point{10, 10}, orb.Point{0, 0})},
		{ring(orb.Point{20, 20}, orb.Point{30, 20}, orb.Point{30, 30}, orb.Point{20, 20})},
	}

	path := GeometryToPath(mp, false)
	if strings.Count(path, "M ") != 2 || strings.Count(path, "Z") != 2 {
		t.Fatalf("multipolygon path = %q, want two closed sub-paths", path)
	}
	if path != "M 0.00 0.00 L 10.00 0.00 L 10.00 10.00 L 0.00 0.00 Z M 20.00 20.00 L 30.00 20.00 L 30.00 30.00 L 20.00 20.00 Z" {
		t.Fatalf("unexpected path syntax: %q", path)
	}
}
