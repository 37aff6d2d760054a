package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/model"
	"github.com/Fardin3303/etl-pipeline-mapbox-test/pkg/utils"
)

// ------------------- Transformation -------------------

// Transform maps raw Overpass elements to roads rows. It is a pure function:
// the same input always yields the same report, and every input record shows
// up in the report either as a road or as a skip with its reason.
//
// Policy for partial coercion: the required columns (id, name, type) reject
// the whole record when they cannot be produced; the nullable geometry column
// is nulled instead, keeping the row.
func Transform(records []model.RawRecord) *model.TransformReport {
	report := &model.TransformReport{Results: make([]model.RecordResult, 0, len(records))}

	for _, rec := range records {
		road, err := transformRecord(rec)
		if err != nil {
			report.Results = append(report.Results, model.RecordResult{Err: err})
			continue
		}
		report.Results = append(report.Results, model.RecordResult{Road: road})
	}

	return report
}

// transformRecord maps a single element, or explains why it cannot be a row.
func transformRecord(rec model.RawRecord) (*model.Road, error) {
	rawID, ok := rec["id"]
	if !ok {
		return nil, &TransformError{Field: "id", Reason: "missing"}
	}
	roadID, ok := utils.Stringify(rawID)
	if !ok {
		return nil, &TransformError{Field: "id", Reason: fmt.Sprintf("not coercible to string: %T", rawID)}
	}

	tags, _ := rec["tags"].(map[string]interface{})
	roadName, ok := utils.Stringify(tags["name"])
	if !ok {
		roadName = "road_" + roadID // fallback if no name
	}
	roadType, ok := utils.Stringify(tags["highway"])
	if !ok {
		roadType = "unknown"
	}

	road := &model.Road{
		RoadID:   roadID,
		RoadName: roadName,
		RoadType: roadType,
		GeomWKT:  geometryWKT(rec["geometry"]),
	}
	return road, nil
}

// geometryWKT builds a WKT LINESTRING from the element geometry, or nil when
// the geometry is absent, empty, or any point fails numeric coercion.
func geometryWKT(raw interface{}) *string {
	points, ok := raw.([]interface{})
	if !ok || len(points) == 0 {
		return nil
	}

	coords := make([]string, 0, len(points))
	for _, p := range points {
		point, ok := p.(map[string]interface{})
		if !ok {
			return nil
		}
		lon, lonOK := utils.Numeric(point["lon"])
		lat, latOK := utils.Numeric(point["lat"])
		if !lonOK || !latOK {
			return nil
		}
		coords = append(coords, formatCoord(lon)+" "+formatCoord(lat))
	}

	wkt := "LINESTRING(" + strings.Join(coords, ", ") + ")"
	return &wkt
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
