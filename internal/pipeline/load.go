package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/model"
)

// ------------------- Loading -------------------

const createRoadsTable = `
CREATE EXTENSION IF NOT EXISTS postgis;
CREATE TABLE IF NOT EXISTS roads (
	road_id VARCHAR PRIMARY KEY,
	road_name TEXT NOT NULL,
	road_type TEXT NOT NULL,
	geom geometry(LineString, 4326)
);`

const defaultChunkSize = 500

// Loader writes transformed roads into the destination Postgres database.
// The connection is opened once per Load call and the whole batch is written
// inside a single transaction: either every chunk lands or none does.
type Loader struct {
	ConnString string
	ChunkSize  int
}

func NewLoader(connString string) *Loader {
	return &Loader{ConnString: connString, ChunkSize: defaultChunkSize}
}

// Load ensures the roads table exists and inserts all records in chunked
// multi-row statements. Already-present road IDs are left untouched. Returns
// the number of rows actually inserted; any failure is a *LoadError.
func (l *Loader) Load(ctx context.Context, roads []model.Road) (int, error) {
	db, err := sql.Open("postgres", l.ConnString)
	if err != nil {
		return 0, &LoadError{Op: "open connection", Cause: err}
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return 0, &LoadError{Op: "connect", Cause: err}
	}

	// Idempotent: safe to run on every invocation.
	if _, err := db.ExecContext(ctx, createRoadsTable); err != nil {
		return 0, &LoadError{Op: "ensure schema", Cause: err}
	}

	if len(roads) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &LoadError{Op: "begin transaction", Cause: err}
	}

	inserted := 0
	chunkSize := l.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	for start := 0; start < len(roads); start += chunkSize {
		end := start + chunkSize
		if end > len(roads) {
			end = len(roads)
		}

		query, args := buildInsert(roads[start:end])
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			tx.Rollback()
			return 0, &LoadError{Op: fmt.Sprintf("insert rows %d-%d", start, end-1), Cause: err}
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &LoadError{Op: "commit", Cause: err}
	}

	return inserted, nil
}

// buildInsert renders one multi-row insert for a chunk. Geometry arrives as
// WKT text and is converted server-side; a nil WKT stays NULL.
func buildInsert(roads []model.Road) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO roads (road_id, road_name, road_type, geom) VALUES ")

	args := make([]interface{}, 0, len(roads)*4)
	for i, road := range roads {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, ST_GeomFromText($%d, 4326))", n+1, n+2, n+3, n+4)

		var geom sql.NullString
		if road.GeomWKT != nil {
			geom = sql.NullString{String: *road.GeomWKT, Valid: true}
		}
		args = append(args, road.RoadID, road.RoadName, road.RoadType, geom)
	}

	sb.WriteString(" ON CONFLICT (road_id) DO NOTHING")
	return sb.String(), args
}
