package service

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/surenab/ireland-property-market-backend/internal/cache"
	"github.com/surenab/ireland-property-market-backend/internal/models"
	"github.com/surenab/ireland-property-market-backend/internal/repository"
	"github.com/surenab/ireland-property-market-backend/internal/spatial"
)

// newTestDB opens an in-memory database with the real schema applied.
// The pool is pinned to one connection because each connection to
// ":memory:" would otherwise get its own empty database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_initial_schema.sql"))
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *cache.Memory {
	t.Helper()
	store := cache.NewMemory(time.Minute)
	t.Cleanup(store.Close)
	return store
}

func newMapService(t *testing.T, db *sql.DB) *MapService {
	t.Helper()
	return NewMapService(repository.NewMapRepository(db), newTestStore(t), spatial.Caps{}, time.Minute)
}

func newPropertyService(t *testing.T, db *sql.DB) *PropertyService {
	t.Helper()
	return NewPropertyService(repository.NewPropertyRepository(db), newTestStore(t), time.Minute)
}

func newStatsService(t *testing.T, db *sql.DB) *StatsService {
	t.Helper()
	return NewStatsService(repository.NewStatsRepository(db), newTestStore(t), time.Minute)
}

func seedProperty(t *testing.T, db *sql.DB, county, address string, lat, lng *float64) int64 {
	t.Helper()

	res, err := db.Exec("INSERT INTO properties DEFAULT VALUES")
	if err != nil {
		t.Fatalf("insert property: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("property id: %v", err)
	}
	_, err = db.Exec(`INSERT INTO addresses (property_id, address, county, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)`, id, address, county, lat, lng)
	if err != nil {
		t.Fatalf("insert address: %v", err)
	}
	return id
}

func seedSale(t *testing.T, db *sql.DB, propertyID int64, date string, price int64) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO price_history (property_id, date_of_sale, price)
		VALUES (?, ?, ?)`, propertyID, date, price)
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}
}

func seedSaleWithSize(t *testing.T, db *sql.DB, propertyID int64, date string, price int64, sizeDesc string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO price_history (property_id, date_of_sale, price, property_size_description)
		VALUES (?, ?, ?, ?)`, propertyID, date, price, sizeDesc)
	if err != nil {
		t.Fatalf("insert sale: %v", err)
	}
}

func coords(lat, lng float64) (*float64, *float64) {
	return &lat, &lng
}

// dublinViewport covers the seeded Dublin fixtures at street zoom.
func dublinViewport() models.MapFilter {
	return models.MapFilter{North: 53.5, South: 53.2, East: -6.0, West: -6.5, Zoom: 12}
}
