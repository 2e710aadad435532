package repository

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
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
