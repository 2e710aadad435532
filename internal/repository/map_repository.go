package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/surenab/ireland-property-market-backend/internal/models"
	"github.com/surenab/ireland-property-market-backend/internal/spatial"
)

// MapRepository fetches geocoded sale records for the map endpoints.
type MapRepository struct {
	db *sql.DB
}

// NewMapRepository creates a new map repository
func NewMapRepository(db *sql.DB) *MapRepository {
	return &MapRepository{db: db}
}

// FetchViewport returns geocoded records inside the filter's bounds,
// at most limit of them, and reports whether more rows matched. Each
// record carries the property's latest sale inside the date window.
// The query never counts matching rows beyond the limit.
func (r *MapRepository) FetchViewport(ctx context.Context, filter models.MapFilter, limit int) ([]spatial.GeoRecord, bool, error) {
	if limit <= 0 {
		return nil, false, nil
	}

	latest := `LEFT JOIN (
		SELECT property_id, price, date_of_sale,
			ROW_NUMBER() OVER (PARTITION BY property_id ORDER BY date_of_sale DESC, price DESC) AS rn
		FROM price_history`

	var dateConds []string
	var dateArgs []interface{}
	if filter.StartDate != "" {
		dateConds = append(dateConds, "date_of_sale >= ?")
		dateArgs = append(dateArgs, filter.StartDate)
	}
	if filter.EndDate != "" {
		dateConds = append(dateConds, "date_of_sale <= ?")
		dateArgs = append(dateArgs, filter.EndDate)
	}
	if len(dateConds) > 0 {
		latest += " WHERE " + strings.Join(dateConds, " AND ")
	}
	latest += `
	) latest ON latest.property_id = p.id AND latest.rn = 1`

	conditions := []string{
		"a.latitude IS NOT NULL",
		"a.longitude IS NOT NULL",
		"a.latitude BETWEEN ? AND ?",
		"a.longitude BETWEEN ? AND ?",
	}
	args := []interface{}{filter.South, filter.North, filter.West, filter.East}

	if filter.County != "" {
		conditions = append(conditions, "a.county = ?")
		args = append(args, filter.County)
	}
	if len(dateConds) > 0 {
		conditions = append(conditions, "latest.property_id IS NOT NULL")
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "latest.price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "latest.price <= ?")
		args = append(args, *filter.MaxPrice)
	}

	query := `SELECT p.id, a.latitude, a.longitude, a.address, a.county,
		latest.price, latest.date_of_sale
	FROM properties p
	JOIN addresses a ON a.property_id = p.id
	` + latest + `
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY p.id LIMIT ?`

	queryArgs := make([]interface{}, 0, len(dateArgs)+len(args)+1)
	queryArgs = append(queryArgs, dateArgs...)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, limit+1)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query viewport: %w", err)
	}
	defer rows.Close()

	records := make([]spatial.GeoRecord, 0, limit)
	truncated := false
	for rows.Next() {
		var (
			rec      spatial.GeoRecord
			lat, lng sql.NullFloat64
			price    sql.NullInt64
			saleDate sql.NullString
		)
		err := rows.Scan(&rec.ID, &lat, &lng, &rec.Label, &rec.Region, &price, &saleDate)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan viewport row: %w", err)
		}
		if lat.Valid {
			rec.Lat = &lat.Float64
		}
		if lng.Valid {
			rec.Lng = &lng.Float64
		}
		if price.Valid {
			rec.Price = &price.Int64
		}
		rec.SaleDate = saleDate.String

		if len(records) == limit {
			truncated = true
			break
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read viewport rows: %w", err)
	}

	return records, truncated, nil
}
