package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/surenab/ireland-property-market-backend/internal/models"
)

// StatsRepository fetches the raw rows behind the statistics endpoints.
// Aggregation happens in the service layer, so every method returns
// plain row slices.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new statistics repository
func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// FetchSales returns every sale matching filter as (date, price) rows,
// oldest first. Price bounds apply to each sale, not to the property's
// latest one.
func (r *StatsRepository) FetchSales(ctx context.Context, filter models.TrendFilter) ([]models.SaleRecord, error) {
	query := `SELECT ph.date_of_sale, ph.price
	FROM price_history ph`

	var conditions []string
	var args []interface{}

	if filter.County != "" {
		query += `
	JOIN addresses a ON a.property_id = ph.property_id`
		conditions = append(conditions, "a.county = ?")
		args = append(args, filter.County)
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "ph.price >= ?")
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "ph.price <= ?")
		args = append(args, *filter.MaxPrice)
	}
	if filter.StartDate != "" {
		conditions = append(conditions, "ph.date_of_sale >= ?")
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		conditions = append(conditions, "ph.date_of_sale <= ?")
		args = append(args, filter.EndDate)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ph.date_of_sale"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []models.SaleRecord
	for rows.Next() {
		var s models.SaleRecord
		if err := rows.Scan(&s.DateOfSale, &s.Price); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sale rows: %w", err)
	}
	return sales, nil
}

// FetchLatestPrices returns the latest sale price of each property,
// optionally restricted to a county and a sale date window.
func (r *StatsRepository) FetchLatestPrices(ctx context.Context, county, startDate, endDate string) ([]float64, error) {
	rows, err := r.latestPriceRows(ctx, county, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var (
			rowCounty string
			price     int64
		)
		if err := rows.Scan(&rowCounty, &price); err != nil {
			return nil, fmt.Errorf("failed to scan latest price: %w", err)
		}
		prices = append(prices, float64(price))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read latest price rows: %w", err)
	}
	return prices, nil
}

// FetchCountyPrices returns one (county, latest price) row per property,
// optionally restricted to a sale date window.
func (r *StatsRepository) FetchCountyPrices(ctx context.Context, startDate, endDate string) ([]models.CountyPrice, error) {
	rows, err := r.latestPriceRows(ctx, "", startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []models.CountyPrice
	for rows.Next() {
		var cp models.CountyPrice
		if err := rows.Scan(&cp.County, &cp.Price); err != nil {
			return nil, fmt.Errorf("failed to scan county price: %w", err)
		}
		prices = append(prices, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read county price rows: %w", err)
	}
	return prices, nil
}

// FetchCorrelationSales returns every sale with the columns correlation
// analysis derives its variables from.
func (r *StatsRepository) FetchCorrelationSales(ctx context.Context, county string) ([]models.CorrelationSale, error) {
	query := `SELECT ph.price, ph.date_of_sale, ph.property_size_description
	FROM price_history ph`

	var args []interface{}
	if county != "" {
		query += `
	JOIN addresses a ON a.property_id = ph.property_id
	WHERE a.county = ?`
		args = append(args, county)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query correlation sales: %w", err)
	}
	defer rows.Close()

	var sales []models.CorrelationSale
	for rows.Next() {
		var (
			s    models.CorrelationSale
			desc sql.NullString
		)
		if err := rows.Scan(&s.Price, &s.DateOfSale, &desc); err != nil {
			return nil, fmt.Errorf("failed to scan correlation sale: %w", err)
		}
		if desc.Valid {
			s.SizeDesc = &desc.String
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read correlation rows: %w", err)
	}
	return sales, nil
}

// DateRange returns the earliest and latest sale dates, empty strings
// when there are no sales.
func (r *StatsRepository) DateRange(ctx context.Context) (string, string, error) {
	var minDate, maxDate sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT MIN(date_of_sale), MAX(date_of_sale) FROM price_history").
		Scan(&minDate, &maxDate)
	if err != nil {
		return "", "", fmt.Errorf("failed to query date range: %w", err)
	}
	return minDate.String, maxDate.String, nil
}

// latestPriceRows selects (county, latest price) pairs, one per
// property. The window restricts which sales count as latest.
func (r *StatsRepository) latestPriceRows(ctx context.Context, county, startDate, endDate string) (*sql.Rows, error) {
	latest := `JOIN (
		SELECT property_id, price,
			ROW_NUMBER() OVER (PARTITION BY property_id ORDER BY date_of_sale DESC, price DESC) AS rn
		FROM price_history`

	var dateConds []string
	var args []interface{}
	if startDate != "" {
		dateConds = append(dateConds, "date_of_sale >= ?")
		args = append(args, startDate)
	}
	if endDate != "" {
		dateConds = append(dateConds, "date_of_sale <= ?")
		args = append(args, endDate)
	}
	if len(dateConds) > 0 {
		latest += " WHERE " + strings.Join(dateConds, " AND ")
	}
	latest += `
	) latest ON latest.property_id = a.property_id AND latest.rn = 1`

	query := `SELECT a.county, latest.price
	FROM addresses a
	` + latest
	if county != "" {
		query += " WHERE a.county = ?"
		args = append(args, county)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prices: %w", err)
	}
	return rows, nil
}
