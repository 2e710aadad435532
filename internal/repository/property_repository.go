package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/surenab/ireland-property-market-backend/internal/models"
)

// listCountCap bounds the pagination count scan so broad filters never
// pay for a full-table count.
const listCountCap = 10000

// PropertyRepository handles database access for properties, addresses
// and sale history.
type PropertyRepository struct {
	db *sql.DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// List returns one page of properties matching filter, each flattened
// to its address plus the latest sale inside the requested date window.
// Total is counted up to listCountCap and flagged when capped.
func (r *PropertyRepository) List(ctx context.Context, filter models.PropertyFilter) (*models.PaginatedProperties, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 50
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	// Latest sale per property, restricted to the requested window.
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

	from := ` FROM properties p
	JOIN addresses a ON a.property_id = p.id
	` + latest

	var conditions []string
	var args []interface{}

	if filter.County != "" {
		conditions = append(conditions, "a.county = ?")
		args = append(args, filter.County)
	}
	if filter.HasGeocoding != nil {
		if *filter.HasGeocoding {
			conditions = append(conditions, "a.latitude IS NOT NULL AND a.longitude IS NOT NULL")
		} else {
			conditions = append(conditions, "(a.latitude IS NULL OR a.longitude IS NULL)")
		}
	}
	if len(dateConds) > 0 {
		// With a date window set, a sale inside it is required.
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
	if filter.MinSales > 0 {
		conditions = append(conditions, "(SELECT COUNT(*) FROM price_history ph WHERE ph.property_id = p.id) >= ?")
		args = append(args, filter.MinSales)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (SELECT p.id%s%s LIMIT %d)", from, where, listCountCap+1)
	countArgs := make([]interface{}, 0, len(dateArgs)+len(args))
	countArgs = append(countArgs, dateArgs...)
	countArgs = append(countArgs, args...)

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}
	capped := false
	if total > listCountCap {
		total = listCountCap
		capped = true
	}

	order := " ORDER BY p.id"
	switch filter.Sort {
	case "price_asc":
		order = " ORDER BY latest.price ASC NULLS LAST, p.id"
	case "price_desc":
		order = " ORDER BY latest.price DESC, p.id"
	case "date_desc":
		order = " ORDER BY latest.date_of_sale DESC, p.id"
	}

	query := `SELECT p.id, a.address, a.county, a.eircode, a.latitude, a.longitude,
		latest.price, latest.date_of_sale,
		(SELECT COUNT(*) FROM price_history ph WHERE ph.property_id = p.id) AS sales_count` +
		from + where + order + " LIMIT ? OFFSET ?"

	queryArgs := make([]interface{}, 0, len(countArgs)+2)
	queryArgs = append(queryArgs, countArgs...)
	queryArgs = append(queryArgs, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	items := make([]models.PropertyListItem, 0, filter.PageSize)
	for rows.Next() {
		var (
			item     models.PropertyListItem
			eircode  sql.NullString
			lat, lng sql.NullFloat64
			price    sql.NullInt64
			saleDate sql.NullString
		)
		err := rows.Scan(&item.ID, &item.Address, &item.County, &eircode, &lat, &lng,
			&price, &saleDate, &item.SalesCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		if eircode.Valid {
			item.Eircode = &eircode.String
		}
		if lat.Valid {
			item.Latitude = &lat.Float64
		}
		if lng.Valid {
			item.Longitude = &lng.Float64
		}
		if price.Valid {
			item.LatestPrice = &price.Int64
		}
		if saleDate.Valid {
			item.LatestSaleDate = &saleDate.String
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read property rows: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + filter.PageSize - 1) / filter.PageSize
	}

	return &models.PaginatedProperties{
		Items:       items,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
		Total:       total,
		TotalPages:  totalPages,
		TotalCapped: capped,
	}, nil
}

// GetByID returns a property with its address and full sale history,
// or nil when no such property exists.
func (r *PropertyRepository) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	err := r.db.QueryRowContext(ctx,
		"SELECT id, created_at, updated_at FROM properties WHERE id = ?", id,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property %d: %w", id, err)
	}

	address, err := r.addressFor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Address = address

	history, err := r.GetSaleHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	p.PriceHistory = history

	return &p, nil
}

// Exists reports whether a property row exists.
func (r *PropertyRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM properties WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check property %d: %w", id, err)
	}
	return true, nil
}

// GetSaleHistory returns every recorded sale for a property, oldest
// first.
func (r *PropertyRepository) GetSaleHistory(ctx context.Context, propertyID int64) ([]models.PriceHistory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, property_id, date_of_sale, price,
		not_full_market_price, vat_exclusive, description, property_size_description
		FROM price_history WHERE property_id = ? ORDER BY date_of_sale, id`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale history: %w", err)
	}
	defer rows.Close()

	var history []models.PriceHistory
	for rows.Next() {
		var (
			h     models.PriceHistory
			desc  sql.NullString
			size  sql.NullString
		)
		err := rows.Scan(&h.ID, &h.PropertyID, &h.DateOfSale, &h.Price,
			&h.NotFullMarketPrice, &h.VatExclusive, &desc, &size)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale row: %w", err)
		}
		if desc.Valid {
			h.Description = &desc.String
		}
		if size.Valid {
			h.PropertySizeDescription = &size.String
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sale rows: %w", err)
	}
	return history, nil
}

// ListCounties returns the distinct counties present, sorted.
func (r *PropertyRepository) ListCounties(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT county FROM addresses ORDER BY county")
	if err != nil {
		return nil, fmt.Errorf("failed to query counties: %w", err)
	}
	defer rows.Close()

	var counties []string
	for rows.Next() {
		var county string
		if err := rows.Scan(&county); err != nil {
			return nil, fmt.Errorf("failed to scan county: %w", err)
		}
		counties = append(counties, county)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read county rows: %w", err)
	}
	return counties, nil
}

func (r *PropertyRepository) addressFor(ctx context.Context, propertyID int64) (*models.Address, error) {
	var (
		a       models.Address
		eircode sql.NullString
		lat     sql.NullFloat64
		lng     sql.NullFloat64
		geoAt   sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, property_id, address, county, eircode,
		latitude, longitude, geocoded_at FROM addresses WHERE property_id = ?`, propertyID).
		Scan(&a.ID, &a.PropertyID, &a.Address, &a.County, &eircode, &lat, &lng, &geoAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	if eircode.Valid {
		a.Eircode = &eircode.String
	}
	if lat.Valid {
		a.Latitude = &lat.Float64
	}
	if lng.Valid {
		a.Longitude = &lng.Float64
	}
	if geoAt.Valid {
		a.GeocodedAt = &geoAt.Time
	}
	return &a, nil
}
