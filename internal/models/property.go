package models

import "time"

// Property is one property row. Address and PriceHistory are attached by
// the detail endpoint.
type Property struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Address      *Address       `json:"address,omitempty"`
	PriceHistory []PriceHistory `json:"price_history,omitempty"`
}

// Address is the geocoded address attached to a property. Latitude and
// Longitude are nil for rows that never geocoded.
type Address struct {
	ID         int64      `json:"id" db:"id"`
	PropertyID int64      `json:"property_id" db:"property_id"`
	Address    string     `json:"address" db:"address"`
	County     string     `json:"county" db:"county"`
	Eircode    *string    `json:"eircode,omitempty" db:"eircode"`
	Latitude   *float64   `json:"latitude" db:"latitude"`
	Longitude  *float64   `json:"longitude" db:"longitude"`
	GeocodedAt *time.Time `json:"geocoded_at,omitempty" db:"geocoded_at"`
}

// PriceHistory is a single recorded sale. Price is whole euros.
type PriceHistory struct {
	ID                      int64   `json:"id" db:"id"`
	PropertyID              int64   `json:"property_id" db:"property_id"`
	DateOfSale              string  `json:"date_of_sale" db:"date_of_sale"` // YYYY-MM-DD
	Price                   int64   `json:"price" db:"price"`
	NotFullMarketPrice      bool    `json:"not_full_market_price" db:"not_full_market_price"`
	VatExclusive            bool    `json:"vat_exclusive" db:"vat_exclusive"`
	Description             *string `json:"description,omitempty" db:"description"`
	PropertySizeDescription *string `json:"property_size_description,omitempty" db:"property_size_description"`
}

// PropertyListItem is the flattened row shape returned by the list
// endpoint: address fields plus the latest sale within the filter window.
type PropertyListItem struct {
	ID             int64    `json:"id"`
	Address        string   `json:"address"`
	County         string   `json:"county"`
	Eircode        *string  `json:"eircode,omitempty"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	LatestPrice    *int64   `json:"latest_price"`
	LatestSaleDate *string  `json:"latest_sale_date"`
	SalesCount     int      `json:"sales_count"`
}

// PaginatedProperties is the list endpoint payload. Total is capped (see
// TotalCapped) so listing never pays for an unbounded count.
type PaginatedProperties struct {
	Items       []PropertyListItem `json:"items"`
	Page        int                `json:"page"`
	PageSize    int                `json:"page_size"`
	Total       int                `json:"total"`
	TotalPages  int                `json:"total_pages"`
	TotalCapped bool               `json:"total_capped,omitempty"`
}
