package service

import (
	"context"
	"errors"
	"testing"

	"github.com/surenab/ireland-property-market-backend/internal/models"
)

func TestListFiltersAndPaginates(t *testing.T) {
	db := newTestDB(t)
	svc := newPropertyService(t, db)

	for i, county := range []string{"Dublin", "Dublin", "Cork"} {
		id := seedProperty(t, db, county, "List Row", nil, nil)
		seedSale(t, db, id, "2021-01-10", int64(100000*(i+1)))
	}

	resp, err := svc.List(context.Background(), models.PropertyFilter{County: "Dublin", PageSize: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if resp.Total != 2 || resp.TotalPages != 2 {
		t.Fatalf("expected 2 Dublin rows over 2 pages, got total=%d pages=%d", resp.Total, resp.TotalPages)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 item on the page, got %d", len(resp.Items))
	}
	if resp.Items[0].County != "Dublin" {
		t.Fatalf("county filter leaked: %+v", resp.Items[0])
	}
}

func TestListResponseIsCached(t *testing.T) {
	db := newTestDB(t)
	svc := newPropertyService(t, db)

	id := seedProperty(t, db, "Dublin", "1 Cached List Row", nil, nil)
	seedSale(t, db, id, "2021-01-10", 100000)

	first, err := svc.List(context.Background(), models.PropertyFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	id = seedProperty(t, db, "Dublin", "2 Cached List Row", nil, nil)
	seedSale(t, db, id, "2021-02-10", 200000)

	second, err := svc.List(context.Background(), models.PropertyFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if second.Total != first.Total {
		t.Fatalf("expected cached total %d, got %d", first.Total, second.Total)
	}
}

func TestGetByIDReturnsDetail(t *testing.T) {
	db := newTestDB(t)
	svc := newPropertyService(t, db)

	lat, lng := coords(53.3498, -6.2603)
	id := seedProperty(t, db, "Dublin", "1 Detail Row", lat, lng)
	seedSale(t, db, id, "2021-06-10", 300000)
	seedSale(t, db, id, "2018-03-15", 250000)

	property, err := svc.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if property.Address == nil || property.Address.County != "Dublin" {
		t.Fatalf("expected attached address, got %+v", property.Address)
	}
	if len(property.PriceHistory) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(property.PriceHistory))
	}
	if property.PriceHistory[0].DateOfSale != "2018-03-15" {
		t.Fatalf("history sorts oldest first, got %q", property.PriceHistory[0].DateOfSale)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newPropertyService(t, db)

	_, err := svc.GetByID(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryRequiresProperty(t *testing.T) {
	db := newTestDB(t)
	svc := newPropertyService(t, db)

	_, err := svc.History(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	id := seedProperty(t, db, "Dublin", "1 History Row", nil, nil)
	history, err := svc.History(context.Background(), id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d rows", len(history))
	}

	seedSale(t, db, id, "2021-06-10", 300000)
	history, err = svc.History(context.Background(), id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].Price != 300000 {
		t.Fatalf("expected the seeded sale, got %+v", history)
	}
}

func TestCounties(t *testing.T) {
	db := newTestDB(t)
	svc := newPropertyService(t, db)

	seedProperty(t, db, "Galway", "1 County Row", nil, nil)
	seedProperty(t, db, "Cork", "2 County Row", nil, nil)
	seedProperty(t, db, "Cork", "3 County Row", nil, nil)

	counties, err := svc.Counties(context.Background())
	if err != nil {
		t.Fatalf("Counties: %v", err)
	}
	if len(counties) != 2 || counties[0] != "Cork" || counties[1] != "Galway" {
		t.Fatalf("expected sorted distinct counties, got %v", counties)
	}
}
