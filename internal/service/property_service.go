package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/surenab/ireland-property-market-backend/internal/cache"
	"github.com/surenab/ireland-property-market-backend/internal/models"
	"github.com/surenab/ireland-property-market-backend/internal/repository"
)

// ErrNotFound marks lookups for rows that do not exist. Handlers map it
// to a 404; every other error is a server fault.
var ErrNotFound = errors.New("not found")

// countiesTTL pins the counties list longer than regular responses; the
// set of counties only changes when new data loads.
const countiesTTL = time.Hour

// PropertyService handles business logic for property listings.
type PropertyService struct {
	propertyRepo *repository.PropertyRepository
	store        cache.Store
	ttl          time.Duration
}

// NewPropertyService creates a new property service. store may be nil,
// which disables response caching.
func NewPropertyService(propertyRepo *repository.PropertyRepository, store cache.Store, ttl time.Duration) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		store:        store,
		ttl:          ttl,
	}
}

// List returns a filtered page of properties, each with its latest sale
// inside the filter window.
func (s *PropertyService) List(ctx context.Context, filter models.PropertyFilter) (*models.PaginatedProperties, error) {
	key := listKey(filter)
	var cached models.PaginatedProperties
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	result, err := s.propertyRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	toCache(s.store, key, result, s.ttl)
	return result, nil
}

// GetByID returns one property with its address and full sale history.
func (s *PropertyService) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	key := cache.Key("property", strconv.FormatInt(id, 10))
	var cached models.Property
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}

	toCache(s.store, key, property, s.ttl)
	return property, nil
}

// History returns the sale rows for one property, oldest first.
func (s *PropertyService) History(ctx context.Context, id int64) ([]models.PriceHistory, error) {
	exists, err := s.propertyRepo.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check property: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
	}

	history, err := s.propertyRepo.GetSaleHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale history: %w", err)
	}
	if history == nil {
		history = []models.PriceHistory{}
	}
	return history, nil
}

// Counties returns the distinct counties present in the data, sorted.
func (s *PropertyService) Counties(ctx context.Context) ([]string, error) {
	key := cache.Key("counties")
	var cached []string
	if fromCache(s.store, key, &cached) {
		return cached, nil
	}

	counties, err := s.propertyRepo.ListCounties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list counties: %w", err)
	}
	if counties == nil {
		counties = []string{}
	}

	toCache(s.store, key, counties, countiesTTL)
	return counties, nil
}

// listKey builds the cache key for one list page.
func listKey(f models.PropertyFilter) string {
	return cache.Key(
		"properties",
		strconv.Itoa(f.Page),
		strconv.Itoa(f.PageSize),
		f.County,
		priceKey(f.MinPrice),
		priceKey(f.MaxPrice),
		f.StartDate,
		f.EndDate,
		boolKey(f.HasGeocoding),
		strconv.Itoa(f.MinSales),
		f.Sort,
	)
}
