package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/surenab/ireland-property-market-backend/internal/cache"
	"github.com/surenab/ireland-property-market-backend/internal/models"
	"github.com/surenab/ireland-property-market-backend/internal/repository"
	"github.com/surenab/ireland-property-market-backend/internal/spatial"
)

// MapService handles business logic for viewport queries. Every public
// method runs the same pipeline: plan the fetch for its purpose, pull
// viewport rows, thin them when the plan says so, then aggregate.
type MapService struct {
	mapRepo *repository.MapRepository
	store   cache.Store
	caps    spatial.Caps
	ttl     time.Duration
}

// NewMapService creates a new map service. store may be nil, which
// disables response caching.
func NewMapService(mapRepo *repository.MapRepository, store cache.Store, caps spatial.Caps, ttl time.Duration) *MapService {
	return &MapService{
		mapRepo: mapRepo,
		store:   store,
		caps:    caps,
		ttl:     ttl,
	}
}

// viewport is the outcome of one planned fetch. total is known only
// when the fetch was exhaustive.
type viewport struct {
	records   []spatial.GeoRecord
	truncated bool
	sampled   bool
	total     *int
}

// selectRecords plans and executes one viewport fetch. Wide views
// overfetch and sample down to the record cap; close views truncate at
// the cap and report it.
func (s *MapService) selectRecords(ctx context.Context, filter models.MapFilter, purpose spatial.Purpose) (viewport, spatial.BoundingBox, error) {
	bbox := spatial.BoundingBox{North: filter.North, South: filter.South, East: filter.East, West: filter.West}
	if err := bbox.Validate(); err != nil {
		return viewport{}, bbox, err
	}

	plan := spatial.PlanViewportQuery(filter.Zoom, purpose, s.caps)
	records, truncated, err := s.mapRepo.FetchViewport(ctx, filter, plan.FetchLimit)
	if err != nil {
		return viewport{}, bbox, fmt.Errorf("failed to fetch viewport records: %w", err)
	}

	vp := viewport{records: records, truncated: truncated}
	if !truncated {
		total := len(records)
		vp.total = &total
	}
	if plan.Randomize && len(records) > plan.RecordCap {
		vp.records = spatial.Sample(records, plan.RecordCap, nil)
		vp.sampled = true
	}

	log.Printf("[Map] %s zoom=%d area=%.1fkm2 fetched=%d kept=%d truncated=%v",
		purpose, filter.Zoom, bbox.AreaSqKm(), len(records), len(vp.records), vp.truncated)
	return vp, bbox, nil
}

// Points returns individual property pins for the viewport.
func (s *MapService) Points(ctx context.Context, filter models.MapFilter) (*models.MapPointsResponse, error) {
	key := mapKey("points", filter)
	var cached models.MapPointsResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	vp, bbox, err := s.selectRecords(ctx, filter, spatial.PurposePoints)
	if err != nil {
		return nil, err
	}

	points := vp.records
	if points == nil {
		points = []spatial.GeoRecord{}
	}
	resp := &models.MapPointsResponse{
		Points:    points,
		Returned:  len(points),
		Total:     vp.total,
		Truncated: vp.truncated,
		Sampled:   vp.sampled,
		Viewport:  bbox,
	}
	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// Clusters returns one cluster per occupied grid cell for the viewport,
// sized by zoom and partitioned by the requested cluster mode.
func (s *MapService) Clusters(ctx context.Context, filter models.MapFilter) (*models.MapClustersResponse, error) {
	key := mapKey("clusters", filter)
	var cached models.MapClustersResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	vp, bbox, err := s.selectRecords(ctx, filter, spatial.PurposeClusters)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clusters, err := spatial.ClusterRecords(vp.records, filter.Zoom, spatial.ParseClusterMode(filter.ClusterMode))
	if err != nil {
		return nil, fmt.Errorf("failed to cluster records: %w", err)
	}
	if clusters == nil {
		clusters = []spatial.Cluster{}
	}

	total := 0
	for _, c := range clusters {
		total += c.Count
	}

	resp := &models.MapClustersResponse{
		Clusters:        clusters,
		TotalProperties: total,
		Truncated:       vp.truncated,
		Viewport:        bbox,
	}
	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// Grid returns exact-count grid aggregates for the viewport. The fetch
// cap is high enough that the per-cell counts are real in practice.
func (s *MapService) Grid(ctx context.Context, filter models.MapFilter) (*models.MapGridResponse, error) {
	key := mapKey("grid", filter)
	var cached models.MapGridResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	vp, bbox, err := s.selectRecords(ctx, filter, spatial.PurposeGrid)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cells, err := spatial.AggregateRecords(vp.records, filter.Zoom)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate records: %w", err)
	}
	if cells == nil {
		cells = []spatial.GridAggregate{}
	}

	resp := &models.MapGridResponse{
		Cells:     cells,
		CellSize:  spatial.StepCellSize(filter.Zoom),
		Truncated: vp.truncated,
		Viewport:  bbox,
	}
	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// mapKey builds the cache key for one endpoint and filter combination.
func mapKey(endpoint string, f models.MapFilter) string {
	return cache.Key(
		endpoint,
		strconv.FormatFloat(f.North, 'f', 6, 64),
		strconv.FormatFloat(f.South, 'f', 6, 64),
		strconv.FormatFloat(f.East, 'f', 6, 64),
		strconv.FormatFloat(f.West, 'f', 6, 64),
		strconv.Itoa(f.Zoom),
		f.County,
		priceKey(f.MinPrice),
		priceKey(f.MaxPrice),
		f.StartDate,
		f.EndDate,
		f.ClusterMode,
	)
}
