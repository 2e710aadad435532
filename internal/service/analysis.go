package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/surenab/ireland-property-market-backend/internal/cache"
	"github.com/surenab/ireland-property-market-backend/internal/models"
	"github.com/surenab/ireland-property-market-backend/internal/spatial"
	"github.com/surenab/ireland-property-market-backend/internal/stats"
)

// Analysis modes accepted by Analyze. An unknown mode returns the
// response skeleton with the points echo only.
const (
	AnalysisDensityHeatmap  = "density-heatmap"
	AnalysisSpatialPatterns = "spatial-patterns"
	AnalysisHotspots        = "hotspots"
	AnalysisClusterIdentify = "cluster-identification"
	AnalysisGrowthDecline   = "growth-decline"
	AnalysisPriceHeatmap    = "price-heatmap"
	AnalysisSalesHeatmap    = "sales-heatmap"
)

const (
	// analysisCellSize is the fixed grid used by the per-cell analysis
	// modes, roughly 1.1 km of latitude.
	analysisCellSize = 0.01
	// analysisClusterZoom fixes the cluster scale used by the
	// cluster-identification and sales-heatmap modes.
	analysisClusterZoom = 10
	// analysisPointLimit caps the points echoed in analysis responses.
	analysisPointLimit = 1000
	// maxGridCells bounds the heatmap lattice a client may request.
	maxGridCells = 200
	// defaultHotspotScale applies when the client passes no intensity.
	defaultHotspotScale = 0.5
	// growthMinSpan is the shortest date range growth analysis accepts.
	growthMinSpan = 30 * 24 * time.Hour

	dateLayout = "2006-01-02"
)

// Analyze runs one analysis mode over the viewport records and returns
// its overlay. Every mode shares the response shape; each fills only
// the slices it produces.
func (s *MapService) Analyze(ctx context.Context, filter models.AnalysisFilter) (*models.MapAnalysisResponse, error) {
	mode := filter.AnalysisMode
	if mode == "" {
		mode = AnalysisDensityHeatmap
	}

	key := analysisKey(filter, mode)
	var cached models.MapAnalysisResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	vp, bbox, err := s.selectRecords(ctx, filter.MapFilter, spatial.PurposeAnalysis)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &models.MapAnalysisResponse{
		AnalysisMode:    mode,
		TotalProperties: len(vp.records),
		Truncated:       vp.truncated,
		Viewport:        bbox,
		HeatmapData:     []models.HeatmapEntry{},
		Clusters:        []spatial.Cluster{},
		Points:          pointsEcho(vp.records),
	}

	switch mode {
	case AnalysisDensityHeatmap:
		err = densityHeatmap(resp, vp.records, bbox, filter.GridCells)
	case AnalysisSpatialPatterns:
		spatialPatterns(resp, vp.records, filter.PatternType)
	case AnalysisHotspots:
		err = hotspots(resp, vp.records, filter.Intensity)
	case AnalysisClusterIdentify:
		err = clusterIdentification(resp, vp.records)
	case AnalysisGrowthDecline:
		err = s.growthDecline(ctx, resp, filter.MapFilter)
	case AnalysisPriceHeatmap:
		err = priceHeatmap(resp, vp.records)
	case AnalysisSalesHeatmap:
		err = salesHeatmap(resp, vp.records)
	}
	if err != nil {
		return nil, err
	}

	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// pointsEcho returns up to analysisPointLimit records so clients can
// overlay raw pins without a second fetch.
func pointsEcho(records []spatial.GeoRecord) []spatial.GeoRecord {
	if len(records) > analysisPointLimit {
		records = records[:analysisPointLimit]
	}
	out := make([]spatial.GeoRecord, len(records))
	copy(out, records)
	return out
}

// densityHeatmap fills the polygon overlay: a lattice of rectangular
// cells over the viewport with density-normalized intensities.
func densityHeatmap(resp *models.MapAnalysisResponse, records []spatial.GeoRecord, bbox spatial.BoundingBox, gridCells int) error {
	cells, err := spatial.HeatmapPolygons(records, bbox, "density", normalizeGridCells(gridCells))
	if err != nil {
		return fmt.Errorf("failed to build heatmap polygons: %w", err)
	}
	resp.HeatmapCells = cells
	return nil
}

// spatialPatterns emits one weighted point per record. Density weighs
// every record equally; concentration weighs by price against a 1M
// ceiling, with unpriced records at 0.5.
func spatialPatterns(resp *models.MapAnalysisResponse, records []spatial.GeoRecord, patternType string) {
	concentration := strings.EqualFold(patternType, "concentration")
	for _, r := range records {
		if !r.HasCoords() {
			continue
		}
		intensity := 1.0
		if concentration {
			intensity = 0.5
			if r.Price != nil {
				intensity = float64(*r.Price) / 1_000_000
			}
			if intensity > 1 {
				intensity = 1
			}
		}
		resp.HeatmapData = append(resp.HeatmapData, models.HeatmapEntry{
			Lat:       *r.Lat,
			Lng:       *r.Lng,
			Intensity: intensity,
		})
	}
}

// hotspots scores fixed 0.01 degree cells by sales count against the
// busiest cell, scaled by the requested intensity.
func hotspots(resp *models.MapAnalysisResponse, records []spatial.GeoRecord, scale float64) error {
	if scale <= 0 || scale > 1 {
		scale = defaultHotspotScale
	}
	cells, err := spatial.BinRecords(records, analysisCellSize)
	if err != nil {
		return fmt.Errorf("failed to bin records: %w", err)
	}

	maxCount := 0
	for _, members := range cells {
		if len(members) > maxCount {
			maxCount = len(members)
		}
	}
	if maxCount == 0 {
		return nil
	}

	for _, key := range sortedCellKeys(cells) {
		members := cells[key]
		lat, lng, ok := spatial.Centroid(members)
		if !ok {
			continue
		}
		count := len(members)
		intensity := float64(count) / float64(maxCount) * scale
		resp.HeatmapData = append(resp.HeatmapData, models.HeatmapEntry{
			Lat:       lat,
			Lng:       lng,
			Intensity: intensity,
			Data: &models.HeatmapEntryData{
				Intensity:  intensity,
				SalesCount: &count,
			},
		})
	}
	return nil
}

// clusterIdentification returns geographic clusters at a fixed scale
// plus one overlay point per cluster weighted by membership.
func clusterIdentification(resp *models.MapAnalysisResponse, records []spatial.GeoRecord) error {
	clusters, err := spatial.ClusterRecords(records, analysisClusterZoom, spatial.ModeGeographic)
	if err != nil {
		return fmt.Errorf("failed to cluster records: %w", err)
	}
	sortClusters(clusters)
	if clusters != nil {
		resp.Clusters = clusters
	}

	for _, c := range clusters {
		count := c.Count
		intensity := float64(count) / 100
		if intensity > 1 {
			intensity = 1
		}
		resp.HeatmapData = append(resp.HeatmapData, models.HeatmapEntry{
			Lat:       c.CenterLat,
			Lng:       c.CenterLng,
			Intensity: intensity,
			Data: &models.HeatmapEntryData{
				Intensity:  intensity,
				SalesCount: &count,
				AvgPrice:   c.AvgPrice,
			},
		})
	}
	return nil
}

// growthDecline splits the requested date range in half and scores each
// fixed grid cell by the change in average latest price between the
// halves. Both dates are required and must span at least thirty days;
// otherwise the overlay stays empty. Only cells with priced sales in
// both halves appear.
func (s *MapService) growthDecline(ctx context.Context, resp *models.MapAnalysisResponse, filter models.MapFilter) error {
	start, err := time.Parse(dateLayout, filter.StartDate)
	if err != nil {
		return nil
	}
	end, err := time.Parse(dateLayout, filter.EndDate)
	if err != nil {
		return nil
	}
	span := end.Sub(start)
	if span < growthMinSpan {
		return nil
	}
	mid := start.Add(span / 2)

	plan := spatial.PlanViewportQuery(filter.Zoom, spatial.PurposeAnalysis, s.caps)

	early := filter
	early.EndDate = mid.Format(dateLayout)
	earlyRecords, _, err := s.mapRepo.FetchViewport(ctx, early, plan.FetchLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch early window: %w", err)
	}

	late := filter
	late.StartDate = mid.Format(dateLayout)
	lateRecords, _, err := s.mapRepo.FetchViewport(ctx, late, plan.FetchLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch late window: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	earlyCells, err := spatial.BinRecords(earlyRecords, analysisCellSize)
	if err != nil {
		return fmt.Errorf("failed to bin records: %w", err)
	}
	lateCells, err := spatial.BinRecords(lateRecords, analysisCellSize)
	if err != nil {
		return fmt.Errorf("failed to bin records: %w", err)
	}

	for _, key := range sortedCellKeys(lateCells) {
		lateMembers := lateCells[key]
		earlyMembers, ok := earlyCells[key]
		if !ok {
			continue
		}
		earlyAvg := meanPrice(earlyMembers)
		lateAvg := meanPrice(lateMembers)
		if earlyAvg <= 0 || lateAvg <= 0 {
			continue
		}

		// Map +-100% change onto [0,1] around 0.5; larger swings clamp.
		change := (lateAvg - earlyAvg) / earlyAvg * 100
		intensity := change/200 + 0.5
		if intensity < 0 {
			intensity = 0
		}
		if intensity > 1 {
			intensity = 1
		}

		lat, lng, ok := spatial.Centroid(lateMembers)
		if !ok {
			continue
		}
		changeOut := math.Round(change*100) / 100
		earlyOut := stats.RoundEuros(earlyAvg)
		lateOut := stats.RoundEuros(lateAvg)
		resp.HeatmapData = append(resp.HeatmapData, models.HeatmapEntry{
			Lat:       lat,
			Lng:       lng,
			Intensity: intensity,
			Data: &models.HeatmapEntryData{
				Intensity:     intensity,
				ChangePercent: &changeOut,
				EarlyAvg:      &earlyOut,
				LateAvg:       &lateOut,
			},
		})
	}
	return nil
}

// priceHeatmap scores fixed grid cells by average price against the
// priciest cell. Unpriced records drop out before binning.
func priceHeatmap(resp *models.MapAnalysisResponse, records []spatial.GeoRecord) error {
	var priced []spatial.GeoRecord
	for _, r := range records {
		if r.Price != nil {
			priced = append(priced, r)
		}
	}
	cells, err := spatial.BinRecords(priced, analysisCellSize)
	if err != nil {
		return fmt.Errorf("failed to bin records: %w", err)
	}

	avgs := make(map[spatial.CellKey]float64, len(cells))
	var maxAvg float64
	for key, members := range cells {
		avg := meanPrice(members)
		if avg <= 0 {
			continue
		}
		avgs[key] = avg
		if avg > maxAvg {
			maxAvg = avg
		}
	}
	if maxAvg == 0 {
		return nil
	}

	for _, key := range sortedCellKeys(cells) {
		avg, ok := avgs[key]
		if !ok {
			continue
		}
		lat, lng, ok := spatial.Centroid(cells[key])
		if !ok {
			continue
		}
		intensity := avg / maxAvg
		avgOut := stats.RoundEuros(avg)
		resp.HeatmapData = append(resp.HeatmapData, models.HeatmapEntry{
			Lat:       lat,
			Lng:       lng,
			Intensity: intensity,
			Data: &models.HeatmapEntryData{
				Intensity: intensity,
				AvgPrice:  &avgOut,
			},
		})
	}
	return nil
}

// salesHeatmap scores fixed-scale geographic clusters by sales count
// against the busiest cluster.
func salesHeatmap(resp *models.MapAnalysisResponse, records []spatial.GeoRecord) error {
	clusters, err := spatial.ClusterRecords(records, analysisClusterZoom, spatial.ModeGeographic)
	if err != nil {
		return fmt.Errorf("failed to cluster records: %w", err)
	}
	sortClusters(clusters)

	maxCount := 0
	for _, c := range clusters {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	if maxCount == 0 {
		return nil
	}

	for _, c := range clusters {
		count := c.Count
		intensity := float64(count) / float64(maxCount)
		resp.HeatmapData = append(resp.HeatmapData, models.HeatmapEntry{
			Lat:       c.CenterLat,
			Lng:       c.CenterLng,
			Intensity: intensity,
			Data: &models.HeatmapEntryData{
				Intensity:  intensity,
				SalesCount: &count,
			},
		})
	}
	return nil
}

// meanPrice averages the priced members of a cell. Returns 0 when none
// carry a price.
func meanPrice(records []spatial.GeoRecord) float64 {
	var sum, n float64
	for _, r := range records {
		if r.Price != nil {
			sum += float64(*r.Price)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// normalizeGridCells clamps the requested lattice size.
func normalizeGridCells(n int) int {
	if n <= 0 {
		return spatial.DefaultGridCells
	}
	if n > maxGridCells {
		return maxGridCells
	}
	return n
}

// sortedCellKeys orders cell keys by row then column so grid overlays
// emit in a stable order.
func sortedCellKeys(cells map[spatial.CellKey][]spatial.GeoRecord) []spatial.CellKey {
	keys := make([]spatial.CellKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Col < keys[j].Col
	})
	return keys
}

// sortClusters orders clusters by descending count with coordinates
// breaking ties.
func sortClusters(clusters []spatial.Cluster) {
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Count != clusters[j].Count {
			return clusters[i].Count > clusters[j].Count
		}
		if clusters[i].CenterLat != clusters[j].CenterLat {
			return clusters[i].CenterLat < clusters[j].CenterLat
		}
		return clusters[i].CenterLng < clusters[j].CenterLng
	})
}

// analysisKey builds the cache key for one analysis request. The output
// format is excluded: GeoJSON conversion happens at the handler over
// the same cached body.
func analysisKey(f models.AnalysisFilter, mode string) string {
	return cache.Key(
		"analysis",
		mode,
		f.PatternType,
		strconv.FormatFloat(f.Intensity, 'f', 3, 64),
		strconv.Itoa(f.GridCells),
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
	)
}
