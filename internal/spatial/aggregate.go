package spatial

import (
	"sort"

	"github.com/mmcloughlin/geohash"
)

// AggregateRecords folds every record into fixed grid cells sized by
// StepCellSize(zoom) and returns exact per-cell counts and price stats.
// Unlike the cluster path this never samples; callers feed it the full
// viewport fetch, so the counts shown at low zoom are real. Cell order
// is unspecified.
func AggregateRecords(records []GeoRecord, zoom int) ([]GridAggregate, error) {
	cellSize := StepCellSize(zoom)
	cells, err := BinRecords(records, cellSize)
	if err != nil {
		return nil, err
	}

	precision := cellGeohashPrecision(cellSize)
	aggregates := make([]GridAggregate, 0, len(cells))
	for key, members := range cells {
		lat, lng, _ := Centroid(members)
		avg, lo, hi := PriceStats(members)
		bounds := CellBounds(key, cellSize)

		ids := make([]int64, len(members))
		for i, m := range members {
			ids[i] = m.ID
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		midLat := (bounds.South + bounds.North) / 2
		midLng := (bounds.West + bounds.East) / 2

		aggregates = append(aggregates, GridAggregate{
			CellID:      geohash.EncodeWithPrecision(midLat, midLng, precision),
			CenterLat:   lat,
			CenterLng:   lng,
			Count:       len(members),
			PropertyIDs: ids,
			AvgPrice:    avg,
			MinPrice:    lo,
			MaxPrice:    hi,
			Bounds:      bounds,
		})
	}
	return aggregates, nil
}

// cellGeohashPrecision picks a geohash length whose cells are finer than
// the aggregation grid, so midpoints of distinct cells never collide.
func cellGeohashPrecision(cellSize float64) uint {
	if cellSize >= 0.05 {
		return 5
	}
	return 7
}
