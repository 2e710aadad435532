package spatial

import "math"

// BinRecords partitions records into fixed-size grid cells keyed by
// floored lat/lng division. Records missing either coordinate are
// skipped. Floor (not truncation) keeps cells aligned at negative
// coordinates: two records share a cell exactly when their floored
// coordinate pairs match.
func BinRecords(records []GeoRecord, cellSize float64) (map[CellKey][]GeoRecord, error) {
	if cellSize <= 0 {
		return nil, ErrInvalidCellSize
	}

	cells := make(map[CellKey][]GeoRecord)
	for _, r := range records {
		if !r.HasCoords() {
			continue
		}
		key := CellKey{
			Row: int(math.Floor(*r.Lat / cellSize)),
			Col: int(math.Floor(*r.Lng / cellSize)),
		}
		cells[key] = append(cells[key], r)
	}
	return cells, nil
}

// ClusterCellSize returns the cell size in degrees for the cluster path:
// 0.5 degrees at zoom 5, halving per zoom level, floored at 0.01.
func ClusterCellSize(zoom int) float64 {
	size := 0.5 / math.Pow(2, float64(zoom-5))
	if size < 0.01 {
		return 0.01
	}
	return size
}

// StepCellSize returns the cell size for the exact-count aggregator. It
// moves in coarse steps rather than the cluster path's smooth halving;
// the two scales are tuned independently.
func StepCellSize(zoom int) float64 {
	switch {
	case zoom <= 4:
		return 0.1
	case zoom <= 7:
		return 0.05
	case zoom <= 10:
		return 0.01
	default:
		return 0.005
	}
}

// CellBounds returns the geographic extent of one cell.
func CellBounds(key CellKey, cellSize float64) BoundingBox {
	south := float64(key.Row) * cellSize
	west := float64(key.Col) * cellSize
	return BoundingBox{
		North: south + cellSize,
		South: south,
		East:  west + cellSize,
		West:  west,
	}
}
