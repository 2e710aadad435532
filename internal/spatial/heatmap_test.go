package spatial

import (
	"testing"
)

var testBox = BoundingBox{North: 54.0, South: 53.0, East: -6.0, West: -7.0}

func TestHeatmapIntensityNormalized(t *testing.T) {
	// Three records in one cell, one in another: the dense cell must hit
	// intensity exactly 1, everything stays within [0, 1].
	records := []GeoRecord{
		rec(1, 53.101, -6.901, i64(100000)),
		rec(2, 53.102, -6.902, i64(200000)),
		rec(3, 53.103, -6.903, nil),
		rec(4, 53.901, -6.101, i64(500000)),
	}

	cells, err := HeatmapPolygons(records, testBox, "density-heatmap", DefaultGridCells)
	if err != nil {
		t.Fatalf("HeatmapPolygons: %v", err)
	}
	if len(cells) != 2 {
		t.Fatalf("got %d cells, want 2", len(cells))
	}

	sawMax := false
	for _, c := range cells {
		in := c.Metadata.Intensity
		if in < 0 || in > 1 {
			t.Errorf("intensity %v outside [0, 1]", in)
		}
		if in == 1.0 {
			sawMax = true
			if c.Metadata.SalesCount != 3 {
				t.Errorf("max intensity cell has count %d, want 3", c.Metadata.SalesCount)
			}
			if c.Metadata.AvgPrice == nil || *c.Metadata.AvgPrice != 150000 {
				t.Errorf("avg price = %v, want 150000 (unpriced member excluded)", c.Metadata.AvgPrice)
			}
		}
	}
	if !sawMax {
		t.Error("no cell reached intensity 1 despite non-empty input")
	}
}

func TestHeatmapSparseEmission(t *testing.T) {
	// Everything in one corner: a 40x40 lattice has 1600 cells but only
	// the occupied handful may be emitted.
	records := make([]GeoRecord, 0, 200)
	for i := 0; i < 200; i++ {
		lat := 53.001 + float64(i)*0.00001
		lng := -6.999 + float64(i)*0.00001
		records = append(records, rec(int64(i+1), lat, lng, i64(300000)))
	}

	cells, err := HeatmapPolygons(records, testBox, "density-heatmap", 40)
	if err != nil {
		t.Fatalf("HeatmapPolygons: %v", err)
	}
	if len(cells) == 0 || len(cells) > 4 {
		t.Errorf("emitted %d cells, want a handful (sparse output, not 1600)", len(cells))
	}

	total := 0
	for _, c := range cells {
		total += c.Metadata.SalesCount
	}
	if total != 200 {
		t.Errorf("cells account for %d records, want 200", total)
	}
}

func TestHeatmapBoundaryRecordKept(t *testing.T) {
	// A record exactly on the north-east viewport corner lands in the
	// last cell instead of falling out of range.
	records := []GeoRecord{rec(1, testBox.North, testBox.East, i64(250000))}

	cells, err := HeatmapPolygons(records, testBox, "density-heatmap", 10)
	if err != nil {
		t.Fatalf("HeatmapPolygons: %v", err)
	}
	if len(cells) != 1 {
		t.Fatalf("got %d cells, want 1 (max-edge record belongs to the last cell)", len(cells))
	}

	ring := cells[0].Coordinates[0]
	// Ring points are [lng, lat]; the cell must touch the box corner.
	if ring[2][0] != testBox.East || ring[2][1] != testBox.North {
		t.Errorf("cell corner = %v, want the viewport corner [%v, %v]",
			ring[2], testBox.East, testBox.North)
	}
}

func TestHeatmapOutOfViewportSkipped(t *testing.T) {
	records := []GeoRecord{
		rec(1, 52.0, -6.5, i64(100000)), // south of the box
		rec(2, 53.5, -5.0, i64(100000)), // east of the box
		rec(3, 53.5, -6.5, i64(100000)), // inside
	}

	cells, err := HeatmapPolygons(records, testBox, "density-heatmap", 20)
	if err != nil {
		t.Fatalf("HeatmapPolygons: %v", err)
	}
	if len(cells) != 1 || cells[0].Metadata.SalesCount != 1 {
		t.Fatalf("cells = %+v, want one cell holding only the in-box record", cells)
	}
}

func TestHeatmapRingShape(t *testing.T) {
	records := []GeoRecord{rec(1, 53.25, -6.75, i64(400000))}

	cells, err := HeatmapPolygons(records, testBox, "density-heatmap", 4)
	if err != nil {
		t.Fatalf("HeatmapPolygons: %v", err)
	}
	if len(cells) != 1 {
		t.Fatalf("got %d cells, want 1", len(cells))
	}

	poly := cells[0].Coordinates
	if len(poly) != 1 {
		t.Fatalf("polygon has %d rings, want 1", len(poly))
	}
	ring := poly[0]
	if len(ring) != 5 {
		t.Fatalf("ring has %d points, want 5 (closed rectangle)", len(ring))
	}
	if ring[0] != ring[4] {
		t.Errorf("ring not closed: first %v, last %v", ring[0], ring[4])
	}

	// 4x4 lattice over a 1x1 degree box: the record at (53.25, -6.75)
	// belongs to row 1, col 1; cells are 0.25 degrees.
	west, south := ring[0][0], ring[0][1]
	if !approxEqual(west, -6.75, 1e-9) || !approxEqual(south, 53.25, 1e-9) {
		t.Errorf("cell origin = (%v, %v), want (-6.75, 53.25)", west, south)
	}
}

func TestHeatmapRejectsBadParameters(t *testing.T) {
	records := []GeoRecord{rec(1, 53.5, -6.5, nil)}

	if _, err := HeatmapPolygons(records, testBox, "density-heatmap", 0); err != ErrInvalidGridCells {
		t.Errorf("gridCells=0: err = %v, want ErrInvalidGridCells", err)
	}
	if _, err := HeatmapPolygons(records, testBox, "density-heatmap", -5); err != ErrInvalidGridCells {
		t.Errorf("gridCells=-5: err = %v, want ErrInvalidGridCells", err)
	}

	inverted := BoundingBox{North: 53.0, South: 54.0, East: -7.0, West: -6.0}
	if _, err := HeatmapPolygons(records, inverted, "density-heatmap", 10); err != ErrInvalidBounds {
		t.Errorf("inverted box: err = %v, want ErrInvalidBounds", err)
	}
}

func TestHeatmapEmptyInput(t *testing.T) {
	cells, err := HeatmapPolygons(nil, testBox, "density-heatmap", 40)
	if err != nil {
		t.Fatalf("HeatmapPolygons: %v", err)
	}
	if len(cells) != 0 {
		t.Errorf("got %d cells for empty input, want 0", len(cells))
	}
}
