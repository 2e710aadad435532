package spatial

import "math"

// Centroid returns the arithmetic mean coordinate over records that
// carry coordinates. ok is false when none do.
func Centroid(records []GeoRecord) (lat, lng float64, ok bool) {
	var sumLat, sumLng float64
	var n int
	for _, r := range records {
		if !r.HasCoords() {
			continue
		}
		sumLat += *r.Lat
		sumLng += *r.Lng
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sumLat / float64(n), sumLng / float64(n), true
}

// BoundsOf returns the tight bounding box around records with
// coordinates. ok is false when none have them. A single record yields a
// degenerate zero-area box.
func BoundsOf(records []GeoRecord) (BoundingBox, bool) {
	var b BoundingBox
	found := false
	for _, r := range records {
		if !r.HasCoords() {
			continue
		}
		lat, lng := *r.Lat, *r.Lng
		if !found {
			b = BoundingBox{North: lat, South: lat, East: lng, West: lng}
			found = true
			continue
		}
		if lat > b.North {
			b.North = lat
		}
		if lat < b.South {
			b.South = lat
		}
		if lng > b.East {
			b.East = lng
		}
		if lng < b.West {
			b.West = lng
		}
	}
	return b, found
}

// PriceStats returns the rounded average, minimum and maximum over
// records that carry a price. All three are nil when none do; a missing
// price is never treated as zero.
func PriceStats(records []GeoRecord) (avg, min, max *int64) {
	var sum int64
	var lo, hi int64
	n := 0
	for _, r := range records {
		if r.Price == nil {
			continue
		}
		p := *r.Price
		if n == 0 || p < lo {
			lo = p
		}
		if n == 0 || p > hi {
			hi = p
		}
		sum += p
		n++
	}
	if n == 0 {
		return nil, nil, nil
	}
	a := int64(math.Round(float64(sum) / float64(n)))
	return &a, &lo, &hi
}
