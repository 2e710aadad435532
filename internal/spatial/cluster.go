package spatial

import "math"

// PriceBucket is one fixed price band used by price-mode clustering.
// Bounds are lower-inclusive: Lo <= price < Hi.
type PriceBucket struct {
	Name string
	Lo   int64
	Hi   int64
}

// PriceBuckets are the fixed bands price-mode clustering partitions
// records into before spatial grouping.
var PriceBuckets = []PriceBucket{
	{Name: "0-100k", Lo: 0, Hi: 100_000},
	{Name: "100k-200k", Lo: 100_000, Hi: 200_000},
	{Name: "200k-300k", Lo: 200_000, Hi: 300_000},
	{Name: "300k-400k", Lo: 300_000, Hi: 400_000},
	{Name: "400k-500k", Lo: 400_000, Hi: 500_000},
	{Name: "500k-750k", Lo: 500_000, Hi: 750_000},
	{Name: "750k-1M", Lo: 750_000, Hi: 1_000_000},
	{Name: "1M+", Lo: 1_000_000, Hi: math.MaxInt64},
}

// BucketFor returns the index of the band containing price, or -1 for
// negative values.
func BucketFor(price int64) int {
	for i, b := range PriceBuckets {
		if price >= b.Lo && price < b.Hi {
			return i
		}
	}
	return -1
}

// ClusterRecords groups records into one cluster per occupied grid cell
// at the ClusterCellSize for zoom. Price mode partitions records into
// PriceBuckets first and clusters each band separately; records without
// a price are dropped from that mode. Size mode behaves like geographic
// grouping until the source data carries a usable size field. Cluster
// order is unspecified.
func ClusterRecords(records []GeoRecord, zoom int, mode ClusterMode) ([]Cluster, error) {
	cellSize := ClusterCellSize(zoom)

	if mode != ModePrice {
		return clusterGroup(records, cellSize, "")
	}

	byBucket := make([][]GeoRecord, len(PriceBuckets))
	for _, r := range records {
		if r.Price == nil {
			continue
		}
		if i := BucketFor(*r.Price); i >= 0 {
			byBucket[i] = append(byBucket[i], r)
		}
	}

	var clusters []Cluster
	for i, group := range byBucket {
		if len(group) == 0 {
			continue
		}
		cs, err := clusterGroup(group, cellSize, PriceBuckets[i].Name)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, cs...)
	}
	return clusters, nil
}

// clusterGroup bins one record set and folds every occupied cell into a
// Cluster. Single-member cells yield degenerate clusters: count 1, the
// member's own coordinate as center, zero-area bounds.
func clusterGroup(records []GeoRecord, cellSize float64, bucket string) ([]Cluster, error) {
	cells, err := BinRecords(records, cellSize)
	if err != nil {
		return nil, err
	}

	clusters := make([]Cluster, 0, len(cells))
	for _, members := range cells {
		lat, lng, _ := Centroid(members)
		bounds, _ := BoundsOf(members)
		avg, _, _ := PriceStats(members)

		clusters = append(clusters, Cluster{
			CenterLat:   lat,
			CenterLng:   lng,
			Count:       len(members),
			Bounds:      bounds,
			AvgPrice:    avg,
			PriceBucket: bucket,
			Members:     members,
		})
	}
	return clusters, nil
}
