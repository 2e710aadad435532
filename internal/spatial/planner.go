package spatial

import "math/rand"

// Purpose names what a viewport fetch feeds, which decides how many
// records the planner allows through.
type Purpose string

const (
	PurposePoints   Purpose = "points"
	PurposeClusters Purpose = "clusters"
	PurposeGrid     Purpose = "grid"
	PurposeAnalysis Purpose = "analysis"
)

// Default planner caps per regime.
const (
	DefaultLowZoomCap  = 500
	DefaultHighZoomCap = 5000
	DefaultAnalysisCap = 140000
)

// Caps overrides the default planner limits. Zero fields keep defaults.
type Caps struct {
	LowZoom  int
	HighZoom int
	Analysis int
}

// QueryPlan bounds one viewport fetch. FetchLimit is the row limit
// handed to the repository; RecordCap is how many records the response
// may carry. With Randomize set, the overfetched rows are sampled down
// to RecordCap uniformly instead of truncated head-first, so the visible
// subset is not biased toward whatever the store returns first.
type QueryPlan struct {
	RecordCap  int
	FetchLimit int
	Randomize  bool
}

// PlanViewportQuery picks fetch limits for a viewport query. Wide views
// (zoom <= 9) overfetch threefold and sample; close views truncate
// deterministically at a higher cap; grid and analysis purposes get a
// cap large enough that their exact counts stay exact in practice. The
// plan never requires counting the full result set up front.
func PlanViewportQuery(zoom int, purpose Purpose, caps Caps) QueryPlan {
	switch purpose {
	case PurposeGrid, PurposeAnalysis:
		limit := caps.Analysis
		if limit <= 0 {
			limit = DefaultAnalysisCap
		}
		return QueryPlan{RecordCap: limit, FetchLimit: limit}
	}

	if zoom <= 9 {
		limit := caps.LowZoom
		if limit <= 0 {
			limit = DefaultLowZoomCap
		}
		return QueryPlan{RecordCap: limit, FetchLimit: 3 * limit, Randomize: true}
	}

	limit := caps.HighZoom
	if limit <= 0 {
		limit = DefaultHighZoomCap
	}
	return QueryPlan{RecordCap: limit, FetchLimit: limit}
}

// Sample returns up to n records drawn uniformly without replacement.
// The input slice is left untouched. rng may be nil, which uses the
// shared source; tests inject a seeded one.
func Sample(records []GeoRecord, n int, rng *rand.Rand) []GeoRecord {
	if n <= 0 {
		return nil
	}
	if len(records) <= n {
		out := make([]GeoRecord, len(records))
		copy(out, records)
		return out
	}

	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	swap := func(i, j int) { idx[i], idx[j] = idx[j], idx[i] }
	if rng != nil {
		rng.Shuffle(len(idx), swap)
	} else {
		rand.Shuffle(len(idx), swap)
	}

	out := make([]GeoRecord, n)
	for i := 0; i < n; i++ {
		out[i] = records[idx[i]]
	}
	return out
}
