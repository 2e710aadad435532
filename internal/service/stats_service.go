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
	"github.com/surenab/ireland-property-market-backend/internal/repository"
	"github.com/surenab/ireland-property-market-backend/internal/stats"
)

// Trend periods accepted by PriceTrends. Unknown values fold to monthly.
const (
	PeriodMonthly   = "monthly"
	PeriodQuarterly = "quarterly"
	PeriodYearly    = "yearly"
)

// Clustering algorithms accepted by PriceClusters. Unknown values fold
// to kmeans.
const (
	AlgorithmKMeans = "kmeans"
	AlgorithmRange  = "range"
)

// Correlation variables accepted by Correlation. Unknown values fold to
// size.
const (
	VariableSize = "size"
	VariableDate = "date"
)

const (
	defaultClusterCount = 5
	minClusterCount     = 2
	maxClusterCount     = 20
)

// StatsService handles business logic for market statistics.
type StatsService struct {
	statsRepo *repository.StatsRepository
	store     cache.Store
	ttl       time.Duration
}

// NewStatsService creates a new stats service. store may be nil, which
// disables response caching.
func NewStatsService(statsRepo *repository.StatsRepository, store cache.Store, ttl time.Duration) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
		store:     store,
		ttl:       ttl,
	}
}

// PriceTrends aggregates sales into per-period price statistics. Every
// sale counts, not just the latest per property, so resale churn shows
// up in the series.
func (s *StatsService) PriceTrends(ctx context.Context, filter models.TrendFilter) (*models.PriceTrendsResponse, error) {
	period := normalizePeriod(filter.Period)
	filter.Period = period

	key := trendsKey(filter)
	var cached models.PriceTrendsResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	sales, err := s.statsRepo.FetchSales(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales: %w", err)
	}

	buckets := make(map[string][]float64)
	for _, sale := range sales {
		p, ok := periodKey(sale.DateOfSale, period)
		if !ok {
			continue
		}
		buckets[p] = append(buckets[p], float64(sale.Price))
	}

	points := make([]models.PricePoint, 0, len(buckets))
	for p, prices := range buckets {
		summary := stats.Describe(prices)
		points = append(points, models.PricePoint{
			Period: p,
			Avg:    stats.RoundEuros(summary.Mean),
			Median: summary.Median,
			StdDev: math.Round(summary.StdDev*100) / 100,
			Min:    int64(summary.Min),
			Max:    int64(summary.Max),
			Count:  summary.Count,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })

	resp := &models.PriceTrendsResponse{Period: period, Points: points}
	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// PriceClusters groups the latest sale price of every property into
// bands. KMeans seeds from sorted quantiles, so runs are deterministic;
// range splits the sorted sample into near-equal groups. Fewer
// properties than bands yields an empty cluster list.
func (s *StatsService) PriceClusters(ctx context.Context, filter models.ClusterStatsFilter) (*models.PriceClustersResponse, error) {
	n := filter.NClusters
	if n == 0 {
		n = defaultClusterCount
	}
	if n < minClusterCount {
		n = minClusterCount
	}
	if n > maxClusterCount {
		n = maxClusterCount
	}
	algorithm := filter.Algorithm
	if algorithm != AlgorithmRange {
		algorithm = AlgorithmKMeans
	}

	key := cache.Key("price-clusters", strconv.Itoa(n), algorithm, filter.County, filter.StartDate, filter.EndDate)
	var cached models.PriceClustersResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	prices, err := s.statsRepo.FetchLatestPrices(ctx, filter.County, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest prices: %w", err)
	}

	var bands []stats.Band
	if algorithm == AlgorithmRange {
		bands = stats.RangeBands(prices, n)
	} else {
		bands = stats.KMeans1D(prices, n)
	}

	clusters := make([]models.PriceCluster, 0, len(bands))
	for i, b := range bands {
		clusters = append(clusters, models.PriceCluster{
			ClusterID: i,
			MinPrice:  stats.RoundEuros(b.Min),
			MaxPrice:  stats.RoundEuros(b.Max),
			AvgPrice:  stats.RoundEuros(b.Mean),
			Count:     b.Count,
			Center:    b.Center,
		})
	}

	resp := &models.PriceClustersResponse{
		Clusters:  clusters,
		Algorithm: algorithm,
		Total:     len(prices),
	}
	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// CountyComparison summarizes latest sale prices per county, priciest
// county first.
func (s *StatsService) CountyComparison(ctx context.Context, filter models.CountyStatsFilter) (*models.CountyComparisonResponse, error) {
	key := cache.Key("county-comparison", filter.StartDate, filter.EndDate)
	var cached models.CountyComparisonResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	rows, err := s.statsRepo.FetchCountyPrices(ctx, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch county prices: %w", err)
	}

	byCounty := make(map[string][]float64)
	all := make([]float64, 0, len(rows))
	for _, row := range rows {
		byCounty[row.County] = append(byCounty[row.County], float64(row.Price))
		all = append(all, float64(row.Price))
	}

	counties := make([]models.CountyStats, 0, len(byCounty))
	for county, prices := range byCounty {
		summary := stats.Describe(prices)
		counties = append(counties, models.CountyStats{
			County: county,
			Count:  summary.Count,
			Avg:    stats.RoundEuros(summary.Mean),
			Median: summary.Median,
			Min:    int64(summary.Min),
			Max:    int64(summary.Max),
		})
	}
	sort.Slice(counties, func(i, j int) bool {
		if counties[i].Avg != counties[j].Avg {
			return counties[i].Avg > counties[j].Avg
		}
		return counties[i].County < counties[j].County
	})

	overall := stats.Describe(all)
	resp := &models.CountyComparisonResponse{
		Counties:      counties,
		OverallAvg:    stats.RoundEuros(overall.Mean),
		OverallMedian: overall.Median,
	}
	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// Correlation reports the Pearson correlation between sale price and
// either the declared property size or the sale date. Rows whose
// variable cannot be derived drop out of the sample.
func (s *StatsService) Correlation(ctx context.Context, filter models.CorrelationFilter) (*models.CorrelationResponse, error) {
	variable := filter.Variable
	if variable != VariableDate {
		variable = VariableSize
	}

	key := cache.Key("correlation", variable, filter.County)
	var cached models.CorrelationResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	sales, err := s.statsRepo.FetchCorrelationSales(ctx, filter.County)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch correlation sales: %w", err)
	}

	x := make([]float64, len(sales))
	y := make([]float64, len(sales))
	for i, sale := range sales {
		y[i] = float64(sale.Price)
		if variable == VariableDate {
			x[i] = dateValue(sale.DateOfSale)
		} else {
			x[i] = sizeEstimate(sale.SizeDesc)
		}
	}

	r, n := stats.Pearson(x, y)
	resp := &models.CorrelationResponse{
		Variable:       variable,
		Coefficient:    math.Round(r*10000) / 10000,
		Interpretation: stats.Interpret(r),
		SampleSize:     n,
	}
	if n < 2 {
		resp.Coefficient = 0
		resp.Interpretation = "Insufficient data"
	}

	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// DateRange reports the first and last sale date present plus every
// year in between. An empty table falls back to the last two years so
// date pickers still render.
func (s *StatsService) DateRange(ctx context.Context) (*models.DateRangeResponse, error) {
	key := cache.Key("date-range")
	var cached models.DateRangeResponse
	if fromCache(s.store, key, &cached) {
		return &cached, nil
	}

	minDate, maxDate, err := s.statsRepo.DateRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch date range: %w", err)
	}

	if minDate == "" || maxDate == "" {
		year := time.Now().Year()
		minDate = fmt.Sprintf("%d-01-01", year-1)
		maxDate = fmt.Sprintf("%d-12-31", year)
	}

	resp := &models.DateRangeResponse{
		MinDate: minDate,
		MaxDate: maxDate,
		Years:   yearsBetween(minDate, maxDate),
	}
	toCache(s.store, key, resp, s.ttl)
	return resp, nil
}

// normalizePeriod folds unknown period values to monthly.
func normalizePeriod(p string) string {
	switch p {
	case PeriodQuarterly, PeriodYearly:
		return p
	default:
		return PeriodMonthly
	}
}

// periodKey folds a YYYY-MM-DD date into its period bucket: 2021-03,
// 2021-Q1 or 2021. Malformed dates are dropped.
func periodKey(date, period string) (string, bool) {
	if len(date) < 7 {
		return "", false
	}
	switch period {
	case PeriodYearly:
		return date[:4], true
	case PeriodQuarterly:
		month, err := strconv.Atoi(date[5:7])
		if err != nil || month < 1 || month > 12 {
			return "", false
		}
		return fmt.Sprintf("%s-Q%d", date[:4], (month+2)/3), true
	default:
		return date[:7], true
	}
}

// sizeEstimate maps the free-text size declarations in the register to
// rough square-metre midpoints. Descriptions that fit no band yield NaN
// and drop out of the correlation sample.
func sizeEstimate(desc *string) float64 {
	if desc == nil {
		return math.NaN()
	}
	d := strings.ToLower(*desc)
	switch {
	case strings.Contains(d, "38") && strings.Contains(d, "125"):
		return 81.5
	case strings.Contains(d, "less than 38"):
		return 19.0
	case strings.Contains(d, "125"):
		return 150.0
	default:
		return math.NaN()
	}
}

// dateValue maps a YYYY-MM-DD date to epoch seconds.
func dateValue(date string) float64 {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return math.NaN()
	}
	return float64(t.Unix())
}

// yearsBetween lists the years spanned by two YYYY-MM-DD dates.
func yearsBetween(minDate, maxDate string) []int {
	if len(minDate) < 4 || len(maxDate) < 4 {
		return nil
	}
	lo, err := strconv.Atoi(minDate[:4])
	if err != nil {
		return nil
	}
	hi, err := strconv.Atoi(maxDate[:4])
	if err != nil || hi < lo {
		return nil
	}
	years := make([]int, 0, hi-lo+1)
	for y := lo; y <= hi; y++ {
		years = append(years, y)
	}
	return years
}

// trendsKey builds the cache key for one trend query.
func trendsKey(f models.TrendFilter) string {
	return cache.Key(
		"price-trends",
		f.Period,
		f.County,
		priceKey(f.MinPrice),
		priceKey(f.MaxPrice),
		f.StartDate,
		f.EndDate,
	)
}
