package intent

import (
	"strings"

	"github.com/queryforge/queryforge/internal/domain"
)

// Category vocabulary, checked in order. Aggregation wins over time
// series so "daily count of X" still lands on aggregation tooling with a
// date histogram added by the aggregation rules.
var (
	aggregationVocab = []string{
		"aggregate", "group by", "count of", "average", "sum of",
		"stats", "metrics", "distribution",
	}
	timeSeriesVocab = []string{
		"trend", "over time", "time series", "histogram", "last hour", "daily",
	}
	geoVocab = []string{
		"location", "near", "within", "geo", "distance", "coordinates",
	}
)

// detectQueryType scans lowercase text for category vocabulary.
func detectQueryType(lower string) domain.QueryType {
	for _, kw := range aggregationVocab {
		if strings.Contains(lower, kw) {
			return domain.QueryTypeAggregation
		}
	}
	for _, kw := range timeSeriesVocab {
		if strings.Contains(lower, kw) {
			return domain.QueryTypeTimeSeries
		}
	}
	for _, kw := range geoVocab {
		if strings.Contains(lower, kw) {
			return domain.QueryTypeGeospatial
		}
	}
	return domain.QueryTypeSearch
}
