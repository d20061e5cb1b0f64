package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/queryforge/queryforge/internal/domain"
)

// Timeframe patterns, first match wins.
var (
	reRelative  = regexp.MustCompile(`(?:last|past)\s+(\d+)?\s*(minute|hour|day|week|month|year)s?\b`)
	reSince     = regexp.MustCompile(`since\s+(\d{4}-\d{2}-\d{2})`)
	reFromTo    = regexp.MustCompile(`from\s+(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})`)
	reNamed     = regexp.MustCompile(`\b(today|yesterday|this week|this month)\b`)
	reTimeField = regexp.MustCompile(`(?:using\s+([\w.@]+)\s+as\s+timestamp|timestamp\s+field\s+([\w.@]+)|time\s+field\s+([\w.@]+))`)
)

// extractTimeframe applies the ordered timeframe patterns. With no
// explicit window, recency vocabulary or a time-series category defaults
// to the last 24 hours.
func extractTimeframe(lower string, queryType domain.QueryType) *domain.Timeframe {
	field := timeFieldHint(lower)

	if m := reRelative.FindStringSubmatch(lower); m != nil {
		value := 1
		if m[1] != "" {
			if n, err := strconv.Atoi(m[1]); err == nil {
				value = n
			}
		}
		return &domain.Timeframe{
			Type:  domain.TimeframeRelative,
			Field: field,
			Value: value,
			Unit:  m[2],
		}
	}

	if m := reFromTo.FindStringSubmatch(lower); m != nil {
		return &domain.Timeframe{
			Type:  domain.TimeframeAbsolute,
			Field: field,
			From:  m[1],
			To:    m[2],
		}
	}

	if m := reSince.FindStringSubmatch(lower); m != nil {
		return &domain.Timeframe{
			Type:  domain.TimeframeAbsolute,
			Field: field,
			From:  m[1],
		}
	}

	if m := reNamed.FindStringSubmatch(lower); m != nil {
		return &domain.Timeframe{
			Type:   domain.TimeframeNamed,
			Field:  field,
			Period: m[1],
		}
	}

	impliesRecency := strings.Contains(lower, "recent") || strings.Contains(lower, "latest")
	if impliesRecency || queryType == domain.QueryTypeTimeSeries {
		return &domain.Timeframe{
			Type:  domain.TimeframeRelative,
			Field: field,
			Value: 24,
			Unit:  "hour",
		}
	}

	return nil
}

// timeFieldHint finds an explicitly named timestamp field, defaulting to
// "@timestamp".
func timeFieldHint(lower string) string {
	if m := reTimeField.FindStringSubmatch(lower); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				return g
			}
		}
	}
	return defaultTimeField
}
