package main

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

const requestEventName = "http.request"

// logRecord is one JSON line written by the request logger.
type logRecord struct {
	Message    string  `json:"msg"`
	Method     string  `json:"method"`
	Route      string  `json:"route"`
	Status     int     `json:"status"`
	TotalMs    float64 `json:"total_ms"`
	Severity   string  `json:"severity_text"`
	ErrorStage string  `json:"error_stage"`
}

type collector struct {
	eventName string
	skipped   int
	total     routeStats
	routes    map[string]*routeStats
}

type routeStats struct {
	Count          int
	SeverityCounts map[string]int
	StatusCounts   map[int]int
	ErrorStages    map[string]int
	Duration       numericStats
}

type numericStats struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
}

type durationSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min_ms"`
	Max   float64 `json:"max_ms"`
	Avg   float64 `json:"avg_ms"`
}

type routeSummary struct {
	Route          string          `json:"route"`
	Requests       int             `json:"requests"`
	SeverityCounts map[string]int  `json:"severity_counts"`
	StatusCounts   map[string]int  `json:"status_counts"`
	ErrorStages    map[string]int  `json:"error_stages,omitempty"`
	DurationMs     durationSummary `json:"duration_ms"`
}

type summaryOutput struct {
	EventName    string         `json:"event_name"`
	Total        routeSummary   `json:"total"`
	Routes       []routeSummary `json:"routes"`
	SkippedLines int            `json:"skipped_lines"`
}

func newCollector(eventName string) *collector {
	return &collector{
		eventName: eventName,
		total:     newRouteStats(),
		routes:    make(map[string]*routeStats),
	}
}

func newRouteStats() routeStats {
	return routeStats{
		SeverityCounts: make(map[string]int),
		StatusCounts:   make(map[int]int),
		ErrorStages:    make(map[string]int),
		Duration:       numericStats{Min: math.MaxFloat64},
	}
}

func (c *collector) ingest(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	// docker compose prefixes lines with "service |"
	if pipe := strings.Index(trimmed, "|"); pipe >= 0 && !strings.HasPrefix(trimmed, "{") {
		trimmed = strings.TrimSpace(trimmed[pipe+1:])
	}

	var rec logRecord
	if err := sonic.UnmarshalString(trimmed, &rec); err != nil {
		c.skipped++
		return
	}
	if rec.Message != c.eventName {
		return
	}

	key := rec.Method + " " + rec.Route
	rs, ok := c.routes[key]
	if !ok {
		s := newRouteStats()
		rs = &s
		c.routes[key] = rs
	}
	c.total.add(rec)
	rs.add(rec)
}

func (s *routeStats) add(rec logRecord) {
	s.Count++
	severity := strings.ToUpper(strings.TrimSpace(rec.Severity))
	if severity == "" {
		severity = "UNSPECIFIED"
	}
	s.SeverityCounts[severity]++
	if rec.Status > 0 {
		s.StatusCounts[rec.Status]++
	}
	if rec.ErrorStage != "" {
		s.ErrorStages[rec.ErrorStage]++
	}
	s.Duration.add(rec.TotalMs)
}

func (n *numericStats) add(value float64) {
	n.Count++
	n.Sum += value
	if value < n.Min {
		n.Min = value
	}
	if value > n.Max {
		n.Max = value
	}
}

func (n numericStats) summary() durationSummary {
	if n.Count == 0 {
		return durationSummary{}
	}
	return durationSummary{Count: n.Count, Min: n.Min, Max: n.Max, Avg: n.Sum / float64(n.Count)}
}

func (s routeStats) summary(route string) routeSummary {
	statuses := make(map[string]int, len(s.StatusCounts))
	for status, count := range s.StatusCounts {
		statuses[strconv.Itoa(status)] = count
	}
	var stages map[string]int
	if len(s.ErrorStages) > 0 {
		stages = s.ErrorStages
	}
	return routeSummary{
		Route:          route,
		Requests:       s.Count,
		SeverityCounts: s.SeverityCounts,
		StatusCounts:   statuses,
		ErrorStages:    stages,
		DurationMs:     s.Duration.summary(),
	}
}

func (c *collector) summary() summaryOutput {
	routes := make([]routeSummary, 0, len(c.routes))
	for key, rs := range c.routes {
		routes = append(routes, rs.summary(key))
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Requests != routes[j].Requests {
			return routes[i].Requests > routes[j].Requests
		}
		return routes[i].Route < routes[j].Route
	})
	return summaryOutput{
		EventName:    c.eventName,
		Total:        c.total.summary("*"),
		Routes:       routes,
		SkippedLines: c.skipped,
	}
}

func (s summaryOutput) ShortString() string {
	t := s.Total
	return strings.Join([]string{
		"event=" + s.EventName,
		"requests=" + strconv.Itoa(t.Requests),
		"routes=" + strconv.Itoa(len(s.Routes)),
		"warn=" + strconv.Itoa(t.SeverityCounts["WARN"]),
		"error=" + strconv.Itoa(t.SeverityCounts["ERROR"]),
		"avg_total_ms=" + formatFloat(t.DurationMs.Avg),
		"max_total_ms=" + formatFloat(t.DurationMs.Max),
	}, " ")
}

func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
