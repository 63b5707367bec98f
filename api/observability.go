package api

import (
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName       = "taskmanager-api"
	requestEventName = "http.request"
	metricsKey       = "request.metrics"
)

// requestMetrics collects what is known about a request while it runs and
// emits one log entry and one span per request.
type requestMetrics struct {
	logger     *log.Logger
	span       trace.Span
	start      time.Time
	method     string
	route      string
	requestID  string
	userID     int64
	errorStage string
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if m == nil || stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *requestMetrics) SetUser(id int64) {
	if m == nil {
		return
	}
	m.userID = id
}

func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	severity, number := severityForStatus(status, err)
	total := durationToMillis(time.Since(m.start))

	attrs := []attribute.KeyValue{
		attribute.String("http.method", m.method),
		attribute.String("http.route", m.route),
		attribute.Int("http.status_code", status),
		attribute.Float64("taskmanager.total_ms", total),
		attribute.String("severity_text", severity),
	}
	fields := log.Fields{
		"method":          m.method,
		"route":           m.route,
		"status":          status,
		"total_ms":        total,
		"severity_text":   severity,
		"severity_number": number,
	}
	if m.requestID != "" {
		fields["request_id"] = m.requestID
		attrs = append(attrs, attribute.String("http.request_id", m.requestID))
	}
	if m.userID > 0 {
		fields["user_id"] = m.userID
		attrs = append(attrs, attribute.Int64("enduser.id", m.userID))
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
		attrs = append(attrs, attribute.String("taskmanager.error_stage", m.errorStage))
	}
	if err != nil {
		fields["error"] = err.Error()
		attrs = append(attrs, attribute.String("error.message", err.Error()))
	}

	if m.span != nil {
		if sc := m.span.SpanContext(); sc.HasTraceID() {
			fields["trace_id"] = sc.TraceID().String()
		}
		m.span.SetAttributes(attrs...)
		m.span.AddEvent(requestEventName, trace.WithAttributes(attrs...))
		switch {
		case status >= 500:
			if err != nil {
				m.span.RecordError(err)
			}
			m.span.SetStatus(codes.Error, errorDescription(status, err))
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	entry := m.logger.WithFields(fields)
	switch severity {
	case "ERROR":
		entry.Error(requestEventName)
	case "WARN":
		entry.Warn(requestEventName)
	default:
		entry.Info(requestEventName)
	}
}

func errorDescription(status int, err error) string {
	if err != nil {
		return err.Error()
	}
	return "server error"
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= 500:
		return "ERROR", 17
	case status >= 400:
		return "WARN", 13
	case err != nil:
		return "ERROR", 17
	}
	return "INFO", 9
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

func metricsFrom(c echo.Context) *requestMetrics {
	m, _ := c.Get(metricsKey).(*requestMetrics)
	return m
}

// requestObservability opens a server span for every request and logs its
// outcome. Handler errors are rendered here so the logged status is final.
func requestObservability(logger *log.Logger) echo.MiddlewareFunc {
	tracer := otel.Tracer(tracerName)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			ctx, span := tracer.Start(req.Context(), req.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
			c.SetRequest(req.WithContext(ctx))

			m := &requestMetrics{
				logger:    logger,
				span:      span,
				start:     time.Now(),
				method:    req.Method,
				route:     route,
				requestID: c.Response().Header().Get(echo.HeaderXRequestID),
			}
			c.Set(metricsKey, m)

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			m.Log(c.Response().Status, err)
			return nil
		}
	}
}
