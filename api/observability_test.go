package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"taskmanager-api/domain"
)

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
		otel.SetTracerProvider(prev)
	})
	return tp, exporter
}

func attributesToMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func requestEntries(hook *test.Hook) []*log.Entry {
	var out []*log.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == requestEventName {
			out = append(out, e)
		}
	}
	return out
}

func TestRequestObservabilityRecordsSpanAndLog(t *testing.T) {
	tp, exporter := setupTestTracer(t)
	f := newFixture(t, nil)
	user := f.seedUser("walt", domain.StatusUser)
	token := f.tokenFor(user)

	req := httptest.NewRequest(http.MethodGet, "/api/task/my-tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(f, req)
	expectStatus(t, rec, http.StatusOK)

	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}

	entries := requestEntries(f.hook)
	if len(entries) != 1 {
		t.Fatalf("expected one request log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != log.InfoLevel || entry.Data["route"] != "/api/task/my-tasks" || entry.Data["status"] != http.StatusOK {
		t.Fatalf("unexpected entry %v %v", entry.Level, entry.Data)
	}
	if entry.Data["user_id"] != user.ID {
		t.Fatalf("expected user id on entry, got %#v", entry.Data["user_id"])
	}
	if id, _ := entry.Data["request_id"].(string); id == "" || id != rec.Header().Get("X-Request-Id") {
		t.Fatalf("expected request id %q on entry, got %#v", rec.Header().Get("X-Request-Id"), entry.Data["request_id"])
	}
	if traceID, ok := entry.Data["trace_id"].(string); !ok || traceID == "" {
		t.Fatalf("expected trace_id to be recorded, got %#v", entry.Data["trace_id"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "GET /api/task/my-tasks" {
		t.Fatalf("unexpected span name %s", span.Name)
	}
	attrs := attributesToMap(span.Attributes)
	if code, ok := attrs["http.status_code"].(int64); !ok || code != http.StatusOK {
		t.Fatalf("unexpected http.status_code on span: %#v", attrs["http.status_code"])
	}
	if span.Status.Code != codes.Ok {
		t.Fatalf("expected span status Ok, got %v", span.Status.Code)
	}
	var found bool
	for _, ev := range span.Events {
		if ev.Name == requestEventName {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s span event, got %#v", requestEventName, span.Events)
	}
}

func TestRequestObservabilityRecordsAuthFailure(t *testing.T) {
	_, exporter := setupTestTracer(t)
	f := newFixture(t, nil)

	rec := serve(f, httptest.NewRequest(http.MethodGet, "/api/desk/all", nil))
	expectStatus(t, rec, http.StatusUnauthorized)

	entries := requestEntries(f.hook)
	if len(entries) != 1 {
		t.Fatalf("expected one request log entry, got %d", len(entries))
	}
	if entries[0].Level != log.WarnLevel || entries[0].Data["error_stage"] != "auth" {
		t.Fatalf("unexpected entry %v %v", entries[0].Level, entries[0].Data)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if stage := attributesToMap(spans[0].Attributes)["taskmanager.error_stage"]; stage != "auth" {
		t.Fatalf("expected error stage on span, got %#v", stage)
	}
}

func TestRequestObservabilityMarksServerErrors(t *testing.T) {
	_, exporter := setupTestTracer(t)
	f := newFixture(t, nil)
	boom := errors.New("storage failure")
	f.e.GET("/fail", func(c echo.Context) error {
		metricsFrom(c).SetErrorStage("storage")
		return boom
	})

	rec := serve(f, httptest.NewRequest(http.MethodGet, "/fail", nil))
	expectStatus(t, rec, http.StatusInternalServerError)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status.Code != codes.Error || span.Status.Description != boom.Error() {
		t.Fatalf("unexpected span status %+v", span.Status)
	}
	entries := requestEntries(f.hook)
	if len(entries) != 1 || entries[0].Level != log.ErrorLevel || entries[0].Data["error"] != boom.Error() {
		t.Fatalf("unexpected request entries %v", entries)
	}
}

func TestSeverityForStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		err        error
		wantText   string
		wantNumber int
	}{
		{name: "ok", status: http.StatusOK, wantText: "INFO", wantNumber: 9},
		{name: "warn", status: http.StatusBadRequest, wantText: "WARN", wantNumber: 13},
		{name: "error", status: http.StatusInternalServerError, wantText: "ERROR", wantNumber: 17},
		{name: "errorFromErr", status: 0, err: errors.New("error"), wantText: "ERROR", wantNumber: 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotText, gotNumber := severityForStatus(tt.status, tt.err)
			if gotText != tt.wantText || gotNumber != tt.wantNumber {
				t.Fatalf("severityForStatus(%d, %v) = %s/%d, want %s/%d", tt.status, tt.err, gotText, gotNumber, tt.wantText, tt.wantNumber)
			}
		})
	}
}
