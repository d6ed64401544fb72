package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestClockFuncDefaultsToUTC(t *testing.T) {
	var clock ClockFunc
	if loc := clock.Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC, got %v", loc)
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), "commit", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "commit", false, time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	snap := rec.Snapshot()
	if snap.Results["commit"]["success"] != 1 || snap.Results["commit"]["error"] != 1 {
		t.Fatalf("unexpected counts %+v", snap.Results)
	}
	if snap.DurationsMS["commit"] != 3 {
		t.Fatalf("expected 3ms total, got %v", snap.DurationsMS["commit"])
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation names must be ignored")
	}
	published := expvar.Get(rec.Name())
	if published == nil || !strings.Contains(published.String(), "results_total") {
		t.Fatalf("expected recorder published under %s", rec.Name())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "generate", true, time.Millisecond)
	rec.Observe(context.Background(), "generate", true, time.Millisecond)
	rec.Observe(context.Background(), "generate", false, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "kineticcore_service_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			status := ""
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" {
					status = l.GetValue()
				}
			}
			counts[status] = m.GetCounter().GetValue()
		}
	}
	if counts["success"] != 2 || counts["error"] != 1 {
		t.Fatalf("unexpected counter values %v", counts)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestJSONTracerWritesEntries(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "commit")
	span.End(errors.New("denied"))
	_, span = tracer.Start(context.Background(), "discard")
	span.End(nil)

	entries := tracer.Entries()
	if len(entries) != 2 || entries[0].Status != "error" || entries[0].Error != "denied" || entries[1].Status != "success" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	dec := json.NewDecoder(&buf)
	var first JSONTraceEntry
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Operation != "commit" {
		t.Fatalf("unexpected first line %+v", first)
	}
}

func TestServiceWithExporters(t *testing.T) {
	ctx := context.Background()
	metrics := NewExpvarMetricsRecorder("")
	tracer := NewJSONTracer(nil)
	svc := newTestService(t, NewDefaultRulesEngine(), WithMetricsRecorder(metrics), WithTracer(tracer))
	report, err := svc.Generate(ctx, "m1", []string{"r1"}, overwrite())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := svc.Discard(ctx, report.ID); err != nil {
		t.Fatalf("discard: %v", err)
	}
	snap := metrics.Snapshot()
	for _, op := range []string{"put_model", "generate", "discard"} {
		if snap.Results[op]["success"] != 1 {
			t.Fatalf("expected one successful %s, got %+v", op, snap.Results)
		}
	}
	if len(tracer.Entries()) != 3 {
		t.Fatalf("expected three spans, got %+v", tracer.Entries())
	}
}
