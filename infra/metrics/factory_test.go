package metrics_test

import (
	"testing"

	"github.com/kilianp07/slotplan/core/factory"
	coremetrics "github.com/kilianp07/slotplan/core/metrics"
	_ "github.com/kilianp07/slotplan/infra/metrics"
)

func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := coremetrics.NewScheduleSink([]factory.ModuleConfig{{Type: "nop"}})
	if err != nil {
		t.Fatalf("create nop: %v", err)
	}
	if _, ok := s.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
	s, err = coremetrics.NewScheduleSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "prometheus"}})
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	if m, ok := s.(*coremetrics.MultiSink); !ok || len(m.Sinks) != 2 {
		t.Fatalf("expected MultiSink, got %T", s)
	}
	if _, err := coremetrics.NewScheduleSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
