package test

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/slotplan/app"
	"github.com/kilianp07/slotplan/config"
	"github.com/kilianp07/slotplan/infra/logger"
	"github.com/kilianp07/slotplan/test/util"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServeExposesPlanMetrics(t *testing.T) {
	addr := freeAddr(t)
	body := fmt.Sprintf(`planner:
  weeks: 4
  today: "2025-01-06"
projects:
  - name: alpha
    end_date: "2025-01-31"
    remaining_days: 3
  - name: beta
    end_date: "2025-03-31"
    remaining_days: 20
metrics:
  sinks:
    - type: prometheus
serve:
  metrics_addr: %q
  min_interval: 10ms
`, addr)
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	svc, err := app.New(cfg, path, false, app.WithLogger(logger.NopLogger{}))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx, cfg.Serve) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), util.MetricTimeout)
	defer waitCancel()
	url := "http://" + addr + "/metrics"
	if err := util.WaitForMetric(waitCtx, url, `slotplan_project_assigned_slots{method="paced",project="alpha"}`); err != nil {
		t.Fatalf("metrics not exposed: %v", err)
	}
	if err := util.WaitForMetric(waitCtx, url, `slotplan_runs_total{method="paced"}`); err != nil {
		t.Fatalf("run counter not exposed: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop")
	}
}
