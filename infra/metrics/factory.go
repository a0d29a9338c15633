package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/slotplan/core/factory"
	coremetrics "github.com/kilianp07/slotplan/core/metrics"
)

// init registers built-in schedule sinks.
func init() {
	_ = coremetrics.RegisterScheduleSink("nop", func(map[string]any) (coremetrics.ScheduleSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterScheduleSink("prometheus", func(conf map[string]any) (coremetrics.ScheduleSink, error) {
		var c PromOptions
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPromSinkWithRegistry(c, prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterScheduleSink("influx", func(conf map[string]any) (coremetrics.ScheduleSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
