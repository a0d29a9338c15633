package mqtt

import (
	"github.com/kilianp07/slotplan/core/factory"
	coremetrics "github.com/kilianp07/slotplan/core/metrics"
)

// init registers the MQTT schedule sink.
func init() {
	_ = coremetrics.RegisterScheduleSink("mqtt", func(conf map[string]any) (coremetrics.ScheduleSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}
