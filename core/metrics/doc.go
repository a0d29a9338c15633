// Package metrics defines where finished schedules are reported. A
// ScheduleSink receives a RunSummary after every planning run; sinks such as
// the Prometheus, InfluxDB and MQTT adapters in infra are combined with
// NewMultiSink. The factory helpers build sinks from configuration and
// return a MultiSink automatically when several are configured.
package metrics
