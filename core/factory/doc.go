// Package factory instantiates pluggable modules, such as schedule sinks,
// from configuration. A module is a type name plus a map of raw settings;
// each factory decodes the settings into its own typed struct.
//
//	reg := factory.NewRegistry[metrics.ScheduleSink]()
//	reg.Register("prometheus", func(conf map[string]any) (metrics.ScheduleSink, error) {
//	    var c struct{ Namespace string `json:"namespace"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newPromSink(c.Namespace)
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "prometheus"})
package factory
