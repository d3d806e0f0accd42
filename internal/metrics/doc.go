// Package metrics provides observability hooks for the Grain rendering pipeline.
//
// Two layers exist side by side:
//
//  1. PerfCounters - process-wide additive counters of elapsed time per pipeline
//     phase ("document parse", "script translate", "script compile"). They are
//     updated with atomic adds, never reset by the pipeline, and are always on.
//  2. Recorder - an injectable interface for richer metrics. NoopRecorder is the
//     default; PrometheusRecorder forwards to a Prometheus registry which the CLI
//     can dump in text exposition format.
//
// Components receive a Recorder through dependency injection:
//
//	factory := templates.NewFactory(cfg, templates.WithRecorder(metrics.NewPrometheusRecorder(reg)))
package metrics
