// Package http serves a finished report directory: the run manifest as
// JSON, the chart and data files, a health check and Prometheus metrics.
//
// Handlers stay thin. They read what the pipeline wrote to disk and map
// AppErrors onto APIError responses; nothing here recomputes a view.
package http
