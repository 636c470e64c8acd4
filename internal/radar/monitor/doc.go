// Package monitor serves the radar clustering engine over HTTP: status and
// object JSON endpoints, runtime DBSCAN parameter tuning, PNG and echarts
// renderings of the latest frame, and the recorder's SQL debug console.
//
// Both WebServer and FramePlotter implement the pipeline Sink interface so
// they can be fanned out alongside the recorder and serial publisher.
package monitor
