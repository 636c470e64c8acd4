// Package serialsink publishes per-frame object summaries as CSV lines over
// a serial port.
package serialsink
