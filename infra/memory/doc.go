// Package memory provides the accounting around shared cells: a Tracker
// that observes every allocation and free made through package arc and
// exports them as Prometheus metrics, and a typed object Pool whose Put can
// be used directly as a cell's drop hook.
package memory
