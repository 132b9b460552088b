// Package metrics emits standardised pipeline lifecycle metrics.
package metrics

import (
	"time"

	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/statsd"
)

// Result constants for metric tagging. Terminal item statuses are used
// verbatim as results alongside these.
const (
	ResultRequeued = "requeued"
	ResultRetried  = "retried"
	ResultError    = "error"
	ResultSuccess  = "success"
	ResultNoop     = "noop"
)

// ItemMetric captures details about one processing pass for metric emission.
type ItemMetric struct {
	ItemType  string
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitItemLifecycle emits standardised item lifecycle metrics.
func EmitItemLifecycle(sink statsd.Sink, in ItemMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"type":   in.ItemType,
		"op":     in.Operation,
		"result": in.Result,
	}

	if in.Err != nil {
		if class := apperrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("item.processed", 1, tags)

	if in.Duration > 0 {
		sink.Timing("item.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
