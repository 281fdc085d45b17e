package tasks

import (
	"github.com/charmbracelet/log"
)

// ProgressEvent announces that the item at Index (0-based) of Total is about to be dispatched.
type ProgressEvent struct {
	Kind        BatchKind `json:"kind"`
	Index       int       `json:"index"`
	Total       int       `json:"total"`
	CurrentItem string    `json:"current_item"`
}

// Step is the 1-based position, for "processing i of n" displays.
func (e ProgressEvent) Step() int { return e.Index + 1 }

// Fraction is the share of the batch completed before this event's item, in [0, 1).
func (e ProgressEvent) Fraction() float64 {
	if e.Total <= 0 {
		return 0
	}
	return float64(e.Index) / float64(e.Total)
}

// ProgressReporter receives progress events synchronously, in order, before each remote call.
//
// Implementations must not block for long; the engine does not look at what they do.
type ProgressReporter interface {
	Report(ProgressEvent)
}

// ReporterFunc adapts a function to [ProgressReporter].
type ReporterFunc func(ProgressEvent)

// Report calls f(e).
func (f ReporterFunc) Report(e ProgressEvent) { f(e) }

// ChannelReporter forwards events to a channel without blocking.
//
// Uses select with default so a slow or absent consumer drops updates instead of stalling the batch.
type ChannelReporter chan<- ProgressEvent

// Report sends e if the channel has room.
func (c ChannelReporter) Report(e ProgressEvent) {
	if c == nil {
		return
	}
	select {
	case c <- e:
	default:
	}
}

// LogReporter writes one info line per event.
type LogReporter struct {
	Logger *log.Logger
}

// Report logs e.
func (l LogReporter) Report(e ProgressEvent) {
	if l.Logger == nil {
		return
	}
	l.Logger.Info("processing", "kind", e.Kind, "step", e.Step(), "total", e.Total, "item", e.CurrentItem)
}

// MultiReporter fans each event out to every non-nil reporter, in order.
type MultiReporter []ProgressReporter

// Report forwards e.
func (m MultiReporter) Report(e ProgressEvent) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}

type nopReporter struct{}

func (nopReporter) Report(ProgressEvent) {}
