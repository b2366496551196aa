// Package metrics records list-request timings for the browser.
package metrics

import (
	"time"

	"github.com/openziti/rbrowse/kernel/model"
)

type Direction string

const (
	DirectionFirst Direction = "first"
	DirectionNext  Direction = "next"
	DirectionPrev  Direction = "prev"
)

// FetchSample describes one completed list request.
type FetchSample struct {
	ClusterId  string
	Kind       model.ResourceKind
	Direction  Direction
	Items      int
	Elapsed    time.Duration
	Failed     bool
	Superseded bool
}

type Recorder interface {
	RecordFetch(sample FetchSample)
	Close()
}

// Nop discards every sample.
var Nop Recorder = nopRecorder{}

type nopRecorder struct{}

func (nopRecorder) RecordFetch(FetchSample) {}
func (nopRecorder) Close()                  {}
