package main

import (
	"io"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"

	"prism/internal/reconcile"
)

// syncProgress renders an in-place tracker for interactive terminals. A nil
// *syncProgress is valid and silent, so non-interactive runs just skip it.
type syncProgress struct {
	writer  progress.Writer
	tracker *progress.Tracker
	once    sync.Once
}

func newSyncProgress(out io.Writer, message string) *syncProgress {
	if !shouldColorize(out) {
		return nil
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(24)
	pw.SetMessageLength(48)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.Style().Visibility.ETA = false
	pw.Style().Visibility.Speed = false
	pw.Style().Visibility.Time = false
	pw.Style().Visibility.Value = false

	tracker := &progress.Tracker{Message: message, Total: 100}
	pw.AppendTracker(tracker)
	go pw.Render()

	return &syncProgress{writer: pw, tracker: tracker}
}

func (p *syncProgress) fn() reconcile.ProgressFunc {
	if p == nil {
		return nil
	}
	return func(percent float64, message string) {
		if message != "" {
			p.tracker.UpdateMessage(message)
		}
		p.tracker.SetValue(int64(percent))
	}
}

// retarget swaps the tracker message, for batch runs that reuse one tracker
// across mirrors.
func (p *syncProgress) retarget(message string) {
	if p == nil {
		return
	}
	p.tracker.SetValue(0)
	p.tracker.UpdateMessage(message)
}

func (p *syncProgress) stop() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.tracker.MarkAsDone()
		p.writer.Stop()
		for p.writer.IsRenderInProgress() {
			time.Sleep(10 * time.Millisecond)
		}
	})
}
