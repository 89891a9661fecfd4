package fixme

import "time"

// Stage names one step of a pass.
type Stage string

const (
	StageAcquire Stage = "acquire"
	StageFilter  Stage = "filter"
	StageApply   Stage = "apply"
	StageFormat  Stage = "format"
)

// Status captures progress within a stage.
type Status string

const (
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Event reports a stage transition. Pass is 1 or 2 and 0 for the format
// stage. Count is the number of diagnostics the stage produced or consumed.
type Event struct {
	Stage   Stage
	Status  Status
	Pass    int
	Count   int
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }
