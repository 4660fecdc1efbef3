// Package worker runs the analysis pipeline on a dedicated goroutine and
// talks to its caller only through typed requests and events.
package worker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yejunweb/3d-solar-threejs/internal/analysis"
	"github.com/yejunweb/3d-solar-threejs/internal/classify"
	"github.com/yejunweb/3d-solar-threejs/internal/surface"
)

// Command is a request kind.
type Command int

const (
	CommandInit Command = iota
	CommandLoadModel
	CommandCalculate
)

var commandNames = [...]string{"init", "loadModel", "calculate"}

func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return commandNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Command) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Command) UnmarshalText(b []byte) error {
	for i, n := range commandNames {
		if n == string(b) {
			*c = Command(i)
			return nil
		}
	}
	return fmt.Errorf("unknown command %q", b)
}

// Request is one message to the host.
type Request struct {
	ID      string
	Command Command
	// Surface is the off-screen surface for init.
	Surface surface.Surface
	// URL is the model location for loadModel.
	URL string
}

// Init asks the host to bind s and create a session.
func Init(s surface.Surface) Request {
	return Request{ID: uuid.NewString(), Command: CommandInit, Surface: s}
}

// LoadModel asks the host to load and classify the model at url.
func LoadModel(url string) Request {
	return Request{ID: uuid.NewString(), Command: CommandLoadModel, URL: url}
}

// Calculate asks the host to run both analyzers.
func Calculate() Request {
	return Request{ID: uuid.NewString(), Command: CommandCalculate}
}

// EventType is an event kind.
type EventType int

const (
	EventReady EventType = iota
	EventModelLoaded
	EventModelLoadError
	EventProcessing
	EventSunlightCalcFinish
	EventFieldViewCalcFinish
	EventFinished
	EventError
)

var eventNames = [...]string{
	"ready",
	"modelLoaded",
	"modelLoadError",
	"processing",
	"sunlightCalcFinish",
	"fieldViewCalcFinish",
	"finished",
	"error",
}

func (e EventType) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("EventType(%d)", int(e))
	}
	return eventNames[e]
}

// MarshalText implements encoding.TextMarshaler.
func (e EventType) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EventType) UnmarshalText(b []byte) error {
	for i, n := range eventNames {
		if n == string(b) {
			*e = EventType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", b)
}

// ErrorKind classifies failures reported to the caller.
type ErrorKind string

const (
	LoadFailure         ErrorKind = "LoadFailure"
	PreconditionFailure ErrorKind = "PreconditionFailure"
	DataAnomaly         ErrorKind = "DataAnomaly"
	ResourceTermination ErrorKind = "ResourceTermination"
)

// Error is a failure with its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// Event is one message from the host.
type Event struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"requestId,omitempty"`

	// processing
	Phase   analysis.Phase `json:"phase,omitempty"`
	Percent string         `json:"percent,omitempty"`

	// modelLoaded
	Buildings int            `json:"buildings,omitempty"`
	Units     int            `json:"units,omitempty"`
	Tags      []classify.Tag `json:"tags,omitempty"`

	Sunlight  analysis.SunlightResult  `json:"sunlight,omitempty"`
	FieldView analysis.ViewFieldResult `json:"fieldView,omitempty"`
	Fans      []analysis.Fan           `json:"-"`

	// modelLoadError and error
	Kind  ErrorKind `json:"kind,omitempty"`
	Error string    `json:"error,omitempty"`
}

func errorEvent(typ EventType, reqID string, kind ErrorKind, err error) Event {
	return Event{Type: typ, RequestID: reqID, Kind: kind, Error: err.Error()}
}
