package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	OpStarted Type = iota + 1
	EntityCreated
	TransferProgress
	FastPathDisabled
	RenameFallback
	RolledBack
	SourceDeleted
	SameFile
	OpCompleted
	OpFailed
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	OpStarted:        "OpStarted",
	EntityCreated:    "EntityCreated",
	TransferProgress: "TransferProgress",
	FastPathDisabled: "FastPathDisabled",
	RenameFallback:   "RenameFallback",
	RolledBack:       "RolledBack",
	SourceDeleted:    "SourceDeleted",
	SameFile:         "SameFile",
	OpCompleted:      "OpCompleted",
	OpFailed:         "OpFailed",
	VerifyOK:         "VerifyOK",
	VerifyFailed:     "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Timestamp time.Time
	Error     error
	Op        string // "copy" or "move"
	ID        string // operation id shared by all events of one call
	Path      string // source path
	Target    string // target path
	Kind      string // entity kind, when known
	Method    string // transfer method for TransferProgress and EntityCreated
	Size      int64  // bytes so far (TransferProgress) or total bytes
	Type      Type
}
