package storage

import "time"

// Operation names reported to an Observer.
const (
	OpExists = "exists"
	OpSave   = "save"
	OpDelete = "delete"
	OpRead   = "read"
)

// Observer captures telemetry for adapter operations.
type Observer interface {
	RecordOperation(op string, duration time.Duration, err error)
	RecordUpload(sizeBytes int64)
	RecordFallback()
}

type nopObserver struct{}

func (nopObserver) RecordOperation(string, time.Duration, error) {}

func (nopObserver) RecordUpload(int64) {}

func (nopObserver) RecordFallback() {}
