package pipeline

import (
	"context"
	"time"
)

// RawMessage is one payload read from the source, with enough metadata to
// log it and acknowledge it.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string

	// Commit acknowledges the message. It may be nil.
	Commit func(ctx context.Context) error
}

// OutputMessage is one canonical observation ready to publish.
type OutputMessage struct {
	Key    []byte
	Value  []byte
	Source string
}
