package util

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration        = errors.New("configuration error")
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	ErrInvalidInput         = errors.New("invalid input")
	ErrStoreWrite           = errors.New("store write error")
	ErrGeneration           = errors.New("generation error")

	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrIngestRunning     = errors.New("ingestion already running")
)

// OpError ties a failure to the operation that produced it. Both Kind and
// Err are visible to errors.Is and errors.As.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *OpError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func WrapOp(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

var kindNames = []struct {
	name string
	kind error
}{
	{"Configuration", ErrConfiguration},
	{"EmbeddingUnavailable", ErrEmbeddingUnavailable},
	{"InvalidInput", ErrInvalidInput},
	{"StoreWrite", ErrStoreWrite},
	{"Generation", ErrGeneration},
	{"NoExtractableText", ErrNoExtractableText},
	{"IngestRunning", ErrIngestRunning},
}

// KindName returns a stable name for the error kind carried by err, or ""
// when err carries none. It survives serialization where the sentinel does not.
func KindName(err error) string {
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return ""
}

// KindByName reverses KindName.
func KindByName(name string) error {
	for _, k := range kindNames {
		if k.name == name {
			return k.kind
		}
	}
	return nil
}
