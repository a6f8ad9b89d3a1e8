// Package history records the queries served by the atlas so they can be
// replayed or analyzed later.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Kind names the operation an entry was recorded for.
type Kind string

const (
	KindGeoRisk    Kind = "geo_risk"
	KindImpact     Kind = "impact"
	KindCustomBody Kind = "custom_body"
)

// clock is a package-level time source so tests can freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for new entries. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Entry is one recorded request and the response that was served for it.
type Entry struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Request    json.RawMessage `json:"request"`
	Response   json.RawMessage `json:"response"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewEntry serializes req and resp into a timestamped entry.
func NewEntry(kind Kind, req, resp any) (Entry, error) {
	reqData, err := json.Marshal(req)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s request: %w", kind, err)
	}
	respData, err := json.Marshal(resp)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s response: %w", kind, err)
	}
	return Entry{
		ID:         uuid.NewString(),
		Kind:       kind,
		Request:    reqData,
		Response:   respData,
		RecordedAt: clock.Now().UTC(),
	}, nil
}

// Recorder accepts history entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Multi fans an entry out to several recorders. Every recorder is tried;
// the errors are joined.
type Multi []Recorder

// Record implements Recorder.
func (m Multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every entry.
type Discard struct{}

// Record implements Recorder.
func (Discard) Record(context.Context, Entry) error { return nil }
