package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	entries []Entry
	err     error
}

func (m *memRecorder) Record(_ context.Context, e Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })
}

func TestNewEntry(t *testing.T) {
	now := time.Date(2025, 10, 4, 9, 30, 0, 0, time.UTC)
	freezeClock(t, now)

	e, err := NewEntry(KindGeoRisk,
		map[string]float64{"lat": 48, "lon": 68},
		map[string]string{"biome_code": "8"},
	)
	require.NoError(t, err)

	_, err = uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, KindGeoRisk, e.Kind)
	assert.JSONEq(t, `{"lat":48,"lon":68}`, string(e.Request))
	assert.JSONEq(t, `{"biome_code":"8"}`, string(e.Response))
	assert.Equal(t, now, e.RecordedAt)
}

func TestNewEntry_Unencodable(t *testing.T) {
	_, err := NewEntry(KindImpact, make(chan int), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode impact request")
}

func TestFileRecorder_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "history.jsonl")
	r := NewFileRecorder(path)

	for _, kind := range []Kind{KindGeoRisk, KindImpact} {
		e, err := NewEntry(kind, struct{}{}, struct{}{})
		require.NoError(t, err)
		require.NoError(t, r.Record(context.Background(), e))
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var kinds []Kind
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		kinds = append(kinds, e.Kind)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []Kind{KindGeoRisk, KindImpact}, kinds)
}

func TestFileRecorder_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	r := NewFileRecorder(dir) // a directory cannot be opened for append

	e, err := NewEntry(KindImpact, 1, 2)
	require.NoError(t, err)
	err = r.Record(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open history file")
}

func TestMulti_TriesEveryRecorder(t *testing.T) {
	failing := &memRecorder{err: errors.New("disk full")}
	ok := &memRecorder{}

	e, err := NewEntry(KindGeoRisk, 1, 2)
	require.NoError(t, err)

	err = Multi{failing, nil, ok}.Record(context.Background(), e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.Len(t, ok.entries, 1)
	assert.Equal(t, e.ID, ok.entries[0].ID)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Record(context.Background(), Entry{}))
}
