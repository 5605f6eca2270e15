package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application"
)

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() { f.flushes++ }

type brokenWriter struct{ writes int }

func (b *brokenWriter) Write(p []byte) (int, error) {
	b.writes++
	return 0, errors.New("broken pipe")
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestEmitterFraming(t *testing.T) {
	w := &flushRecorder{}
	em := NewEmitter(w, application.FixedClock{T: fixedNow})

	require.NoError(t, em.Emit(Event{Step: StepReceived, Status: StatusCompleted, Message: "ok", Progress: 10}))
	require.NoError(t, em.Terminal(FinalMessagePayload{FinalMessage: "bye"}))
	require.NoError(t, em.Done())

	assert.Equal(t,
		`data: {"step":"Document Received","status":"completed","message":"ok","progress":10,"timestamp":"2026-03-14T09:30:00Z","details":{}}`+"\n\n"+
			`data: {"final_message":"bye"}`+"\n\n"+
			DoneMarker,
		w.String())
	assert.Equal(t, 3, w.flushes)
}

func TestEmitterProgressNeverDecreases(t *testing.T) {
	w := &flushRecorder{}
	em := NewEmitter(w, nil)

	for _, p := range []int{10, 40, 30, 0, 120} {
		require.NoError(t, em.Emit(Event{Step: "s", Status: StatusProcessing, Progress: p}))
	}
	events, _ := parseStream(t, w.String())
	var got []int
	for _, ev := range events {
		got = append(got, ev.Progress)
	}
	assert.Equal(t, []int{10, 40, 40, 40, 100}, got)
	assert.Equal(t, 100, em.Progress())
}

func TestEmitterClosed(t *testing.T) {
	w := &flushRecorder{}
	em := NewEmitter(w, nil)

	require.NoError(t, em.Done())
	require.NoError(t, em.Done())
	assert.ErrorIs(t, em.Emit(Event{Step: "late"}), ErrClosed)
	assert.ErrorIs(t, em.Terminal(FinalMessagePayload{}), ErrClosed)
	assert.Equal(t, DoneMarker, w.String())
	assert.Equal(t, 1, strings.Count(w.String(), "[DONE]"))
}

func TestEmitterWriteErrorIsSticky(t *testing.T) {
	w := &brokenWriter{}
	em := NewEmitter(w, nil)

	assert.Error(t, em.Emit(Event{Step: "a"}))
	assert.Error(t, em.Emit(Event{Step: "b"}))
	assert.Error(t, em.Done())
	assert.Equal(t, 1, w.writes)
	assert.ErrorContains(t, em.Err(), "broken pipe")
}

func TestStageTransitions(t *testing.T) {
	path := []Stage{StageExtracted, StageClassifying, StageAnalyzing, StageReporting, StageReady}
	s := StageReceived
	for _, next := range path {
		var err error
		s, err = s.Next(next)
		require.NoError(t, err)
	}
	assert.True(t, s.Terminal())

	_, err := s.Next(StageFailed)
	assert.Error(t, err, "terminal stages accept nothing")

	_, err = StageReceived.Next(StageAnalyzing)
	assert.Error(t, err)

	f, err := StageAnalyzing.Next(StageFailed)
	require.NoError(t, err)
	assert.Equal(t, StageFailed, f)

	_, err = StageClassifying.Next(StageUndetermined)
	assert.NoError(t, err)
}
