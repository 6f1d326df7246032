package speech_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-eyes/handheld/internal/speech"
)

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestSpeakCompletesAfterEstimatedDuration(t *testing.T) {
	s := speech.NewConsoleSpeaker(silentLogger())
	ctx := context.Background()

	done, err := s.Speak(ctx, "stop", speech.Urgent)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("utterance never completed")
	}
}

func TestSpeakInterruptedByNextSpeak(t *testing.T) {
	s := speech.NewConsoleSpeaker(silentLogger())
	ctx := context.Background()

	first, err := s.Speak(ctx, "continue straight ahead for a while", speech.Normal)
	require.NoError(t, err)

	second, err := s.Speak(ctx, "stop", speech.Urgent)
	require.NoError(t, err)

	select {
	case <-first:
	case <-time.After(time.Second):
		t.Fatal("first utterance was not interrupted")
	}

	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("second utterance never completed")
	}
}

func TestPauseBlocksCompletionUntilResume(t *testing.T) {
	s := speech.NewConsoleSpeaker(silentLogger())
	ctx := context.Background()

	done, err := s.Speak(ctx, "stop now", speech.Normal)
	require.NoError(t, err)

	s.Pause()
	select {
	case <-done:
		t.Fatal("utterance completed while paused")
	case <-time.After(150 * time.Millisecond):
	}

	s.Resume()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("utterance never resumed to completion")
	}
}

func TestStopCancelsUtterance(t *testing.T) {
	s := speech.NewConsoleSpeaker(silentLogger())
	ctx := context.Background()

	done, err := s.Speak(ctx, "continue straight ahead for a very long while indeed", speech.Normal)
	require.NoError(t, err)

	s.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not cancel utterance")
	}
}

func TestSpeakEmptyTextDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		s := speech.NewConsoleSpeaker(silentLogger())
		_, _ = s.Speak(context.Background(), "", speech.Info)
	})
}
