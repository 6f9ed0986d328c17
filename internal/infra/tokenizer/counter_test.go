package tokenizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCounterFallsBackToEstimate(t *testing.T) {
	var loads atomic.Int32
	counter := NewCounterWithLoader(func(string) (*tiktoken.Tiktoken, error) {
		loads.Add(1)
		return nil, errors.New("offline")
	}, discardLogger())

	require.False(t, counter.Warm(context.Background(), "gpt-test"))
	require.Equal(t, 3, counter.Count("gpt-test", "twelve bytes"))
	require.Equal(t, 1, counter.Count("gpt-test", "abcd"))
	require.EqualValues(t, 1, loads.Load())
}

func TestCounterDoesNotWaitForSlowLoad(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	counter := NewCounterWithLoader(func(string) (*tiktoken.Tiktoken, error) {
		<-release
		return nil, errors.New("released")
	}, discardLogger())

	done := make(chan int, 1)
	go func() { done <- counter.Count("gpt-test", "twelve bytes") }()
	select {
	case n := <-done:
		require.Equal(t, 3, n)
	case <-time.After(time.Second):
		t.Fatal("Count blocked on encoding load")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.False(t, counter.Warm(ctx, "gpt-test"))
}

func TestCounterEmptyText(t *testing.T) {
	counter := NewCounterWithLoader(func(string) (*tiktoken.Tiktoken, error) {
		t.Error("encoding must not load for empty text")
		return nil, nil
	}, discardLogger())
	require.Zero(t, counter.Count("gpt-test", ""))
}

func TestEstimate(t *testing.T) {
	require.Equal(t, 0, Estimate(""))
	require.Equal(t, 1, Estimate("a"))
	require.Equal(t, 2, Estimate("abcdefgh"))
	require.Equal(t, 2, Estimator{}.Count("any", "abcdefgh"))
}
