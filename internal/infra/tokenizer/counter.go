package tokenizer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const fallbackEncoding = "cl100k_base"

// LoadFunc resolves the encoding of a model.
type LoadFunc func(model string) (*tiktoken.Tiktoken, error)

// UseOfflineEncodings makes tiktoken read its BPE ranks from the files
// embedded in tiktoken-go-loader instead of downloading them.
func UseOfflineEncodings() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter measures text in model tokens with tiktoken. Encodings load in the
// background; until one is ready, or when it cannot load at all, Count
// estimates four bytes per token. Count never waits on a load.
type Counter struct {
	mu      sync.Mutex
	entries map[string]*encodingEntry
	load    LoadFunc
	logger  *slog.Logger
}

type encodingEntry struct {
	ready chan struct{}
	enc   *tiktoken.Tiktoken
}

// NewCounter builds a counter backed by tiktoken's registry.
func NewCounter(logger *slog.Logger) *Counter {
	return NewCounterWithLoader(loadEncoding, logger)
}

// NewCounterWithLoader builds a counter that resolves encodings with load.
func NewCounterWithLoader(load LoadFunc, logger *slog.Logger) *Counter {
	return &Counter{
		entries: make(map[string]*encodingEntry),
		load:    load,
		logger:  logger.With("component", "tokenizer"),
	}
}

// Count implements reading.TokenCounter.
func (c *Counter) Count(model, text string) int {
	if text == "" {
		return 0
	}
	entry := c.entry(model)
	select {
	case <-entry.ready:
		if entry.enc != nil {
			return len(entry.enc.Encode(text, nil, nil))
		}
	default:
	}
	return Estimate(text)
}

// Warm starts loading the encoding of model and waits for it until ctx ends.
// It reports whether an exact encoding is available.
func (c *Counter) Warm(ctx context.Context, model string) bool {
	entry := c.entry(model)
	select {
	case <-entry.ready:
		return entry.enc != nil
	case <-ctx.Done():
		c.logger.Warn("token encoding still loading, estimating meanwhile", "model", model, "error", ctx.Err())
		return false
	}
}

func (c *Counter) entry(model string) *encodingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[model]; ok {
		return entry
	}
	entry := &encodingEntry{ready: make(chan struct{})}
	c.entries[model] = entry
	go c.fill(model, entry)
	return entry
}

// fill runs outside c.mu; a failed load is remembered as a nil encoding.
func (c *Counter) fill(model string, entry *encodingEntry) {
	defer close(entry.ready)
	enc, err := c.load(model)
	if err != nil {
		c.logger.Warn("token encoding unavailable, estimating", "model", model, "error", err)
		return
	}
	entry.enc = enc
}

// Estimate is the byte based approximation used without an encoding.
func Estimate(text string) int {
	return (len(text) + 3) / 4
}

// Estimator counts with Estimate only.
type Estimator struct{}

// Count implements reading.TokenCounter.
func (Estimator) Count(_ string, text string) int {
	return Estimate(text)
}

func loadEncoding(model string) (*tiktoken.Tiktoken, error) {
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		return enc, nil
	}
	return tiktoken.GetEncoding(fallbackEncoding)
}
