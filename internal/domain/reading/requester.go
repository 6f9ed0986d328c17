package reading

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/yanqian/astro-clock/internal/infra/llm/chatgpt"
	"github.com/yanqian/astro-clock/internal/infra/tokenizer"
	apperrors "github.com/yanqian/astro-clock/pkg/errors"
	"github.com/yanqian/astro-clock/pkg/metrics"
)

// Requester sends the composed prompt to the model once and classifies the
// outcome. There are no retries.
type Requester struct {
	cfg     Config
	client  ChatClient
	counter TokenCounter
	logger  *slog.Logger
}

// NewRequester builds a requester. counter may be nil, in which case token
// counts are rough estimates.
func NewRequester(cfg Config, client ChatClient, counter TokenCounter, logger *slog.Logger) *Requester {
	if counter == nil {
		counter = tokenizer.Estimator{}
	}
	return &Requester{
		cfg:     cfg,
		client:  client,
		counter: counter,
		logger:  logger.With("component", "reading.requester"),
	}
}

// Request issues the completion. Expiry of cfg.Timeout yields a CodeTimeout
// error; every other failure yields CodeGenerationFailed.
func (r *Requester) Request(ctx context.Context, prompt Prompt) (Result, error) {
	started := time.Now()
	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	promptTokens := r.count(prompt.Text())
	if r.cfg.ContextWindow > 0 && promptTokens+r.cfg.MaxTokens > r.cfg.ContextWindow {
		r.logger.Warn("prompt may exceed model context window",
			"prompt_tokens", promptTokens,
			"max_tokens", r.cfg.MaxTokens,
			"context_window", r.cfg.ContextWindow,
		)
	}

	resp, err := r.client.CreateChatCompletion(callCtx, r.buildRequest(prompt))
	elapsed := time.Since(started)
	if err != nil {
		if isTimeout(callCtx, err) {
			r.logOutcome(OutcomeTimedOut, elapsed, "error", err)
			return Result{}, apperrors.Wrap(CodeTimeout, "the reading took too long to generate, please try again", err)
		}
		r.logOutcome(OutcomeFailed, elapsed, "error", err)
		return Result{}, apperrors.Wrap(CodeGenerationFailed, "failed to generate reading", err)
	}

	text := resp.FirstContent()
	if strings.TrimSpace(text) == "" {
		r.logger.Warn("model returned empty reading, using fallback text")
		text = FallbackPrediction
	}

	usage := metrics.NewEstimatedUsage(promptTokens, r.count(text))
	if resp.Usage != nil {
		usage = metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	model := resp.Model
	if model == "" {
		model = r.cfg.Model
	}

	r.logOutcome(OutcomeSucceeded, elapsed, usage.LogAttrs()...)
	return Result{Text: text, Model: model, Usage: usage}, nil
}

func (r *Requester) buildRequest(prompt Prompt) chatgpt.ChatCompletionRequest {
	messages := make([]chatgpt.Message, 0, len(prompt.Messages))
	for _, msg := range prompt.Messages {
		out := chatgpt.Message{Role: string(msg.Role)}
		if msg.Image != nil {
			out.Parts = []chatgpt.ContentPart{
				chatgpt.TextPart(msg.Text),
				chatgpt.ImagePart(msg.Image.DataURI),
			}
		} else {
			out.Content = msg.Text
		}
		messages = append(messages, out)
	}
	return chatgpt.ChatCompletionRequest{
		Model:            r.cfg.Model,
		Messages:         messages,
		Temperature:      chatgpt.Float32(r.cfg.Temperature),
		MaxTokens:        r.cfg.MaxTokens,
		TopP:             chatgpt.Float32(r.cfg.TopP),
		FrequencyPenalty: chatgpt.Float32(r.cfg.FrequencyPenalty),
		PresencePenalty:  chatgpt.Float32(r.cfg.PresencePenalty),
	}
}

func (r *Requester) count(text string) int {
	return r.counter.Count(r.cfg.Model, text)
}

func (r *Requester) logOutcome(outcome CallOutcome, elapsed time.Duration, attrs ...any) {
	args := append([]any{"outcome", outcome, "model", r.cfg.Model, "elapsed", elapsed}, attrs...)
	if outcome == OutcomeSucceeded {
		r.logger.Info("reading completion finished", args...)
		return
	}
	r.logger.Error("reading completion finished", args...)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
