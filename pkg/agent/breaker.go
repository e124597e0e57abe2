package agent

import (
	"context"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/graphrx/medadvisor/pkg/config"
)

// BreakerCompleter wraps a ChatCompleter with a circuit breaker so a
// failing LLM endpoint sheds load instead of stacking timeouts.
type BreakerCompleter struct {
	client ChatCompleter
	cb     *gobreaker.CircuitBreaker
}

// WrapWithBreaker wraps the completer per the breaker configuration.
// Returns the completer unchanged when the breaker is disabled.
func WrapWithBreaker(client ChatCompleter, cfg config.CircuitBreakerConfig) ChatCompleter {
	if !cfg.Enabled {
		return client
	}

	st := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
	}

	return &BreakerCompleter{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// CreateChatCompletion implements ChatCompleter.
func (b *BreakerCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	resp, err := b.cb.Execute(func() (any, error) {
		return b.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return resp.(openai.ChatCompletionResponse), nil
}
