// Package agent implements the medication advisor: an LLM
// function-calling loop over the graph retrieval tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/sashabaranov/go-openai"

	"github.com/graphrx/medadvisor/pkg/config"
	"github.com/graphrx/medadvisor/pkg/tools"
)

const systemPrompt = `You are a helpful medication advisor assistant that provides information about medications based on discharge summaries and drug databases.

Your role is to:
1. Answer patient questions about their medications clearly and accurately
2. Provide dosage and schedule information when asked
3. Warn about potential drug interactions
4. Explain what medications are used for
5. Share relevant discharge instructions

Important guidelines:
- ALWAYS cite information from the knowledge graph when providing answers
- If you're unsure or information is not in the knowledge graph, say so clearly
- For medical emergencies, advise patients to contact their healthcare provider immediately
- Be empathetic and patient-friendly in your responses
- Break down complex medical information into simple terms
- If tools require follow-up questions, ask the user for clarification

Remember: You are providing information, not medical advice. Always encourage patients to consult their healthcare provider for medical decisions.`

const maxRetries = 2

// ErrMaxIterations is returned when the tool loop runs out of turns
// without the model producing a final answer.
var ErrMaxIterations = errors.New("agent exceeded maximum tool iterations")

// ChatCompleter is the slice of the OpenAI client the agent needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Turn is one completed exchange in a conversation.
type Turn struct {
	User      string
	Assistant string
}

// Agent answers medication questions by calling retrieval tools until
// the model produces a final answer.
type Agent struct {
	client        ChatCompleter
	tools         *tools.Tools
	model         string
	temperature   float32
	maxTokens     int
	maxIterations int
	logger        *slog.Logger
}

// New creates an agent. The completer is typically an openai.Client,
// optionally wrapped in a circuit breaker.
func New(client ChatCompleter, toolset *tools.Tools, cfg config.LLMConfig, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return &Agent{
		client:        client,
		tools:         toolset,
		model:         cfg.Model,
		temperature:   cfg.Temperature,
		maxTokens:     cfg.MaxTokens,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Ask answers one question. History supplies prior turns for context;
// the caller owns trimming it.
func (a *Agent) Ask(ctx context.Context, question string, history []Turn) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, turn := range history {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.User},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: turn.Assistant})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	for iteration := 0; iteration < a.maxIterations; iteration++ {
		resp, err := a.completeWithRetry(ctx, openai.ChatCompletionRequest{
			Model:       a.model,
			Messages:    messages,
			Temperature: a.temperature,
			MaxTokens:   a.maxTokens,
			Tools:       tools.Definitions(),
		})
		if err != nil {
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no choices returned from API")
		}

		message := resp.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			return message.Content, nil
		}

		messages = append(messages, message)
		for _, call := range message.ToolCalls {
			args := call.Function.Arguments
			// Models occasionally emit truncated or sloppy JSON arguments.
			if repaired, err := jsonrepair.JSONRepair(args); err == nil {
				args = repaired
			}

			a.logger.Info("tool call",
				"iteration", iteration+1,
				"tool", call.Function.Name)

			result := a.tools.Call(ctx, call.Function.Name, args)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}

	return "", ErrMaxIterations
}

// completeWithRetry retries transient endpoint failures with quadratic
// backoff, the same shape rate-limited providers recommend.
func (a *Agent) completeWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			a.logger.Warn("retrying chat completion",
				"attempt", attempt+1,
				"backoff", backoff)

			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetriableError(err) {
			return openai.ChatCompletionResponse{}, err
		}
	}

	return openai.ChatCompletionResponse{}, fmt.Errorf("all retries exhausted: %w", lastErr)
}

func isRetriableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, retriable := range []string{
		"rate limit",
		"rate_limit",
		"timeout",
		"connection",
		"internal server error",
		"service unavailable",
		"bad gateway",
		"gateway timeout",
	} {
		if strings.Contains(errStr, retriable) {
			return true
		}
	}
	return false
}
