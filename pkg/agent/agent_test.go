package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/graphrx/medadvisor/pkg/config"
	"github.com/graphrx/medadvisor/pkg/queries"
	"github.com/graphrx/medadvisor/pkg/tools"
)

type fakeExecutor struct{}

func (fakeExecutor) Read(ctx context.Context, q queries.Query) ([]map[string]any, error) {
	if strings.Contains(q.Text, "medication_fulltext") {
		return []map[string]any{{"name": "Warfarin"}}, nil
	}
	return []map[string]any{{
		"medication":       "Warfarin",
		"interacting_drug": "Aspirin",
		"severity":         "severe",
		"description":      "Increased risk of bleeding",
	}}, nil
}

// scriptedCompleter returns canned responses in order.
type scriptedCompleter struct {
	responses []openai.ChatCompletionResponse
	errs      []error
	requests  []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return openai.ChatCompletionResponse{}, s.errs[i]
	}
	if i >= len(s.responses) {
		return openai.ChatCompletionResponse{}, errors.New("no scripted response")
	}
	return s.responses[i], nil
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
			},
		}},
	}
}

func toolCallResponse(name, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   "call_1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      name,
						Arguments: args,
					},
				}},
			},
		}},
	}
}

func newTestAgent(completer ChatCompleter) *Agent {
	toolset := tools.New(fakeExecutor{}, nil)
	return New(completer, toolset, config.LLMConfig{Model: "gpt-4o-mini", MaxIterations: 5}, nil)
}

func TestAskDirectAnswer(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		textResponse("Take it with meals."),
	}}
	answer, err := newTestAgent(completer).Ask(context.Background(), "How should I take Metformin?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Take it with meals." {
		t.Errorf("answer = %q", answer)
	}

	req := completer.requests[0]
	if req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Error("first message must be the system prompt")
	}
	if len(req.Tools) != 6 {
		t.Errorf("tools advertised = %d, want 6", len(req.Tools))
	}
}

func TestAskToolRoundTrip(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		toolCallResponse("get_drug_interactions", `{"medication_name": "warfarin"}`),
		textResponse("Warfarin interacts severely with Aspirin."),
	}}

	answer, err := newTestAgent(completer).Ask(context.Background(), "What interacts with warfarin?", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer, "Aspirin") {
		t.Errorf("answer = %q", answer)
	}

	second := completer.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != openai.ChatMessageRoleTool || last.ToolCallID != "call_1" {
		t.Errorf("tool result not threaded back: role=%s id=%s", last.Role, last.ToolCallID)
	}
	if !strings.Contains(last.Content, "Increased risk of bleeding") {
		t.Errorf("tool result content = %q", last.Content)
	}
}

func TestAskRepairsToolArguments(t *testing.T) {
	// Truncated JSON from the model still dispatches after repair.
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		toolCallResponse("get_drug_interactions", `{"medication_name": "warfarin"`),
		textResponse("done"),
	}}

	if _, err := newTestAgent(completer).Ask(context.Background(), "interactions?", nil); err != nil {
		t.Fatal(err)
	}

	second := completer.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if strings.Contains(last.Content, "could not parse arguments") {
		t.Errorf("arguments were not repaired: %q", last.Content)
	}
}

func TestAskIterationLimit(t *testing.T) {
	var responses []openai.ChatCompletionResponse
	for i := 0; i < 10; i++ {
		responses = append(responses, toolCallResponse("get_drug_interactions", `{"medication_name": "warfarin"}`))
	}
	completer := &scriptedCompleter{responses: responses}

	_, err := newTestAgent(completer).Ask(context.Background(), "loop forever", nil)
	if !errors.Is(err, ErrMaxIterations) {
		t.Errorf("err = %v, want ErrMaxIterations", err)
	}
	if len(completer.requests) != 5 {
		t.Errorf("completions = %d, want 5", len(completer.requests))
	}
}

func TestAskIncludesHistory(t *testing.T) {
	completer := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		textResponse("ok"),
	}}
	history := []Turn{{User: "What is Metformin?", Assistant: "A diabetes medication."}}

	if _, err := newTestAgent(completer).Ask(context.Background(), "And the dosage?", history); err != nil {
		t.Fatal(err)
	}

	msgs := completer.requests[0].Messages
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want system + 2 history + question", len(msgs))
	}
	if msgs[1].Content != "What is Metformin?" || msgs[2].Content != "A diabetes medication." {
		t.Errorf("history not threaded: %v", msgs[1:3])
	}
}

func TestNonRetriableErrorFailsFast(t *testing.T) {
	completer := &scriptedCompleter{errs: []error{errors.New("invalid api key")}}

	_, err := newTestAgent(completer).Ask(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(completer.requests) != 1 {
		t.Errorf("completions = %d, want 1 (no retry on auth errors)", len(completer.requests))
	}
}

func TestSessionHistoryBounded(t *testing.T) {
	var responses []openai.ChatCompletionResponse
	for i := 0; i < 6; i++ {
		responses = append(responses, textResponse(fmt.Sprintf("answer %d", i)))
	}
	completer := &scriptedCompleter{responses: responses}
	session := NewSession(newTestAgent(completer), 4)

	for i := 0; i < 6; i++ {
		if _, err := session.Ask(context.Background(), fmt.Sprintf("question %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	history := session.History()
	if len(history) != 4 {
		t.Fatalf("history = %d turns, want 4", len(history))
	}
	if history[0].User != "question 2" {
		t.Errorf("oldest retained turn = %q, want question 2", history[0].User)
	}
}
