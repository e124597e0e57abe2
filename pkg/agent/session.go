package agent

import "context"

// Session is a conversation with bounded history. Older turns fall off
// once the limit is reached so long chats keep a fixed prompt size.
type Session struct {
	agent       *Agent
	history     []Turn
	historySize int
}

// NewSession starts a conversation. historySize bounds retained turns;
// non-positive values default to 10.
func NewSession(a *Agent, historySize int) *Session {
	if historySize <= 0 {
		historySize = 10
	}
	return &Session{agent: a, historySize: historySize}
}

// Ask answers a question in the context of the conversation so far and
// records the exchange. Failed turns are not recorded.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	answer, err := s.agent.Ask(ctx, question, s.history)
	if err != nil {
		return "", err
	}

	s.history = append(s.history, Turn{User: question, Assistant: answer})
	if len(s.history) > s.historySize {
		s.history = s.history[len(s.history)-s.historySize:]
	}
	return answer, nil
}

// History returns the retained turns.
func (s *Session) History() []Turn {
	return s.history
}
