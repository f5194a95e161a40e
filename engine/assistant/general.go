package assistant

import (
	"context"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/conversation"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
)

func (o *Orchestrator) handleGeneral(ctx context.Context, s *conversation.State, msg string) (string, error) {
	recent := s.Recent(o.opts.HistoryTurns)
	history := make([]llm.Message, 0, len(recent))
	for _, t := range recent {
		history = append(history, llm.Message{Role: string(t.Role), Content: t.Text})
	}

	reply, err := o.completer.Complete(ctx, llm.Request{
		System:      generalSystemPrompt,
		History:     history,
		Prompt:      msg,
		Temperature: 0.2,
	})
	if err != nil {
		if isDependencyFault(err) {
			o.logger.Warn("assistant: general answer unavailable", "user_id", s.UserID, "err", err)
			return replyRephrase, nil
		}
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return replyRephrase, nil
	}
	return reply, nil
}
