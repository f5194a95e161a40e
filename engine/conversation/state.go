// Package conversation holds per-user conversation state, its stores, and the
// Manager that serializes turns for one user.
package conversation

import (
	"errors"
	"time"

	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned by Store.Load for an unknown user.
var ErrNotFound = errors.New("conversation: not found")

// ErrSaveFailed marks a Do whose callback completed but whose state could not
// be persisted.
var ErrSaveFailed = errors.New("conversation: save failed")

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Phase is the lifecycle position of the latest turn.
type Phase string

const (
	PhaseAwaiting   Phase = "AWAITING_CLASSIFICATION"
	PhaseDispatched Phase = "DISPATCHED"
	PhaseResponded  Phase = "RESPONDED"
	PhaseFailed     Phase = "FAILED"
)

// Turn is one message in a conversation.
type Turn struct {
	ID     string        `json:"id"`
	Role   Role          `json:"role"`
	Text   string        `json:"text"`
	Intent domain.Intent `json:"intent,omitempty"`
	At     time.Time     `json:"at"`
}

// State is the full conversation for one user.
type State struct {
	UserID        string        `json:"user_id"`
	Turns         []Turn        `json:"turns"`
	CurrentIntent domain.Intent `json:"current_intent,omitempty"`
	Phase         Phase         `json:"phase,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewState starts an empty conversation.
func NewState(userID string, now time.Time) *State {
	return &State{UserID: userID, CreatedAt: now, UpdatedAt: now}
}

// Append adds a turn and returns it.
func (s *State) Append(role Role, text string, in domain.Intent, now time.Time) Turn {
	t := Turn{ID: ulid.Make().String(), Role: role, Text: text, Intent: in, At: now}
	s.Turns = append(s.Turns, t)
	s.UpdatedAt = now
	return t
}

// Recent returns the last n user/assistant exchanges before the final turn,
// oldest first. The final turn is excluded since it is the message being
// answered.
func (s *State) Recent(n int) []Turn {
	if n <= 0 || len(s.Turns) < 2 {
		return nil
	}
	prior := s.Turns[:len(s.Turns)-1]
	if len(prior) > 2*n {
		prior = prior[len(prior)-2*n:]
	}
	return prior
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.Turns = append([]Turn(nil), s.Turns...)
	return &c
}
