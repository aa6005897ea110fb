// Package oracle adapts the external mood-to-environment inference service.
package oracle

import (
	"context"

	"github.com/ericggul/moodscape/internal/domain/env"
	"github.com/ericggul/moodscape/internal/domain/normalize"
)

// UserContext describes the speaking participant for the inference call.
type UserContext struct {
	UserID  string  `json:"userId"`
	Name    string  `json:"name"`
	Text    string  `json:"text"`
	Emotion string  `json:"emotion"`
	Score   float64 `json:"score"`
}

// Request is the inference input: the environment that is currently live and
// the user asking to change it.
type Request struct {
	CurrentEnvironment env.Environment `json:"currentEnvironment"`
	CurrentUser        UserContext     `json:"currentUser"`
	SystemPrompt       string          `json:"systemPrompt,omitempty"`
}

// Result is the oracle's structured guess. Params is raw and unvalidated;
// the normalizer owns repair.
type Result struct {
	Params         normalize.RawParams `json:"params"`
	Reason         string              `json:"reason"`
	Flags          normalize.Flags     `json:"flags"`
	EmotionKeyword string              `json:"emotionKeyword"`
}

// Oracle turns a mood into a raw environment guess. Implementations must
// honor ctx; callers bound every Infer with a hard timeout.
type Oracle interface {
	Infer(ctx context.Context, req Request) (Result, error)
}
