package app

import (
	"time"

	"github.com/ericggul/moodscape/internal/domain/env"
	"github.com/ericggul/moodscape/internal/domain/normalize"
)

// Frame types carried by the outbound fabric.
const (
	FrameDecision  = "decision"
	FrameSoftReset = "softReset"
)

// VoicePayload is one spoken input from a participant.
type VoicePayload struct {
	Text    string    `json:"text"`
	Emotion string    `json:"emotion"`
	Score   float64   `json:"score"`
	TS      time.Time `json:"ts"`
}

// DecisionEvent is emitted once per completed decision round, success or
// fallback. Params is the merged environment that went live; Individual is
// what this user asked for before merging.
type DecisionEvent struct {
	ID             string          `json:"id"`
	TS             time.Time       `json:"ts"`
	UserID         string          `json:"userId"`
	Params         env.Environment `json:"params"`
	Reason         string          `json:"reason"`
	Flags          normalize.Flags `json:"flags"`
	EmotionKeyword string          `json:"emotionKeyword"`
	MergedFrom     []string        `json:"mergedFrom"`
	Individual     env.Environment `json:"individual"`
}

// SoftResetEvent tells every downstream display to reset its local
// animation and timeline state.
type SoftResetEvent struct {
	ID     string    `json:"id"`
	TS     time.Time `json:"ts"`
	Source string    `json:"source"`
}
