package simdrive

import "time"

// Config holds configuration for a simulated installation session.
type Config struct {
	BaseURL       string        // Base URL of the orchestrator
	NumUsers      int           // Number of simulated participants
	VoicesPerUser int           // Spoken inputs per participant
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	QuietWait     time.Duration // Settle time after the last voice event
	LogFile       string        // Log file for run output
	Reset         bool          // Issue a reset before the run
	Verbose       bool          // Enable verbose logging
}

// session is one simulated participant with a scripted set of utterances.
type session struct {
	UserID string
	Name   string
	Voices []voiceEvent
}

// Wire shapes mirror the orchestrator's HTTP contracts.

type joinEvent struct {
	UserID string `json:"userId"`
	TS     string `json:"ts"`
}

type renameEvent struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	TS     string `json:"ts"`
}

type voiceEvent struct {
	UserID  string  `json:"userId"`
	Text    string  `json:"text"`
	Emotion string  `json:"emotion"`
	Score   float64 `json:"score"`
	TS      string  `json:"ts"`
}

type resetEvent struct {
	Source string `json:"source"`
}

// stateSnapshot mirrors GET /state.
type stateSnapshot struct {
	Decision struct {
		Version uint64 `json:"version"`
		Env     struct {
			Temperature float64 `json:"temperature"`
			Humidity    float64 `json:"humidity"`
			LightColor  string  `json:"lightColor"`
			Music       string  `json:"music"`
		} `json:"env"`
		MergedFrom []string `json:"mergedFrom"`
		Reason     string   `json:"reason"`
	} `json:"decision"`
	ActiveEntries int `json:"activeEntries"`
}

// Stats holds run statistics.
type Stats struct {
	UsersJoined     int
	VoicesSubmitted int
	VoicesAccepted  int
	VoicesFailed    int
	FinalVersion    uint64
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
