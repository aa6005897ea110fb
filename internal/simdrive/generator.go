package simdrive

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ericggul/moodscape/pkg/logger"
)

const randomFloatDivisor = 1000000

// Utterance pools per emotion. A slice of explicit climate phrases is mixed
// in so runs exercise the override path as well as plain inference.
var moodPhrases = map[string][]string{
	"joy":     {"this is wonderful", "I feel amazing today", "everything sparkles"},
	"calm":    {"make it cozy in here", "I want to drift for a while", "soft and slow please"},
	"sad":     {"it has been a heavy day", "I miss the summer", "everything feels grey"},
	"anger":   {"this day was infuriating", "I need to cool off", "nothing went right"},
	"fear":    {"this room feels too big", "I keep hearing things", "something is off tonight"},
	"neutral": {"just looking around", "what does this place do", "hello room"},
}

var overridePhrases = []string{
	"make it very cold in here",
	"I want it hot",
	"so humid today, fix it",
	"keep it very dry please",
}

var emotions = []string{"joy", "calm", "sad", "anger", "fear", "neutral"}

var displayNames = []string{
	"Mina", "Jae", "Sora", "Theo", "Yuna", "Iris", "Dae", "Noa", "Rumi", "Kai",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func pickInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateSessions builds one scripted session per simulated participant.
func generateSessions(ctx context.Context, config *Config) []session {
	logger.Get().Info(ctx, "generating sessions",
		logger.Int("users", config.NumUsers),
		logger.Int("voicesPerUser", config.VoicesPerUser))

	sessions := make([]session, config.NumUsers)
	for i := range sessions {
		sessions[i] = generateSingleSession(i, config.VoicesPerUser)
	}
	return sessions
}

func generateSingleSession(index, voices int) session {
	userID := "sim_" + strconv.Itoa(index) + "_" + uuid.New().String()[:8]
	s := session{
		UserID: userID,
		Name:   displayNames[index%len(displayNames)] + "-" + strconv.Itoa(index),
		Voices: make([]voiceEvent, voices),
	}

	for v := 0; v < voices; v++ {
		s.Voices[v] = generateVoice(userID)
	}
	return s
}

// generateVoice produces one utterance. Roughly one in five is an explicit
// climate request so the run covers override behavior.
func generateVoice(userID string) voiceEvent {
	emotion := emotions[pickInt(len(emotions))]
	var text string
	if pickInt(5) == 0 {
		text = overridePhrases[pickInt(len(overridePhrases))]
	} else {
		pool := moodPhrases[emotion]
		text = pool[pickInt(len(pool))]
	}

	return voiceEvent{
		UserID:  userID,
		Text:    text,
		Emotion: emotion,
		Score:   0.5 + getRandomFloat()*0.5,
		TS:      time.Now().UTC().Format(time.RFC3339),
	}
}
