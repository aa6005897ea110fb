package oracle

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ericggul/moodscape/internal/domain/normalize"
)

// Default fake configuration constants.
const (
	defaultMinLatency = 80 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultRandomSeed = 42
)

// moodProfile is a canned raw guess for an emotion family.
type moodProfile struct {
	temperature float64
	humidity    float64
	lightColor  string
	music       string
	reason      string
}

var moodProfiles = map[string]moodProfile{
	"joy":     {27, 45, "#FFC04D", "Arabesque No.1", "bright and lively"},
	"calm":    {22, 50, "#A0C8E0", "Clair de Lune", "soft and settled"},
	"sad":     {19, 60, "#4A6FA5", "Nocturne Op.9 No.2", "muted and blue"},
	"anger":   {29, 35, "#D94F30", "Metamorphosis Two", "sharp and intense"},
	"fear":    {18, 55, "#5E548E", "Spiegel im Spiegel", "dim and cautious"},
	"neutral": {22, 50, "#E8E0D0", "Gymnopedie No.1", "plain daylight"},
}

// FakeOracle is the in-process inference stand-in used when no endpoint is
// configured, and by tests and the traffic generator. It simulates external
// service latency.
type FakeOracle struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// FakeOption applies a configuration option to the FakeOracle.
type FakeOption func(*FakeOracle)

// WithLatencyRange sets the simulated latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) FakeOption {
	return func(o *FakeOracle) {
		if minLatency > 0 && maxLatency > minLatency {
			o.minLatency = minLatency
			o.maxLatency = maxLatency
		}
	}
}

// WithSeed sets the latency RNG seed.
func WithSeed(seed int64) FakeOption {
	return func(o *FakeOracle) {
		o.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulated latency only
	}
}

// NewFakeOracle creates a fake oracle with configuration options.
func NewFakeOracle(opts ...FakeOption) *FakeOracle {
	o := &FakeOracle{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // simulated latency only
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Infer maps the emotion hint (or mood words in the text) to a canned raw
// guess after a simulated delay. Honors ctx cancellation.
func (o *FakeOracle) Infer(ctx context.Context, req Request) (Result, error) {
	delay := o.minLatency
	if span := o.maxLatency - o.minLatency; span > 0 {
		o.mu.Lock()
		delay += time.Duration(o.rng.Int63n(int64(span)))
		o.mu.Unlock()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-timer.C:
	}

	profile, keyword := resolveProfile(req.CurrentUser)
	temp := profile.temperature
	hum := profile.humidity
	return Result{
		Params: normalize.RawParams{
			Temperature: &temp,
			Humidity:    &hum,
			LightColor:  profile.lightColor,
			Music:       profile.music,
		},
		Reason:         profile.reason,
		Flags:          classify(req.CurrentUser.Text),
		EmotionKeyword: keyword,
	}, nil
}

func resolveProfile(user UserContext) (moodProfile, string) {
	emotion := strings.ToLower(strings.TrimSpace(user.Emotion))
	if p, ok := moodProfiles[emotion]; ok {
		return p, emotion
	}

	text := strings.ToLower(user.Text)
	for _, keyword := range []string{"joy", "calm", "sad", "anger", "fear"} {
		if strings.Contains(text, keyword) {
			return moodProfiles[keyword], keyword
		}
	}
	return moodProfiles["neutral"], "neutral"
}

// classify flags speech the installation should not act on verbatim.
func classify(text string) normalize.Flags {
	t := strings.ToLower(text)
	return normalize.Flags{
		OffTopic: strings.Contains(t, "weather forecast") || strings.Contains(t, "stock price"),
		Abusive:  strings.Contains(t, "shut up") || strings.Contains(t, "stupid"),
	}
}
