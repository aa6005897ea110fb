// Package normalize converts raw inference guesses into canonical
// environment records.
//
// Normalization runs four total, side-effect-free steps in order:
// structural validation, deterministic per-user diversification, an
// explicit-language climate override, and a final canonicalization pass.
// The output is always a fully valid record, even when inference failed.
package normalize

import (
	"hash/fnv"
	"strings"
	"time"

	"github.com/ericggul/moodscape/internal/domain/env"
)

// FallbackReason tags rounds resolved with the fallback environment.
const FallbackReason = "fallback"

// Decisive extremes forced by explicit climate vocabulary.
const (
	ColdTemperature     = 18.0
	VeryColdTemperature = 16.0
	HotTemperature      = 30.0
	VeryHotTemperature  = 32.0
	DryHumidity         = 30.0
	VeryDryHumidity     = 20.0
	HumidHumidity       = 70.0
	VeryHumidHumidity   = 80.0
)

// validLightingModes enumerates the modes an inference result may carry.
// The mode is validated but not propagated; lighting behavior downstream is
// driven by color alone.
var validLightingModes = map[string]bool{
	"":        true,
	"ambient": true,
	"spot":    true,
	"wash":    true,
	"pulse":   true,
}

// Flags classify the spoken input. Always populated, zero-valued on the
// fallback path, so downstream consumers need no nil checks.
type Flags struct {
	OffTopic bool `json:"offTopic"`
	Abusive  bool `json:"abusive"`
}

// RawParams is the unvalidated guess shape produced by the inference oracle.
// Pointer fields distinguish absent values from zero values.
type RawParams struct {
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	LightColor   string   `json:"lightColor"`
	LightingMode string   `json:"lightingMode"`
	Music        string   `json:"music"`
}

// Input carries everything a normalization round needs. Raw is nil when the
// inference call failed or timed out.
type Input struct {
	Raw            *RawParams
	Reason         string
	Flags          *Flags
	EmotionKeyword string
	Text           string // original free text, scanned for climate vocabulary
	UserID         string
	Previous       *env.Environment
	Now            time.Time
}

// Output is a fully valid environment record plus round metadata.
type Output struct {
	Env            env.Environment
	Reason         string
	Flags          Flags
	EmotionKeyword string
	Fallback       bool
	Overridden     bool
}

// locks marks fields pinned by the explicit-language override for the
// remainder of the round. Locks never persist across rounds.
type locks struct {
	temperature bool
	humidity    bool
}

// Normalize runs the full pipeline. It is pure: identical inputs produce
// identical outputs.
func (n *Normalizer) Normalize(in Input) Output {
	out := Output{
		Reason:         in.Reason,
		EmotionKeyword: in.EmotionKeyword,
	}
	if in.Flags != nil {
		out.Flags = *in.Flags
	}

	// Step 1: structural validation.
	record, ok := n.validate(in.Raw)
	if !ok {
		record = n.defaultEnv
		out.Reason = FallbackReason
		out.Fallback = true
	}

	// Step 2: deterministic diversification.
	record = n.diversify(record, in.UserID, in.Now)

	// Step 3: explicit-language override on the original text.
	var lk locks
	record, lk = applyOverride(record, in.Text)
	out.Overridden = lk.temperature || lk.humidity

	// Step 4: canonicalization.
	out.Env = n.canonicalize(record, lk, in.Previous)
	return out
}

// validate checks the structural contract on a raw guess. A nil raw result
// (failed inference) is invalid by definition.
func (n *Normalizer) validate(raw *RawParams) (env.Environment, bool) {
	if raw == nil || raw.Temperature == nil || raw.Humidity == nil {
		return env.Environment{}, false
	}
	candidate := env.Environment{
		Temperature: *raw.Temperature,
		Humidity:    *raw.Humidity,
		LightColor:  raw.LightColor,
		Music:       strings.TrimSpace(raw.Music),
	}
	if candidate.Music == "" {
		candidate.Music = n.defaultEnv.Music
	}
	if !validLightingModes[strings.ToLower(strings.TrimSpace(raw.LightingMode))] {
		return env.Environment{}, false
	}
	if !candidate.Valid() {
		return env.Environment{}, false
	}
	return candidate, true
}

// diversify perturbs the record with offsets derived purely from
// (userID, second-resolution timestamp), so concurrent users with the same
// guess land on visibly different values.
func (n *Normalizer) diversify(e env.Environment, userID string, now time.Time) env.Environment {
	rng := newSeq(seed(userID, now))

	e.Temperature += n.tempDeltas[rng.next()%uint32(len(n.tempDeltas))]
	e.Humidity += n.humidityDeltas[rng.next()%uint32(len(n.humidityDeltas))]

	if r, g, b, ok := env.ParseHexColor(e.LightColor); ok {
		span := uint32(2*n.colorJitter + 1)
		r += int(rng.next()%span) - n.colorJitter
		g += int(rng.next()%span) - n.colorJitter
		b += int(rng.next()%span) - n.colorJitter
		e.LightColor = env.EncodeHexColor(r, g, b)
	}
	return e
}

// seed derives a 32-bit seed from a stable hash of userID mixed with the
// unix second.
func seed(userID string, now time.Time) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return h.Sum32() ^ uint32(now.Unix())*2654435761
}

// seq is a xorshift32 sequence; cheap, deterministic, and good enough for
// picking jitter offsets.
type seq struct{ s uint32 }

func newSeq(s uint32) *seq {
	if s == 0 {
		s = 1
	}
	return &seq{s: s}
}

func (q *seq) next() uint32 {
	q.s ^= q.s << 13
	q.s ^= q.s >> 17
	q.s ^= q.s << 5
	return q.s
}

// applyOverride scans the original spoken text for strong climate vocabulary
// and forces the matching field to a decisive extreme, locking it for the
// rest of the round.
func applyOverride(e env.Environment, text string) (env.Environment, locks) {
	var lk locks
	t := strings.ToLower(text)
	if t == "" {
		return e, lk
	}

	switch {
	case containsAny(t, "very cold", "freezing", "ice cold"):
		e.Temperature = VeryColdTemperature
		lk.temperature = true
	case containsAny(t, "very hot", "boiling", "scorching"):
		e.Temperature = VeryHotTemperature
		lk.temperature = true
	case strings.Contains(t, "cold"):
		e.Temperature = ColdTemperature
		lk.temperature = true
	case strings.Contains(t, "hot"):
		e.Temperature = HotTemperature
		lk.temperature = true
	}

	switch {
	case containsAny(t, "very dry", "bone dry"):
		e.Humidity = VeryDryHumidity
		lk.humidity = true
	case containsAny(t, "very humid", "tropical", "muggy"):
		e.Humidity = VeryHumidHumidity
		lk.humidity = true
	case strings.Contains(t, "dry"):
		e.Humidity = DryHumidity
		lk.humidity = true
	case strings.Contains(t, "humid"):
		e.Humidity = HumidHumidity
		lk.humidity = true
	}

	return e, lk
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// canonicalize clamps every unlocked field to bounds and repairs color and
// music so the result always satisfies the record invariants.
func (n *Normalizer) canonicalize(e env.Environment, lk locks, previous *env.Environment) env.Environment {
	if !lk.temperature {
		e.Temperature = env.ClampTemperature(e.Temperature)
	}
	if !lk.humidity {
		e.Humidity = env.ClampHumidity(e.Humidity)
	}

	if _, _, _, ok := env.ParseHexColor(e.LightColor); !ok {
		if previous != nil {
			if _, _, _, prevOK := env.ParseHexColor(previous.LightColor); prevOK {
				e.LightColor = previous.LightColor
			} else {
				e.LightColor = n.defaultEnv.LightColor
			}
		} else {
			e.LightColor = n.defaultEnv.LightColor
		}
	}

	e.Music = env.MatchMusic(e.Music, n.defaultEnv.Music)
	return e
}
