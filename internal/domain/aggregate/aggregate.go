// Package aggregate merges active preference entries into one shared
// environment.
package aggregate

import (
	"math"

	"github.com/ericggul/moodscape/internal/domain/env"
)

// Preference is one user's current vote: the environment they asked for.
type Preference struct {
	UserID string
	Params env.Environment
}

// FairAverage reduces the active preferences into a single environment.
// Each user contributes exactly one vote, their newest entry in the set;
// older entries from the same user still inside the window are ignored.
// Temperature and humidity are arithmetic means rounded to whole units;
// light color is averaged per RGB channel; music is a majority vote with
// ties broken by first-seen order. An empty set yields defaults.
//
// The reduction is order-independent except for the documented music
// tie-break.
func FairAverage(prefs []Preference, defaults env.Environment) env.Environment {
	prefs = NewestPerUser(prefs)
	if len(prefs) == 0 {
		return defaults
	}

	var tempSum, humSum float64
	var rSum, gSum, bSum, colorCount int

	votes := make(map[string]int, len(prefs))
	firstSeen := make(map[string]int, len(prefs))

	for i, p := range prefs {
		tempSum += p.Params.Temperature
		humSum += p.Params.Humidity

		if r, g, b, ok := env.ParseHexColor(p.Params.LightColor); ok {
			rSum += r
			gSum += g
			bSum += b
			colorCount++
		}

		votes[p.Params.Music]++
		if _, seen := firstSeen[p.Params.Music]; !seen {
			firstSeen[p.Params.Music] = i
		}
	}

	n := float64(len(prefs))
	merged := env.Environment{
		Temperature: math.Round(tempSum / n),
		Humidity:    math.Round(humSum / n),
		LightColor:  defaults.LightColor,
		Music:       majority(votes, firstSeen, defaults.Music),
	}

	if colorCount > 0 {
		merged.LightColor = env.EncodeHexColor(
			roundDiv(rSum, colorCount),
			roundDiv(gSum, colorCount),
			roundDiv(bSum, colorCount),
		)
	}

	return merged
}

// NewestPerUser keeps each user's most recent preference, dropping the
// older ones. prefs must be in insertion order; the survivors keep the
// positions of the entries they came from.
func NewestPerUser(prefs []Preference) []Preference {
	newest := make(map[string]int, len(prefs))
	for i, p := range prefs {
		newest[p.UserID] = i
	}
	if len(newest) == len(prefs) {
		return prefs
	}

	out := make([]Preference, 0, len(newest))
	for i, p := range prefs {
		if newest[p.UserID] == i {
			out = append(out, p)
		}
	}
	return out
}

// MergedFrom returns the de-duplicated list of contributing user ids,
// ordered by most recent contribution.
func MergedFrom(prefs []Preference) []string {
	seen := make(map[string]bool, len(prefs))
	out := make([]string, 0, len(prefs))
	// Walk newest-first so the most recent contribution wins the position,
	// then the slice is already in most-recent order.
	for i := len(prefs) - 1; i >= 0; i-- {
		id := prefs[i].UserID
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// majority picks the music id with the most votes; ties go to the candidate
// seen first in insertion order.
func majority(votes map[string]int, firstSeen map[string]int, fallback string) string {
	best := ""
	bestVotes := 0
	for music, count := range votes {
		if count > bestVotes || (count == bestVotes && firstSeen[music] < firstSeen[best]) {
			best = music
			bestVotes = count
		}
	}
	if best == "" {
		return fallback
	}
	return best
}

func roundDiv(sum, count int) int {
	return int(math.Round(float64(sum) / float64(count)))
}
