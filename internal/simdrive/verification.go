package simdrive

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Bounds the merged decision must land inside regardless of what the
// participants asked for.
const (
	temperatureMin = -20.0
	temperatureMax = 50.0
	humidityMin    = 0.0
	humidityMax    = 100.0
)

// verifyState checks the shared decision against the run that produced it.
func verifyState(ctx context.Context, config *Config, snap stateSnapshot, stats *Stats) error {
	log.Println("🔍 Verifying final state...")

	if stats.VoicesAccepted > 0 && snap.Decision.Version == 0 {
		return fmt.Errorf("voices were accepted but the decision never advanced")
	}

	env := snap.Decision.Env
	if env.Temperature < temperatureMin || env.Temperature > temperatureMax {
		return fmt.Errorf("merged temperature %.1f outside bounds", env.Temperature)
	}
	if env.Humidity < humidityMin || env.Humidity > humidityMax {
		return fmt.Errorf("merged humidity %.1f outside bounds", env.Humidity)
	}
	if !validHexColor(env.LightColor) {
		return fmt.Errorf("merged light color %q is not #RRGGBB", env.LightColor)
	}
	if strings.TrimSpace(env.Music) == "" {
		return fmt.Errorf("merged decision has no music track")
	}

	if len(snap.Decision.MergedFrom) > stats.UsersJoined {
		return fmt.Errorf("decision merged from %d users but only %d joined",
			len(snap.Decision.MergedFrom), stats.UsersJoined)
	}

	displayDecision(snap, config.Verbose)

	log.Println("✅ State verification completed")
	return nil
}

func validHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// displayDecision shows the merged environment the run converged on.
func displayDecision(snap stateSnapshot, verbose bool) {
	env := snap.Decision.Env
	log.Printf("🌡️  Final environment: %.1f°C, %.0f%% humidity, %s, %q",
		env.Temperature, env.Humidity, env.LightColor, env.Music)
	log.Printf("   Decision version %d, merged from %d users, reason %q",
		snap.Decision.Version, len(snap.Decision.MergedFrom), snap.Decision.Reason)

	if verbose {
		for i, id := range snap.Decision.MergedFrom {
			log.Printf("   %d. %s", i+1, id)
		}
		log.Printf("   Active preference entries: %d", snap.ActiveEntries)
	}
}
