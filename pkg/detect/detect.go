// Package detect chooses the active profile from host signals when the
// caller does not name one explicitly.
package detect

import (
	"os"
	"runtime"

	"github.com/arthur-debert/dotsync/pkg/config"
	"github.com/arthur-debert/dotsync/pkg/logging"
)

// Signals are the host facts detection rules are evaluated against.
// They are captured once per call so detection is a pure lookup.
type Signals struct {
	Hostname string
	OS       string
	Env      map[string]string
}

// HostSignals captures the current host's signals.
func HostSignals() Signals {
	hostname, err := os.Hostname()
	if err != nil {
		// A host without a resolvable name simply never matches
		// hostname conditions.
		hostname = ""
	}

	return Signals{Hostname: hostname, OS: runtime.GOOS, Env: environMap()}
}

// environMap snapshots the process environment so rules added to the
// config need no code change.
func environMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}

// Profile evaluates the detection rules in configured order and returns
// the first rule whose conditions ALL match. With no match, or no
// detection config at all, the default profile name is returned.
func Profile(cfg *config.Config, signals Signals) string {
	logger := logging.GetLogger("detect")

	if cfg.ProfileDetection == nil {
		return config.DefaultProfileName
	}

	for _, rule := range cfg.ProfileDetection.Rules {
		if matches(rule, signals) {
			logger.Debug().Str("profile", rule.Profile).Msg("Detection rule matched")
			return rule.Profile
		}
	}

	return config.DefaultProfileName
}

func matches(rule config.DetectionRule, signals Signals) bool {
	for _, cond := range rule.Conditions {
		if !evaluate(cond, signals) {
			return false
		}
	}
	return true
}

// evaluate checks a single condition against the signals. The condition
// kinds form a closed set; an unknown kind from a hand-edited config
// never matches.
func evaluate(cond config.DetectionCondition, signals Signals) bool {
	switch cond.Kind {
	case config.ConditionHostname:
		return signals.Hostname == cond.Value
	case config.ConditionOS:
		return signals.OS == cond.Value
	case config.ConditionEnvVar:
		v, ok := signals.Env[cond.Name]
		return ok && v == cond.Value
	default:
		return false
	}
}
