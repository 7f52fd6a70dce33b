package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/Garsondee/Ward-Sense/internal/sim"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WARDSENSE_"

// FromEnv applies environment overrides to p. WARDSENSE_PRESET replaces p
// with a preset first; every parameter can then be set individually as
// WARDSENSE_<YAML KEY>, e.g. WARDSENSE_NUM_WARDS=12. Unparseable values are
// an error.
func FromEnv(p sim.Params) (sim.Params, error) {
	return fromEnvironment(p, env.ToMap(os.Environ()))
}

func fromEnvironment(p sim.Params, environ map[string]string) (sim.Params, error) {
	trimmed := make(map[string]string, len(environ))
	for k, v := range environ {
		if v = strings.TrimSpace(v); v != "" {
			trimmed[k] = v
		}
	}

	if name := trimmed[EnvPrefix+"PRESET"]; name != "" {
		preset, err := Preset(name)
		if err != nil {
			return sim.Params{}, err
		}
		p = preset
	}

	if err := env.ParseWithOptions(&p, env.Options{
		Prefix:      EnvPrefix,
		Environment: trimmed,
	}); err != nil {
		return sim.Params{}, fmt.Errorf("config: env: %w", err)
	}
	return p, nil
}
