// Package config loads simulation parameter tables from YAML files,
// environment variables and named presets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Garsondee/Ward-Sense/internal/sim"
)

// Load reads a YAML parameter file and overlays it on the default table.
// Keys not present in the file keep their default values; unknown keys are
// rejected.
func Load(path string) (sim.Params, error) {
	return LoadOnto(path, sim.DefaultParams())
}

// LoadOnto is Load with an explicit base table, such as a preset.
func LoadOnto(path string, base sim.Params) (sim.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.Params{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	p, err := Parse(bytes.NewReader(data), base)
	if err != nil {
		return sim.Params{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes YAML from r on top of base. An empty document returns base.
func Parse(r io.Reader, base sim.Params) (sim.Params, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	p := base
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return sim.Params{}, fmt.Errorf("decode: %w", err)
	}
	return p, nil
}

// Marshal renders p as YAML, the inverse of Parse.
func Marshal(p sim.Params) ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return out, nil
}

var presets = map[string]func() sim.Params{
	"default": sim.DefaultParams,
	"understaffed": func() sim.Params {
		p := sim.DefaultParams()
		p.TargetPatientToNurseRatio = 20
		return p
	},
	"well-staffed": func() sim.Params {
		p := sim.DefaultParams()
		p.TargetPatientToNurseRatio = 4
		return p
	},
}

// Preset returns a named parameter table.
func Preset(name string) (sim.Params, error) {
	mk, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return sim.Params{}, fmt.Errorf("config: unknown preset %q (have %s)", name, strings.Join(PresetNames(), ", "))
	}
	return mk(), nil
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
