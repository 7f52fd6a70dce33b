package main

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Ward-Sense/internal/sim"
)

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags(nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 50, opts.runs)
	assert.Equal(t, 365, opts.steps)
	assert.Equal(t, sim.DefaultSeed, opts.seedBase)
	assert.Equal(t, sim.AllVariants(), opts.variants)
	assert.Equal(t, log.InfoLevel, opts.level)
	assert.Equal(t, "default", opts.preset)
	assert.Equal(t, "cumulative_resistant.png", opts.chartPath)
	assert.Equal(t, "proportion_new_resistant.png", opts.propPath)
}

func TestParseFlagsRejectsBadInput(t *testing.T) {
	cases := map[string][]string{
		"zero runs":      {"-runs", "0"},
		"zero steps":     {"-steps", "0"},
		"neg workers":    {"-workers", "-1"},
		"bad level":      {"-log-level", "loud"},
		"bad variant":    {"-variants", "icu"},
		"no variants":    {"-variants", ","},
		"unknown flag":   {"-bogus"},
		"positional arg": {"extra"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseFlags(args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestParseVariants(t *testing.T) {
	got, err := parseVariants("ward, no-ward,ward")
	require.NoError(t, err)
	assert.Equal(t, []sim.Variant{sim.Ward, sim.NoWard}, got)

	got, err = parseVariants("ALL")
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestLoadParamsPresetAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_wards: 5\n"), 0o600))

	p, err := loadParams(options{preset: "well-staffed", configPath: path})
	require.NoError(t, err)
	assert.Equal(t, 5, p.NumWards)
	assert.Equal(t, 4.0, p.TargetPatientToNurseRatio)

	_, err = loadParams(options{preset: "nonexistent"})
	assert.Error(t, err)
}

func TestRunWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "small.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("initial_patients: 30\nmax_patient_capacity: 40\nnum_wards: 3\n"), 0o600))

	opts, err := parseFlags([]string{
		"-config", cfg,
		"-variants", "no-ward,admission-ward",
		"-runs", "2",
		"-steps", "6",
		"-out-dir", filepath.Join(dir, "out"),
		"-sqlite", filepath.Join(dir, "runs.db"),
		"-metrics-file", filepath.Join(dir, "ward.prom"),
	}, io.Discard)
	require.NoError(t, err)

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, log.New(io.Discard), &stdout))

	out := stdout.String()
	assert.Contains(t, out, "No Ward Model")
	assert.Contains(t, out, "Admission Ward Model")

	for _, name := range []string{"no_ward_data.csv", "admission_ward_data.csv", "report.txt", "cumulative_resistant.png", "proportion_new_resistant.png"} {
		assert.FileExists(t, filepath.Join(dir, "out", name))
	}
	assert.FileExists(t, filepath.Join(dir, "runs.db"))

	prom, err := os.ReadFile(filepath.Join(dir, "ward.prom"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(prom), `wardsense_runs_total{result="ok",variant="admission-ward"} 2`), string(prom))

	rep, err := os.ReadFile(filepath.Join(dir, "out", "report.txt"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(rep), "\n"))
}

func TestRunSkipsDisabledCharts(t *testing.T) {
	dir := t.TempDir()
	opts, err := parseFlags([]string{
		"-variants", "ward",
		"-runs", "1",
		"-steps", "3",
		"-out-dir", dir,
		"-chart", "",
	}, io.Discard)
	require.NoError(t, err)
	require.NoError(t, run(context.Background(), opts, log.New(io.Discard), io.Discard))

	assert.NoFileExists(t, filepath.Join(dir, "cumulative_resistant.png"))
	f, err := os.Open(filepath.Join(dir, "proportion_new_resistant.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}
