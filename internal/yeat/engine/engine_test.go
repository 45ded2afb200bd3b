package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/bioforensics/yeat/internal/yeat/assembly"
	"github.com/bioforensics/yeat/internal/yeat/domain"
	"github.com/bioforensics/yeat/internal/yeat/readpath"
	"github.com/bioforensics/yeat/pkg/config"
	yerrors "github.com/bioforensics/yeat/pkg/errors"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hybridConfiguration(t *testing.T) *assembly.Configuration {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range []string{"/data/s_R1.fq.gz", "/data/s_R2.fq.gz", "/data/s_ont.fq.gz"} {
		require.NoError(t, afero.WriteFile(fs, f, []byte("x"), 0644))
	}

	doc := map[string]any{
		"samples": map[string]any{
			"s": map[string]any{
				"illumina":    "s_R*.fq.gz",
				"ont_simplex": "s_ont.fq.gz",
			},
		},
		"assemblers": map[string]any{
			"uni":  map[string]any{"algorithm": "unicycler", "mode": "hybrid"},
			"flye": map[string]any{"algorithm": "flye", "arguments": "--meta"},
		},
	}
	cfg, err := assembly.Parse(doc, assembly.Options{
		Resolver: readpath.NewResolver(fs, "/data"),
		Threads:  2,
		Platform: "linux",
	})
	require.NoError(t, err)
	return cfg
}

func TestNewPlan(t *testing.T) {
	cfg := hybridConfiguration(t)

	plan, err := NewPlan(cfg, RunOptions{Threads: 2, WorkDir: "/work", Seed: 42})
	require.NoError(t, err)

	assert.NotEmpty(t, plan.RunID)
	assert.True(t, strings.HasPrefix(plan.Generator, "yeat/"))
	assert.Equal(t, 42, plan.Seed)
	assert.Equal(t, 2, plan.Threads)
	assert.Equal(t, "/work", plan.WorkDir)
	assert.Equal(t, cfg.Targets(), plan.Targets)

	sp := plan.Samples["s"]
	assert.True(t, sp.Paired)
	assert.Equal(t, domain.ReadTypeOntSimplex, sp.BestLongRead)
	assert.Equal(t, []string{"/data/s_R1.fq.gz", "/data/s_R2.fq.gz"}, sp.Reads[domain.ReadTypeIllumina])
	assert.Equal(t, []string{"analysis/s/qc/ont_simplex/downsample/read.fastq.gz"}, sp.Downsampled[domain.ReadTypeOntSimplex])

	uni := plan.Assemblers["uni"]
	assert.Equal(t, "unicycler", uni.Algorithm)
	assert.Equal(t, "hybrid", uni.Mode)
	assert.Equal(t, "-1 analysis/s/qc/illumina/downsample/R1.fastq.gz"+
		" -2 analysis/s/qc/illumina/downsample/R2.fastq.gz"+
		" -l analysis/s/qc/ont_simplex/downsample/read.fastq.gz", uni.Samples["s"].InputArgs)
	assert.Equal(t, "analysis/s/yeat/unicycler/uni", uni.Samples["s"].OutputDir)

	flye := plan.Assemblers["flye"]
	assert.Equal(t, "--meta", flye.Arguments)
	assert.Equal(t, "", flye.Mode)
	assert.Equal(t, "--nano-raw analysis/s/qc/ont_simplex/downsample/read.fastq.gz", flye.Samples["s"].InputArgs)
}

func TestNewPlan_Seed(t *testing.T) {
	cfg := hybridConfiguration(t)

	for i := 0; i < 50; i++ {
		plan, err := NewPlan(cfg, RunOptions{Threads: 1})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, plan.Seed, 1)
		assert.LessOrEqual(t, plan.Seed, config.MaxSeed)
	}

	_, err := NewPlan(cfg, RunOptions{Threads: 1, Seed: config.MaxSeed + 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 65535")

	_, err = NewPlan(cfg, RunOptions{Threads: 0})
	assert.Error(t, err)

	a, err := NewPlan(cfg, RunOptions{Threads: 1})
	require.NoError(t, err)
	b, err := NewPlan(cfg, RunOptions{Threads: 1})
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, ".", a.WorkDir)
}

func TestPlanEncode(t *testing.T) {
	plan, err := NewPlan(hybridConfiguration(t), RunOptions{Threads: 1, Seed: 7})
	require.NoError(t, err)

	data, err := plan.Encode("json")
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(7), decoded["seed"])
	assert.Contains(t, decoded, "assemblers")

	data, err = plan.Encode("yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: "+plan.RunID)

	_, err = plan.Encode("xml")
	assert.Error(t, err)
}

func TestRunOptionsFrom(t *testing.T) {
	opts := RunOptionsFrom(config.RunConfig{Threads: 8, WorkDir: "out", DryRun: true, Seed: 3})
	assert.Equal(t, RunOptions{Threads: 8, WorkDir: "out", DryRun: true, Seed: 3}, opts)
}

func TestArgs(t *testing.T) {
	r := NewSnakemakeRunner(config.EngineConfig{Binary: "snakemake", Snakefile: "/wf/yeat.smk", UseConda: true})
	plan := &Plan{Threads: 4, WorkDir: "/work", DryRun: true, Targets: []string{"a", "b"}}

	assert.Equal(t, []string{
		"--snakefile", "/wf/yeat.smk",
		"--configfile", "/work/.yeat/plan.json",
		"--cores", "4",
		"--directory", "/work",
		"--printshellcmds",
		"--use-conda",
		"--dry-run",
		"a", "b",
	}, r.Args(plan, "/work/.yeat/plan.json"))

	bare := NewSnakemakeRunner(config.EngineConfig{Binary: "snakemake"})
	assert.Equal(t, []string{
		"--configfile", "c.json", "--cores", "4", "--directory", "/work", "--printshellcmds", "a", "b",
	}, bare.Args(&Plan{Threads: 4, WorkDir: "/work", Targets: []string{"a", "b"}}, "c.json"))
}

// fakeEngine writes a shell script that records its arguments and exits with code
func fakeEngine(t *testing.T, code int) (binary, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	binary = filepath.Join(dir, "snakemake")
	script := "#!/bin/sh\nfor a in \"$@\"; do echo \"$a\" >> " + argsFile + "; done\nexit " + strconv.Itoa(code) + "\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0755))
	return binary, argsFile
}

func TestSnakemakeRunner_Run(t *testing.T) {
	binary, argsFile := fakeEngine(t, 0)
	workDir := t.TempDir()

	plan, err := NewPlan(hybridConfiguration(t), RunOptions{Threads: 3, WorkDir: workDir, Seed: 11})
	require.NoError(t, err)

	r := NewSnakemakeRunner(config.EngineConfig{Binary: binary}).WithOutput(os.Stdout, os.Stderr)
	require.NoError(t, r.Run(context.Background(), plan))

	planFile := PlanPath(workDir, plan.RunID)
	data, err := os.ReadFile(planFile)
	require.NoError(t, err)
	var written Plan
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, plan.RunID, written.RunID)
	assert.Equal(t, 11, written.Seed)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(recorded)), "\n")
	assert.Equal(t, "--configfile", lines[0])
	assert.Equal(t, planFile, lines[1])
	assert.Contains(t, lines, "--printshellcmds")
	assert.NotContains(t, lines, "--dry-run")
	assert.Equal(t, plan.Targets[len(plan.Targets)-1], lines[len(lines)-1])
}

func TestSnakemakeRunner_Failure(t *testing.T) {
	binary, _ := fakeEngine(t, 3)
	plan, err := NewPlan(hybridConfiguration(t), RunOptions{Threads: 1, WorkDir: t.TempDir()})
	require.NoError(t, err)

	err = NewSnakemakeRunner(config.EngineConfig{Binary: binary}).Run(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, yerrors.ErrWorkflowFailed)
	assert.Contains(t, err.Error(), "status 3")

	err = NewSnakemakeRunner(config.EngineConfig{Binary: filepath.Join(t.TempDir(), "missing")}).Run(context.Background(), plan)
	assert.ErrorIs(t, err, yerrors.ErrWorkflowFailed)
}
