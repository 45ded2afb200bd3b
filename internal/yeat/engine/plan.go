// Package engine hands a resolved assembly configuration to the external
// workflow engine. The Plan is the only thing the engine sees.
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bioforensics/yeat/internal/yeat/assembly"
	"github.com/bioforensics/yeat/internal/yeat/domain"
	"github.com/bioforensics/yeat/pkg/config"
	"github.com/bioforensics/yeat/pkg/version"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// RunOptions are the per-invocation knobs of a workflow run
type RunOptions struct {
	Threads   int
	WorkDir   string
	DryRun    bool
	CopyInput bool
	Seed      int // 0 picks a random seed
}

// RunOptionsFrom takes the run defaults of the tool configuration
func RunOptionsFrom(cfg config.RunConfig) RunOptions {
	return RunOptions{
		Threads:   cfg.Threads,
		WorkDir:   cfg.WorkDir,
		DryRun:    cfg.DryRun,
		CopyInput: cfg.CopyInput,
		Seed:      cfg.Seed,
	}
}

// Plan is the fully resolved, serializable view of one workflow run
type Plan struct {
	RunID          string                   `json:"run_id" yaml:"run_id"`
	Generator      string                   `json:"generator" yaml:"generator"`
	CreatedAt      time.Time                `json:"created_at" yaml:"created_at"`
	Seed           int                      `json:"seed" yaml:"seed"`
	Threads        int                      `json:"threads" yaml:"threads"`
	WorkDir        string                   `json:"workdir" yaml:"workdir"`
	DryRun         bool                     `json:"dry_run" yaml:"dry_run"`
	CopyInput      bool                     `json:"copy_input" yaml:"copy_input"`
	GlobalSettings domain.GlobalSettings    `json:"global_settings" yaml:"global_settings"`
	Samples        map[string]SamplePlan    `json:"samples" yaml:"samples"`
	Assemblers     map[string]AssemblerPlan `json:"assemblers" yaml:"assemblers"`
	Targets        []string                 `json:"targets" yaml:"targets"`
}

// SamplePlan is one sample's resolved reads, settings and QC outputs
type SamplePlan struct {
	Reads        map[domain.ReadType][]string `json:"reads" yaml:"reads"`
	Downsampled  map[domain.ReadType][]string `json:"downsampled" yaml:"downsampled"`
	Paired       bool                         `json:"paired" yaml:"paired"`
	BestLongRead domain.ReadType              `json:"best_long_read,omitempty" yaml:"best_long_read,omitempty"`
	Settings     domain.GlobalSettings        `json:"settings" yaml:"settings"`
	QCTargets    []string                     `json:"qc_targets" yaml:"qc_targets"`
}

// AssemblerPlan is one assembler with its per-sample inputs
type AssemblerPlan struct {
	Algorithm string                    `json:"algorithm" yaml:"algorithm"`
	Arguments string                    `json:"arguments" yaml:"arguments"`
	Mode      string                    `json:"mode,omitempty" yaml:"mode,omitempty"`
	Graph     bool                      `json:"graph" yaml:"graph"`
	Samples   map[string]AssemblerInput `json:"samples" yaml:"samples"`
	Targets   []string                  `json:"targets" yaml:"targets"`
}

// AssemblerInput is what one assembler run on one sample consumes
type AssemblerInput struct {
	InputFiles []string `json:"input_files" yaml:"input_files"`
	InputArgs  string   `json:"input_args" yaml:"input_args"`
	OutputDir  string   `json:"output_dir" yaml:"output_dir"`
}

// NewPlan resolves cfg and opts into a Plan with a fresh run id
func NewPlan(cfg *assembly.Configuration, opts RunOptions) (*Plan, error) {
	if opts.Threads < 1 {
		return nil, fmt.Errorf("threads must be at least 1, got %d", opts.Threads)
	}
	if opts.Seed < 0 || opts.Seed > config.MaxSeed {
		return nil, fmt.Errorf("seed must be between 0 and %d (0 picks one at random), got %d", config.MaxSeed, opts.Seed)
	}
	if opts.Seed == 0 {
		opts.Seed = RandomSeed()
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}

	plan := &Plan{
		RunID:          uuid.New().String(),
		Generator:      version.UserAgent(),
		CreatedAt:      time.Now().UTC(),
		Seed:           opts.Seed,
		Threads:        opts.Threads,
		WorkDir:        opts.WorkDir,
		DryRun:         opts.DryRun,
		CopyInput:      opts.CopyInput,
		GlobalSettings: cfg.GlobalSettings(),
		Samples:        make(map[string]SamplePlan),
		Assemblers:     make(map[string]AssemblerPlan),
		Targets:        cfg.Targets(),
	}

	for _, s := range cfg.Samples() {
		sp := SamplePlan{
			Reads:       s.AllReads(),
			Downsampled: make(map[domain.ReadType][]string),
			Paired:      s.IsPaired(),
			Settings:    s.Settings(),
			QCTargets:   s.QCTargets(),
		}
		for _, rt := range s.ReadTypes() {
			sp.Downsampled[rt] = s.DownsampledReads(rt)
		}
		if rt, ok := s.BestLongReadType(); ok {
			sp.BestLongRead = rt
		}
		plan.Samples[s.Label()] = sp
	}

	for _, a := range cfg.Assemblers() {
		ap := AssemblerPlan{
			Algorithm: a.Algorithm(),
			Arguments: a.Arguments(),
			Mode:      string(a.Mode()),
			Graph:     a.ProducesGraph(),
			Samples:   make(map[string]AssemblerInput),
			Targets:   a.TargetOutputPaths(),
		}
		for _, label := range a.Samples() {
			files, err := a.InputFiles(label)
			if err != nil {
				return nil, err
			}
			args, err := a.InputArguments(label)
			if err != nil {
				return nil, err
			}
			ap.Samples[label] = AssemblerInput{
				InputFiles: files,
				InputArgs:  args,
				OutputDir:  a.OutputDir(label),
			}
		}
		plan.Assemblers[a.Label()] = ap
	}

	return plan, nil
}

// RandomSeed returns a seed in [1, MaxSeed]
func RandomSeed() int {
	return rand.IntN(config.MaxSeed) + 1
}

// Encode serializes the plan as "json" or "yaml"
func (p *Plan) Encode(format string) ([]byte, error) {
	switch format {
	case "json", "":
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported plan format %q (want json or yaml)", format)
}
