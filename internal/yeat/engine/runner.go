package engine

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/bioforensics/yeat/pkg/config"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/bioforensics/yeat/pkg/logger"

	"github.com/spf13/afero"
)

// PlanDir is the directory under the working directory that holds written plans
const PlanDir = ".yeat"

// Runner executes a plan.
//
//counterfeiter:generate . Runner
type Runner interface {
	Run(ctx context.Context, plan *Plan) error
}

// SnakemakeRunner writes the plan as a config file and runs snakemake on it
type SnakemakeRunner struct {
	binary    string
	snakefile string
	useConda  bool
	fs        afero.Fs
	stdout    io.Writer
	stderr    io.Writer
	logger    *logger.Logger
}

func NewSnakemakeRunner(cfg config.EngineConfig) *SnakemakeRunner {
	return &SnakemakeRunner{
		binary:    cfg.Binary,
		snakefile: cfg.Snakefile,
		useConda:  cfg.UseConda,
		fs:        afero.NewOsFs(),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		logger:    logger.WithField("component", "engine"),
	}
}

// WithOutput redirects the engine's stdout and stderr
func (r *SnakemakeRunner) WithOutput(stdout, stderr io.Writer) *SnakemakeRunner {
	r.stdout = stdout
	r.stderr = stderr
	return r
}

// PlanPath is where the plan for runID is written
func PlanPath(workDir, runID string) string {
	return filepath.Join(workDir, PlanDir, "plan-"+runID+".json")
}

// WritePlan stores the plan as JSON and returns its path
func (r *SnakemakeRunner) WritePlan(plan *Plan) (string, error) {
	path := PlanPath(plan.WorkDir, plan.RunID)
	if err := r.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create plan directory: %w", err)
	}

	data, err := plan.Encode("json")
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := afero.WriteFile(r.fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write plan: %w", err)
	}
	return path, nil
}

// Args builds the engine command line for a plan written to configFile
func (r *SnakemakeRunner) Args(plan *Plan, configFile string) []string {
	var args []string
	if r.snakefile != "" {
		args = append(args, "--snakefile", r.snakefile)
	}
	args = append(args,
		"--configfile", configFile,
		"--cores", strconv.Itoa(plan.Threads),
		"--directory", plan.WorkDir,
		"--printshellcmds",
	)
	if r.useConda {
		args = append(args, "--use-conda")
	}
	if plan.DryRun {
		args = append(args, "--dry-run")
	}
	return append(args, plan.Targets...)
}

// Run writes the plan and blocks until the engine exits.
// Any engine failure is reported as ErrWorkflowFailed.
func (r *SnakemakeRunner) Run(ctx context.Context, plan *Plan) error {
	configFile, err := r.WritePlan(plan)
	if err != nil {
		return err
	}
	if abs, err := filepath.Abs(configFile); err == nil {
		configFile = abs
	}

	args := r.Args(plan, configFile)
	log := r.logger.WithFields("run_id", plan.RunID, "seed", plan.Seed)
	log.Info("starting workflow", "binary", r.binary, "threads", plan.Threads,
		"workdir", plan.WorkDir, "dry_run", plan.DryRun, "targets", len(plan.Targets))
	log.Debug("engine command", "args", args)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Error("workflow failed", "exit_code", exitErr.ExitCode())
			return fmt.Errorf("%w: %s exited with status %d", yerrors.ErrWorkflowFailed, r.binary, exitErr.ExitCode())
		}
		log.Error("workflow could not start", "error", err)
		return fmt.Errorf("%w: %v", yerrors.ErrWorkflowFailed, err)
	}

	log.Info("workflow completed")
	return nil
}
