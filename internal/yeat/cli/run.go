package cli

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bioforensics/yeat/internal/yeat/assembly"
	"github.com/bioforensics/yeat/internal/yeat/engine"
	"github.com/bioforensics/yeat/internal/yeat/readpath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runFlags are the per-invocation overrides of the settings file's run defaults
type runFlags struct {
	threads   int
	workDir   string
	dryRun    bool
	seed      int
	copyInput bool
	snakemake string
	snakefile string
}

func (f *runFlags) register(flags *pflag.FlagSet, withEngine bool) {
	flags.IntVarP(&f.threads, "threads", "t", 0, "Number of threads (default from settings)")
	flags.StringVarP(&f.workDir, "workdir", "o", "", "Working directory for workflow outputs")
	flags.IntVar(&f.seed, "seed", 0, "Random seed for read sampling (1-65535; random if unset)")
	flags.BoolVar(&f.copyInput, "copy-input", false, "Copy input reads instead of symlinking them")
	if withEngine {
		flags.BoolVarP(&f.dryRun, "dry-run", "n", false, "Show what would run without running it")
		flags.StringVar(&f.snakemake, "snakemake", "", "Workflow engine binary")
		flags.StringVar(&f.snakefile, "snakefile", "", "Workflow definition passed to the engine")
	}
}

// runOptions merges changed flags over the settings file
func (a *app) runOptions(flags *pflag.FlagSet, f *runFlags) engine.RunOptions {
	opts := engine.RunOptionsFrom(a.cfg.Run)
	if flags.Changed("threads") {
		opts.Threads = f.threads
	}
	if flags.Changed("workdir") {
		opts.WorkDir = f.workDir
	}
	if flags.Changed("seed") {
		opts.Seed = f.seed
	}
	if flags.Changed("copy-input") {
		opts.CopyInput = f.copyInput
	}
	if flags.Changed("dry-run") {
		opts.DryRun = f.dryRun
	}
	return opts
}

// loadConfiguration parses an assembly document; relative read paths resolve
// against the directory yeat was started in.
func (a *app) loadConfiguration(path string, threads int) (*assembly.Configuration, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.baseDir, path)
	}
	return assembly.Load(a.fs, path, assembly.Options{
		Resolver: readpath.NewResolver(a.fs, a.baseDir),
		Threads:  threads,
		Platform: runtime.GOOS,
	})
}

func (a *app) newRunCmd() *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Resolve a configuration and run the assembly workflow",
		Long: `Resolve a configuration and run the assembly workflow.

The resolved plan is written to <workdir>/.yeat/plan-<run-id>.json and handed
to the workflow engine together with the list of targets to build.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.runOptions(cmd.Flags(), flags)
			cfg, err := a.loadConfiguration(args[0], opts.Threads)
			if err != nil {
				return err
			}
			plan, err := engine.NewPlan(cfg, opts)
			if err != nil {
				return err
			}

			engineCfg := a.cfg.Engine
			if flags.snakemake != "" {
				engineCfg.Binary = flags.snakemake
			}
			if flags.snakefile != "" {
				engineCfg.Snakefile = flags.snakefile
			}
			a.log.Info("running assembly workflow", "config", args[0], "run_id", plan.RunID,
				"samples", len(plan.Samples), "assemblers", len(plan.Assemblers))
			return a.newRunner(engineCfg).Run(cmd.Context(), plan)
		},
	}
	flags.register(cmd.Flags(), true)
	return cmd
}

func (a *app) newCheckCmd() *cobra.Command {
	var threads int
	cmd := &cobra.Command{
		Use:   "check <config>",
		Short: "Validate a configuration without running anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threads") {
				threads = a.cfg.Run.Threads
			}
			cfg, err := a.loadConfiguration(args[0], threads)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: OK\n", args[0])
			for _, s := range cfg.Samples() {
				fmt.Fprintf(out, "  sample    %s\n", s)
			}
			for _, asm := range cfg.Assemblers() {
				fmt.Fprintf(out, "  assembler %s (%s): %s\n", asm.Label(), asm.Algorithm(), strings.Join(asm.Samples(), ", "))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&threads, "threads", "t", 0, "Number of threads the run will use (default from settings)")
	return cmd
}

func (a *app) newTargetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets <config>",
		Short: "List the workflow targets a configuration resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfiguration(args[0], a.cfg.Run.Threads)
			if err != nil {
				return err
			}
			for _, target := range cfg.Targets() {
				fmt.Fprintln(cmd.OutOrStdout(), target)
			}
			return nil
		},
	}
	return cmd
}

func (a *app) newResolveCmd() *cobra.Command {
	flags := &runFlags{}
	var format string
	cmd := &cobra.Command{
		Use:   "resolve <config>",
		Short: "Print the resolved workflow plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.runOptions(cmd.Flags(), flags)
			cfg, err := a.loadConfiguration(args[0], opts.Threads)
			if err != nil {
				return err
			}
			plan, err := engine.NewPlan(cfg, opts)
			if err != nil {
				return err
			}
			data, err := plan.Encode(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	flags.register(cmd.Flags(), false)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json or yaml)")
	return cmd
}
