package cli

import (
	"io"
	"os"

	"github.com/bioforensics/yeat/internal/yeat/engine"
	"github.com/bioforensics/yeat/pkg/config"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/bioforensics/yeat/pkg/logger"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app carries what every command needs; tests swap the filesystem, the
// output streams and the workflow runner.
type app struct {
	fs        afero.Fs
	stdout    io.Writer
	stderr    io.Writer
	baseDir   string
	newRunner func(config.EngineConfig) engine.Runner

	settingsPath string
	logLevel     string
	logFormat    string

	cfg *config.Config
	log *logger.Logger
}

// Execute runs the command line in os.Args and logs a failure with its classification
func Execute() error {
	return newApp().execute(nil)
}

// NewRootCmd builds the yeat command tree on the real filesystem
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newApp() *app {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &app{
		fs:      afero.NewOsFs(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		baseDir: cwd,
		newRunner: func(cfg config.EngineConfig) engine.Runner {
			return engine.NewSnakemakeRunner(cfg)
		},
	}
}

// execute runs args, or os.Args when args is nil
func (a *app) execute(args []string) error {
	root := newRootCmd(a)
	if args != nil {
		root.SetArgs(args)
	}
	err := root.Execute()
	if err != nil {
		log := a.log
		if log == nil {
			log = logger.WithField("component", "cli")
		}
		yerrors.LogError(log, err, "command failed")
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "yeat",
		Short: "YEAT - Your Everyday Assembly Toolkit",
		Long: `YEAT - Your Everyday Assembly Toolkit

Assembles genomes from Illumina, PacBio HiFi and Oxford Nanopore reads by
resolving a configuration document of samples and assemblers into a workflow.

Quick Examples:
  yeat init > config.yml              # Write an example configuration
  yeat check config.yml               # Validate a configuration
  yeat run config.yml -t 8 -o out     # Run the assembly workflow
  yeat run config.yml -n              # Dry run

Use 'yeat <command> --help' for detailed information about any command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.settingsPath, "settings", "",
		"Path to yeat settings file (searches common locations if not specified)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level (DEBUG, INFO, WARN, ERROR)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "",
		"Log format (text or json)")

	root.AddCommand(a.newRunCmd())
	root.AddCommand(a.newCheckCmd())
	root.AddCommand(a.newTargetsCmd())
	root.AddCommand(a.newResolveCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(a.newAutopopCmd())
	root.AddCommand(a.newDownsampleCmd())
	root.AddCommand(a.newVersionCmd())
	return root
}

// setup loads the tool settings and configures logging before any command runs
func (a *app) setup() error {
	cfg, source, err := config.LoadConfig(a.settingsPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger.Configure(logger.Config{Level: level, Output: a.stderr, Format: cfg.Logging.Format})

	a.cfg = cfg
	a.log = logger.WithField("component", "cli")
	a.log.Debug("settings loaded", "source", source)
	return nil
}
