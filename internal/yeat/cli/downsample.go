package cli

import (
	"fmt"
	"path/filepath"

	"github.com/bioforensics/yeat/internal/yeat/domain"
	"github.com/bioforensics/yeat/internal/yeat/downsample"
	"github.com/bioforensics/yeat/internal/yeat/engine"
	"github.com/bioforensics/yeat/pkg/config"
	yerrors "github.com/bioforensics/yeat/pkg/errors"

	"github.com/spf13/cobra"
)

func (a *app) newDownsampleCmd() *cobra.Command {
	var (
		readType string
		workDir  string
		seed     int
	)
	cmd := &cobra.Command{
		Use:   "downsample <config> <sample>",
		Short: "Compute the number of reads to sample for one sample",
		Long: `Compute the number of reads to sample for one sample.

Reads the fastp and mash reports the QC step wrote under the working directory
and prints the genome size, average read length, target depth of coverage,
number of reads to sample and the sampling seed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfiguration(args[0], a.cfg.Run.Threads)
			if err != nil {
				return err
			}
			s, ok := cfg.Sample(args[1])
			if !ok {
				return yerrors.WrapSampleError(args[1], "", yerrors.ErrSampleNotFound)
			}

			rt := domain.ReadType(readType)
			if readType == "" {
				rt = s.ReadTypes()[0]
			} else if !s.HasReadType(rt) {
				return yerrors.WrapSampleError(s.Label(), readType,
					fmt.Errorf("%w: sample has no %s reads", yerrors.ErrInvalidValue, readType))
			}

			if !cmd.Flags().Changed("workdir") {
				workDir = a.cfg.Run.WorkDir
			}
			if !filepath.IsAbs(workDir) {
				workDir = filepath.Join(a.baseDir, workDir)
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Run.Seed
			}
			if seed < 0 || seed > config.MaxSeed {
				return fmt.Errorf("seed must be between 0 and %d (0 picks one at random), got %d", config.MaxSeed, seed)
			}
			if seed == 0 {
				seed = engine.RandomSeed()
			}

			req := downsample.RequestFor(s, rt)
			req.MashReport = filepath.Join(workDir, req.MashReport)
			req.QCReport = filepath.Join(workDir, req.QCReport)

			res, err := downsample.NewCalculator(a.fs).Compute(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Enabled {
				fmt.Fprintf(out, "[yeat] downsampling disabled for sample %s\n", s.Label())
				return nil
			}
			fmt.Fprintf(out, "[yeat] genome size: %d\n", res.GenomeSize)
			fmt.Fprintf(out, "[yeat] average read length: %g\n", res.AverageReadLength)
			fmt.Fprintf(out, "[yeat] target depth of coverage: %dx\n", res.CoverageDepth)
			fmt.Fprintf(out, "[yeat] number of reads to sample: %d\n", res.ComputedCount)
			fmt.Fprintf(out, "[yeat] random seed for sampling: %d\n", seed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&readType, "read-type", "r", "", "Read type to compute for (default: the sample's first)")
	cmd.Flags().StringVarP(&workDir, "workdir", "o", "", "Working directory holding the QC reports")
	cmd.Flags().IntVar(&seed, "seed", 0, "Random seed reported for sampling")
	return cmd
}
