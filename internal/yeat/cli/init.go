package cli

import (
	"fmt"
	"path/filepath"

	"github.com/bioforensics/yeat/internal/yeat/assembly"
	"github.com/bioforensics/yeat/internal/yeat/autopop"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// writeDocument prints doc, or writes it to outfile when one is given
func (a *app) writeDocument(cmd *cobra.Command, doc *assembly.Document, format, outfile string) error {
	f := assembly.FormatYAML
	switch {
	case format != "":
		parsed, err := assembly.ParseFormat(format)
		if err != nil {
			return err
		}
		f = parsed
	case outfile != "":
		f = assembly.FormatFromPath(outfile)
	}

	data, err := doc.Encode(f)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if outfile == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if !filepath.IsAbs(outfile) {
		outfile = filepath.Join(a.baseDir, outfile)
	}
	if err := a.fs.MkdirAll(filepath.Dir(outfile), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(outfile), err)
	}
	if err := afero.WriteFile(a.fs, outfile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outfile, err)
	}
	a.log.Info("configuration written", "path", outfile, "format", string(f))
	return nil
}

func (a *app) newInitCmd() *cobra.Command {
	var format, outfile string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Print an example configuration document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.writeDocument(cmd, assembly.TemplateDocument(), format, outfile)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Document format (yaml, json or toml)")
	cmd.Flags().StringVarP(&outfile, "outfile", "O", "", "Write to this file instead of stdout")
	return cmd
}

func (a *app) newAutopopCmd() *cobra.Command {
	var (
		files   []string
		seqPath string
		format  string
		outfile string
	)
	cmd := &cobra.Command{
		Use:   "autopop <sample>... | autopop <samples.txt>",
		Short: "Generate a configuration by matching read files to sample names",
		Long: `Generate a configuration by matching read files to sample names.

Samples are given as arguments, or as a single file listing one name per line.
Each file whose name contains a sample name is assigned to that sample; every
sample must receive one or two files. Read files are either listed with --files
or found by scanning --seq-path recursively for .fastq, .fastq.gz, .fq and .fq.gz.
The generated document has no assemblers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := autopop.New(a.fs, a.baseDir).Populate(autopop.Options{
				Samples: args,
				Files:   files,
				SeqPath: seqPath,
			})
			if err != nil {
				return err
			}
			return a.writeDocument(cmd, doc, format, outfile)
		},
	}
	cmd.Flags().StringSliceVar(&files, "files", nil, "Read files to assign to samples")
	cmd.Flags().StringVar(&seqPath, "seq-path", ".", "Directory scanned for read files when --files is not given")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Document format (yaml, json or toml)")
	cmd.Flags().StringVarP(&outfile, "outfile", "O", "", "Write to this file instead of stdout")
	return cmd
}
