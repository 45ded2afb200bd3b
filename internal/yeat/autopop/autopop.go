// Package autopop builds a starter configuration document from a set of
// sample names and the FASTQ files found for them.
package autopop

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bioforensics/yeat/internal/yeat/assembly"
	"github.com/bioforensics/yeat/internal/yeat/domain"
	"github.com/bioforensics/yeat/internal/yeat/readpath"
	"github.com/bioforensics/yeat/internal/yeat/sample"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/bioforensics/yeat/pkg/logger"

	"github.com/spf13/afero"
)

// Extensions are the file suffixes recognized as sequence files
var Extensions = []string{".fastq", ".fastq.gz", ".fq", ".fq.gz"}

// Options selects the samples and where their reads come from.
// Files wins over SeqPath when both are set.
type Options struct {
	Samples []string
	Files   []string
	SeqPath string
}

// Populator assigns read files to samples
type Populator struct {
	fs      afero.Fs
	baseDir string
	logger  *logger.Logger
}

// New returns a Populator resolving relative paths against baseDir
func New(fs afero.Fs, baseDir string) *Populator {
	return &Populator{
		fs:      fs,
		baseDir: baseDir,
		logger:  logger.WithField("component", "autopop"),
	}
}

// Populate returns a document with one illumina entry per sample and no assemblers
func (p *Populator) Populate(opts Options) (*assembly.Document, error) {
	samples, err := p.LoadSamples(opts.Samples)
	if err != nil {
		return nil, err
	}
	if err := CheckSamples(samples); err != nil {
		return nil, err
	}

	files := opts.Files
	if len(files) == 0 {
		if opts.SeqPath == "" {
			return nil, fmt.Errorf("either read files or a sequence directory is required")
		}
		if files, err = p.FindFiles(opts.SeqPath); err != nil {
			return nil, err
		}
	}
	p.logger.Debug("candidate files", "count", len(files))

	assigned, err := Assign(samples, p.absolute(files))
	if err != nil {
		return nil, err
	}

	doc := &assembly.Document{
		Samples:    make(map[string]map[string]any, len(assigned)),
		Assemblers: map[string]assembly.AssemblerEntry{},
	}
	for label, reads := range assigned {
		doc.Samples[label] = map[string]any{string(domain.ReadTypeIllumina): reads}
	}
	p.logger.Info("populated samples", "samples", len(assigned))
	return doc, nil
}

// LoadSamples returns the sorted sample names. A single argument naming an
// existing file is read as a newline separated list.
func (p *Populator) LoadSamples(args []string) ([]string, error) {
	names := args
	if len(args) == 1 {
		path := p.absolute(args)[0]
		if info, err := p.fs.Stat(path); err == nil && !info.IsDir() {
			data, err := afero.ReadFile(p.fs, path)
			if err != nil {
				return nil, fmt.Errorf("failed to read sample list %s: %w", path, err)
			}
			names = nil
			for _, line := range strings.Split(string(data), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					names = append(names, line)
				}
			}
		}
	}
	if len(names) == 0 {
		return nil, yerrors.WrapConfigurationError(assembly.SectionSamples, "", yerrors.ErrNoSamples)
	}

	out := append([]string(nil), names...)
	sort.Strings(out)
	for _, name := range out {
		if err := sample.ValidateLabel(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CheckSamples rejects duplicate names and names contained in another name,
// since files are matched by substring.
func CheckSamples(names []string) error {
	for i, a := range names {
		for j, b := range names {
			if i == j {
				continue
			}
			if strings.Contains(b, a) {
				return yerrors.WrapSampleError(a, "",
					fmt.Errorf("%w: sample name is a substring of sample '%s'", yerrors.ErrInvalidLabel, b))
			}
		}
	}
	return nil
}

// FindFiles walks root recursively and returns the sorted paths of sequence files
func (p *Populator) FindFiles(root string) ([]string, error) {
	root = p.absolute([]string{root})[0]
	info, err := p.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("sequence directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sequence directory %s: not a directory", root)
	}

	var files []string
	err = afero.Walk(p.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsSequenceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// IsSequenceFile reports whether path has a recognized sequence extension
func IsSequenceFile(path string) bool {
	for _, ext := range Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Assign gives each sample the files whose base name contains it.
// Every sample must end up with one or two files.
func Assign(samples, files []string) (map[string][]string, error) {
	out := make(map[string][]string, len(samples))
	for _, name := range samples {
		var matched []string
		for _, f := range files {
			if strings.Contains(filepath.Base(f), name) {
				matched = append(matched, f)
			}
		}
		if len(matched) < 1 || len(matched) > readpath.MaxFiles {
			return nil, yerrors.NewReadCountError(name, string(domain.ReadTypeIllumina), len(matched))
		}
		out[name] = matched
	}
	return out, nil
}

func (p *Populator) absolute(paths []string) []string {
	out := make([]string, len(paths))
	for i, path := range paths {
		if filepath.IsAbs(path) || p.baseDir == "" {
			out[i] = path
		} else {
			out[i] = filepath.Join(p.baseDir, path)
		}
	}
	return out
}
