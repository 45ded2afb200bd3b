// Package readpath turns the read entries of a sample definition into a
// checked list of one or two file paths.
package readpath

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/bioforensics/yeat/pkg/logger"

	"github.com/spf13/afero"
)

// MaxFiles is the largest number of files a read entry may resolve to (a read pair)
const MaxFiles = 2

// Resolver resolves read entries against a filesystem
type Resolver struct {
	fs      afero.Fs
	baseDir string
	logger  *logger.Logger
}

// NewResolver creates a resolver. Relative paths are joined to baseDir.
func NewResolver(fs afero.Fs, baseDir string) *Resolver {
	return &Resolver{
		fs:      fs,
		baseDir: baseDir,
		logger:  logger.WithField("component", "readpath"),
	}
}

// Fs returns the filesystem the resolver reads from
func (r *Resolver) Fs() afero.Fs {
	return r.fs
}

func (r *Resolver) BaseDir() string {
	return r.baseDir
}

// Resolve expands the value of the read entry key of sample label.
// The value is a glob pattern, a single path, or a list of paths.
// Every failure is a *errors.SampleConfigError naming label and key.
func (r *Resolver) Resolve(label, key string, value any) ([]string, error) {
	var paths []string

	switch v := value.(type) {
	case string:
		if isGlob(v) && !r.exists(r.abs(v)) {
			matches, err := afero.Glob(r.fs, r.pattern(v))
			if err != nil {
				return nil, &yerrors.SampleConfigError{Label: label, Key: key, Path: v,
					Err: fmt.Errorf("%w: bad pattern: %v", yerrors.ErrInvalidValue, err)}
			}
			sort.Strings(matches)
			r.logger.Debug("expanded read glob", "sample", label, "key", key, "pattern", v, "matches", len(matches))
			paths = matches
		} else {
			paths = []string{r.abs(v)}
		}
	case []string:
		for _, p := range v {
			paths = append(paths, r.abs(p))
		}
	case []any:
		for _, item := range v {
			p, ok := item.(string)
			if !ok {
				return nil, &yerrors.SampleConfigError{Label: label, Key: key,
					Err: fmt.Errorf("%w: read list entries must be strings, got %T", yerrors.ErrInvalidValue, item)}
			}
			paths = append(paths, r.abs(p))
		}
	default:
		return nil, &yerrors.SampleConfigError{Label: label, Key: key,
			Err: fmt.Errorf("%w: expected a path, a glob or a list of paths, got %T", yerrors.ErrInvalidValue, value)}
	}

	if len(paths) < 1 || len(paths) > MaxFiles {
		return nil, yerrors.NewReadCountError(label, key, len(paths))
	}

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if seen[p] {
			return nil, yerrors.NewDuplicateReadError(label, key, p)
		}
		seen[p] = true

		if err := r.checkFile(p); err != nil {
			return nil, &yerrors.SampleConfigError{Label: label, Key: key, Path: p, Err: err}
		}
	}

	return paths, nil
}

func (r *Resolver) checkFile(path string) error {
	info, err := r.fs.Stat(path)
	if err != nil {
		return yerrors.ErrReadNotFound
	}
	if info.IsDir() {
		return fmt.Errorf("%w: path is a directory", yerrors.ErrInvalidValue)
	}
	return nil
}

func (r *Resolver) exists(path string) bool {
	_, err := r.fs.Stat(path)
	return err == nil
}

// pattern anchors a relative glob at baseDir. Metacharacters in baseDir
// itself match literally.
func (r *Resolver) pattern(glob string) string {
	if filepath.IsAbs(glob) || r.baseDir == "" {
		return filepath.Clean(glob)
	}
	return filepath.Join(escapeMeta(r.baseDir), glob)
}

func escapeMeta(s string) string {
	var b strings.Builder
	for _, c := range s {
		if strings.ContainsRune(`*?[\`, c) {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *Resolver) abs(path string) string {
	if filepath.IsAbs(path) || r.baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(r.baseDir, path)
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}
