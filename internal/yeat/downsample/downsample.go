// Package downsample computes how many reads to subsample so a sample reaches
// its target depth of coverage. Inputs are the QC reports the workflow writes.
package downsample

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/bioforensics/yeat/internal/yeat/domain"
	"github.com/bioforensics/yeat/internal/yeat/sample"
	yerrors "github.com/bioforensics/yeat/pkg/errors"
	"github.com/bioforensics/yeat/pkg/logger"

	"github.com/grailbio/base/tsv"
	"github.com/spf13/afero"
)

// LengthColumn is the mash report column holding the genome size estimate
const LengthColumn = "Length"

// Calculator reads QC reports through an afero filesystem
type Calculator struct {
	fs     afero.Fs
	logger *logger.Logger
}

func NewCalculator(fs afero.Fs) *Calculator {
	return &Calculator{
		fs:     fs,
		logger: logger.WithField("component", "downsample"),
	}
}

// Request describes one downsampling computation
type Request struct {
	GenomeSize    int
	CoverageDepth int
	Downsample    int
	MashReport    string
	QCReport      string
}

// RequestFor builds the request for one read type of a sample, using the
// sample's effective settings and the workflow's report locations.
func RequestFor(s *sample.Sample, rt domain.ReadType) Request {
	return Request{
		GenomeSize:    s.GenomeSize(),
		CoverageDepth: s.CoverageDepth(),
		Downsample:    s.Downsample(),
		MashReport:    s.MashReport(rt),
		QCReport:      s.QCReport(rt),
	}
}

// Result is the outcome of a downsampling computation.
// Enabled is false when downsample is -1; no report is read in that case.
type Result struct {
	Enabled           bool    `json:"enabled" yaml:"enabled"`
	GenomeSize        int     `json:"genome_size" yaml:"genome_size"`
	AverageReadLength float64 `json:"average_read_length" yaml:"average_read_length"`
	CoverageDepth     int     `json:"coverage_depth" yaml:"coverage_depth"`
	RequestedCount    int     `json:"requested_count" yaml:"requested_count"`
	ComputedCount     int     `json:"computed_count" yaml:"computed_count"`
}

// Compute resolves the genome size and average read length, then the read count
func (c *Calculator) Compute(req Request) (Result, error) {
	res := Result{
		CoverageDepth:  req.CoverageDepth,
		RequestedCount: req.Downsample,
		ComputedCount:  req.Downsample,
	}
	if req.Downsample == -1 {
		c.logger.Debug("downsampling disabled")
		return res, nil
	}
	res.Enabled = true

	genomeSize, err := c.GenomeSize(req.GenomeSize, req.MashReport)
	if err != nil {
		return res, err
	}
	res.GenomeSize = genomeSize

	avg, err := c.AverageReadLength(req.QCReport)
	if err != nil {
		return res, err
	}
	res.AverageReadLength = avg

	count, err := ReadsToSample(req.Downsample, genomeSize, req.CoverageDepth, avg)
	if err != nil {
		return res, yerrors.WrapReportError(req.QCReport, "summary.after_filtering", err)
	}
	res.ComputedCount = count
	c.logger.Debug("downsample computed", "genome_size", genomeSize, "average_read_length", avg,
		"coverage_depth", req.CoverageDepth, "reads", res.ComputedCount)
	return res, nil
}

// GenomeSize returns explicit when it is non-zero, otherwise the Length
// column of the first data row of the mash report.
func (c *Calculator) GenomeSize(explicit int, mashReportPath string) (int, error) {
	if explicit != 0 {
		return explicit, nil
	}

	f, err := c.open(mashReportPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := tsv.NewReader(f)
	r.HasHeaderRow = true
	r.UseHeaderNames = true

	var row mashRow
	if err := r.Read(&row); err != nil {
		if err == io.EOF {
			return 0, yerrors.WrapReportError(mashReportPath, LengthColumn, fmt.Errorf("%w: no data rows", yerrors.ErrReportMalformed))
		}
		return 0, yerrors.WrapReportError(mashReportPath, LengthColumn, fmt.Errorf("%w: %v", yerrors.ErrReportMalformed, err))
	}
	if row.Length <= 0 {
		return 0, yerrors.WrapReportError(mashReportPath, LengthColumn,
			fmt.Errorf("%w: %d is not a positive integer", yerrors.ErrReportMalformed, row.Length))
	}
	return int(row.Length), nil
}

// mashRow is the one column of the mash report that is used; the rest are ignored
type mashRow struct {
	Length int64 `tsv:"Length"`
}

type fastpReport struct {
	Summary *struct {
		AfterFiltering *struct {
			TotalReads *float64 `json:"total_reads"`
			TotalBases *float64 `json:"total_bases"`
		} `json:"after_filtering"`
	} `json:"summary"`
}

// AverageReadLength is total_bases / total_reads after filtering, from a fastp JSON report
func (c *Calculator) AverageReadLength(qcReportPath string) (float64, error) {
	data, err := c.readAll(qcReportPath)
	if err != nil {
		return 0, err
	}

	var report fastpReport
	if err := json.Unmarshal(data, &report); err != nil {
		return 0, yerrors.WrapReportError(qcReportPath, "", fmt.Errorf("%w: %v", yerrors.ErrReportMalformed, err))
	}
	if report.Summary == nil || report.Summary.AfterFiltering == nil {
		return 0, yerrors.WrapReportError(qcReportPath, "summary.after_filtering", yerrors.ErrReportMalformed)
	}
	after := report.Summary.AfterFiltering
	if after.TotalBases == nil {
		return 0, yerrors.WrapReportError(qcReportPath, "summary.after_filtering.total_bases", yerrors.ErrReportMalformed)
	}
	if after.TotalReads == nil {
		return 0, yerrors.WrapReportError(qcReportPath, "summary.after_filtering.total_reads", yerrors.ErrReportMalformed)
	}
	if *after.TotalReads == 0 {
		return 0, yerrors.WrapReportError(qcReportPath, "summary.after_filtering.total_reads", yerrors.ErrZeroReads)
	}
	return *after.TotalBases / *after.TotalReads, nil
}

// ReadsToSample returns requested unchanged unless it is 0, in which case the
// count is floor(genomeSize * coverageDepth / (2 * avg)). The factor 2 accounts
// for read pairs. A computed count needs a positive average read length.
func ReadsToSample(requested, genomeSize, coverageDepth int, avg float64) (int, error) {
	if requested != 0 {
		return requested, nil
	}
	if avg <= 0 {
		return 0, fmt.Errorf("%w: average read length %g is not positive", yerrors.ErrReportMalformed, avg)
	}
	return int(math.Floor(float64(genomeSize) * float64(coverageDepth) / (2 * avg))), nil
}

func (c *Calculator) open(path string) (afero.File, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return nil, reportOpenError(path, err)
	}
	return f, nil
}

func (c *Calculator) readAll(path string) ([]byte, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, reportOpenError(path, err)
	}
	return data, nil
}

func reportOpenError(path string, err error) error {
	if os.IsNotExist(err) {
		return yerrors.WrapReportError(path, "", yerrors.ErrReportMissing)
	}
	return yerrors.WrapReportError(path, "", err)
}
