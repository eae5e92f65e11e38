package doctor

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/tilework-tech/nori-profiles/internal/errors"
)

// Format specifies the output format for reports.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// Reporter formats and writes doctor reports.
type Reporter struct {
	out     io.Writer
	format  Format
	verbose bool
}

// NewReporter creates a new Reporter. Passing checks are only listed in
// verbose text output.
func NewReporter(out io.Writer, format Format, verbose bool) *Reporter {
	return &Reporter{out: out, format: format, verbose: verbose}
}

// Report writes report to the output.
func (r *Reporter) Report(report *Report) error {
	if report == nil {
		return nil
	}
	if r.format == FormatJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "encoding JSON report")
	}
	r.reportText(report)
	return nil
}

func (r *Reporter) reportText(report *Report) {
	shown := 0
	for _, res := range report.Results {
		if !r.verbose && (res.Status == SeverityPass || res.Status == SeverityInfo) {
			continue
		}
		shown++
		fmt.Fprintf(r.out, "%s [%s] %s: %s\n", statusIcon(res.Status), res.Category, res.Name, res.Message)
		for _, p := range res.Problems {
			fmt.Fprintf(r.out, "    • %s\n", p)
		}
		if res.FixHint != "" && res.Status >= SeverityWarning {
			fmt.Fprintln(r.out, color.New(color.FgHiBlack).Sprintf("  hint: %s", res.FixHint))
		}
	}
	if shown > 0 {
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "Summary: %s, %d info, %s, %s\n",
		color.GreenString("%d passed", report.Summary.Passed),
		report.Summary.Info,
		color.YellowString("%d warnings", report.Summary.Warnings),
		color.RedString("%d errors", report.Summary.Errors),
	)
}

func statusIcon(s Severity) string {
	switch s {
	case SeverityPass:
		return color.GreenString("✓")
	case SeverityInfo:
		return "ℹ"
	case SeverityWarning:
		return color.YellowString("⚠")
	case SeverityError:
		return color.RedString("✗")
	default:
		return "?"
	}
}
