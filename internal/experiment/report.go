package experiment

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/dealerbench/internal/analysis"
	"github.com/lox/dealerbench/internal/fileutil"
)

// Format selects a report rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Write renders c to w in format.
func (c *Comparison) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return c.WriteJSON(w)
	case FormatText, "":
		return c.WriteText(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Save writes the report to path atomically.
func (c *Comparison) Save(path string, format Format) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return c.Write(w, format)
	})
}

// WriteJSON writes the comparison as indented JSON.
func (c *Comparison) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// WriteText writes a human-readable report.
func (c *Comparison) WriteText(w io.Writer) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Dealer fairness report"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("run %s  %s", c.RunID, c.CreatedAt.Format("2006-01-02 15:04:05Z"))))
	b.WriteString("\n\n")

	b.WriteString(headingStyle.Render("Arms"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-12s %8s %8s %10s %10s %10s %10s %9s %9s\n",
		"", "games", "aband.", "player win", "dealer win", "push", "dlr bust", "avg plyr", "avg dlr")
	for _, s := range []Summary{c.Control, c.Experiment} {
		fmt.Fprintf(&b, "  %-12s %8d %8d %10.4f %10.4f %10.4f %10.4f %9.2f %9.2f\n",
			truncateName(s.Name, 12), s.Completed, s.Abandoned,
			s.PlayerWinRate, s.DealerWinRate, s.PushRate, s.DealerBustRate,
			s.AvgPlayerHand, s.AvgDealerHand)
	}

	opts := c.Report.Options
	b.WriteString("\n")
	b.WriteString(headingStyle.Render("Tests"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  alpha=%g sample_size=%d control=%d/%d experiment=%d/%d (games/records)",
		opts.Alpha, opts.SampleSize,
		c.Report.ControlGames, c.Report.ControlSize,
		c.Report.ExperimentGames, c.Report.ExperimentSize)))
	b.WriteString("\n")

	for _, fr := range c.Report.Features {
		fmt.Fprintf(&b, "  %s\n", fr.Feature)
		for _, kind := range analysis.Kinds() {
			if res, ok := fr.Result(kind); ok {
				fmt.Fprintf(&b, "    %-24s %s\n", kind, formatResult(res))
				continue
			}
			if msg, ok := fr.Errors[kind]; ok {
				fmt.Fprintf(&b, "    %-24s %s\n", kind, mutedStyle.Render("skipped: "+msg))
			}
		}
	}

	b.WriteString("\n")
	if rejections := c.Rejections(); len(rejections) > 0 {
		b.WriteString(rejectStyle.Render(fmt.Sprintf("%d test(s) reject the fair-dealer hypothesis", len(rejections))))
	} else {
		b.WriteString(passStyle.Render("No test rejects the fair-dealer hypothesis"))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func formatResult(res analysis.Result) string {
	s := fmt.Sprintf("stat=%-10.5g", res.Statistic)
	if res.PValue != nil {
		s += fmt.Sprintf(" p=%-8.4g", *res.PValue)
	}
	if res.CriticalValue != nil {
		s += fmt.Sprintf(" crit=%-8.4g", *res.CriticalValue)
	}
	if res.RejectNull == nil {
		return s
	}
	if *res.RejectNull {
		return s + " " + rejectStyle.Render("REJECT")
	}
	return s + " " + passStyle.Render("ok")
}

func truncateName(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
