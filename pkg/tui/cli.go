// Package tui renders procmine output for a terminal.
// Plain streaming output, styled with lipgloss; no full-screen UI.
package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/logflow/procmine/pkg/discovery"
	"github.com/logflow/procmine/pkg/logstats"
	"github.com/logflow/procmine/pkg/results"
	"github.com/logflow/procmine/pkg/tree"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
	successStyle  = lipgloss.NewStyle().Foreground(success).Bold(true)
	operatorStyle = lipgloss.NewStyle().Foreground(accent)
)

const rule = "  ─────────────────────────────────────"

// Printer writes styled output to w.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) field(label, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", mutedStyle.Render(label), titleStyle.Render(value))
}

// Header prints the tool banner.
func (p *Printer) Header(version string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, titleStyle.Render("  PROCMINE")+mutedStyle.Render(" "+version))
	fmt.Fprintln(p.w, mutedStyle.Render("  Inductive process discovery"))
	fmt.Fprintln(p.w)
}

// Section prints a section title.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, accentStyle.Render("▸ "+strings.ToUpper(title)))
}

// Tree prints t one node per line. Operators are highlighted and silent
// steps are muted.
func (p *Printer) Tree(t *tree.Tree) {
	root := t.Root()
	if root == tree.NoNode {
		fmt.Fprintln(p.w, mutedStyle.Render("  <empty>"))
		return
	}
	t.Walk(root, func(_ tree.NodeID, n tree.Node, depth int) bool {
		pad := "  " + strings.Repeat("  ", depth)
		switch n.Kind {
		case tree.KindActivity:
			fmt.Fprintln(p.w, pad+n.Label)
		case tree.KindTau:
			fmt.Fprintln(p.w, pad+mutedStyle.Render("tau"))
		default:
			fmt.Fprintln(p.w, pad+operatorStyle.Render(n.Kind.Symbol())+" "+mutedStyle.Render(n.Kind.String()))
		}
		return true
	})
}

// Result prints the outcome of a discovery run.
func (p *Printer) Result(res *discovery.Result, shape results.LogShape) {
	fmt.Fprintln(p.w)
	if res.Cancelled {
		fmt.Fprintln(p.w, accentStyle.Render("  ✗ DISCOVERY CANCELLED"))
	} else {
		fmt.Fprintln(p.w, successStyle.Render("  ✓ DISCOVERY COMPLETE"))
	}
	fmt.Fprintln(p.w)
	p.field("Traces:", formatNumber(int64(shape.Traces)))
	p.field("Events:", formatNumber(int64(shape.Events)))
	p.field("Activities:", fmt.Sprintf("%d", shape.Activities))
	p.field("Time:", formatDuration(res.Duration))

	thresholds := make([]float64, 0, len(res.Discarded))
	for t := range res.Discarded {
		thresholds = append(thresholds, t)
	}
	sort.Float64s(thresholds)
	for _, t := range thresholds {
		p.field(fmt.Sprintf("Discarded @%g:", t), fmt.Sprintf("%d", res.Discarded[t]))
	}

	if res.Tree == nil {
		return
	}
	st := res.Tree.Stats()
	p.field("Nodes:", fmt.Sprintf("%d (depth %d, %d tau)", st.Nodes, st.Depth, st.Taus))
	p.Section("process tree")
	fmt.Fprintln(p.w, "  "+res.Tree.String())
	fmt.Fprintln(p.w)
	p.Tree(res.Tree)
}

// Stats prints the statistics of a log, with at most top DFG edges.
func (p *Printer) Stats(s *logstats.Snapshot, top int) {
	p.Section("log")
	p.field("Traces:", formatNumber(int64(s.TraceCount)))
	p.field("Events:", formatNumber(int64(s.EventCount)))
	p.field("Empty traces:", fmt.Sprintf("%d", s.EmptyTraces))
	p.field("Start:", strings.Join(s.StartActivities(), ", "))
	p.field("End:", strings.Join(s.EndActivities(), ", "))

	p.Section("activities")
	for _, a := range s.Activities() {
		fmt.Fprintf(p.w, "  %-32s %8d  %s\n", a, s.ActivityCounts[a],
			mutedStyle.Render(fmt.Sprintf("per trace %d..%d", s.MinPerTrace[a], s.MaxPerTrace[a])))
	}

	edges := s.DFG.EdgeList()
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Count > edges[j].Count })
	if top > 0 && len(edges) > top {
		edges = edges[:top]
	}
	p.Section("directly follows")
	for _, e := range edges {
		fmt.Fprintf(p.w, "  %s %s %s %s\n", e.Source, mutedStyle.Render("→"), e.Target,
			mutedStyle.Render(fmt.Sprintf("(%d)", e.Count)))
	}
	fmt.Fprintln(p.w)
}

// Strategies prints the registered strategy names per family.
func (p *Printer) Strategies(families map[string][]string) {
	names := make([]string, 0, len(families))
	for f := range families {
		names = append(names, f)
	}
	sort.Strings(names)
	for _, f := range names {
		p.Section(f)
		for _, s := range families[f] {
			fmt.Fprintln(p.w, "  "+s)
		}
	}
	fmt.Fprintln(p.w)
}

// Records prints one line per stored record.
func (p *Printer) Records(records []*results.Record) {
	if len(records) == 0 {
		fmt.Fprintln(p.w, mutedStyle.Render("  no results"))
		return
	}
	for _, r := range records {
		status := successStyle.Render(r.Status)
		if r.Status != results.StatusComplete {
			status = accentStyle.Render(r.Status)
		}
		fmt.Fprintf(p.w, "  %s  %s  %s  %s\n",
			titleStyle.Render(r.ID),
			mutedStyle.Render(r.CreatedAt.Local().Format(time.DateTime)),
			status,
			r.Input)
	}
}

// Record prints a stored record in full.
func (p *Printer) Record(r *results.Record) {
	p.Section("result " + r.ID)
	p.field("Input:", r.Input)
	p.field("Status:", r.Status)
	p.field("Created:", r.CreatedAt.Local().Format(time.DateTime))
	p.field("Policy:", r.Policy)
	p.field("Traces:", formatNumber(int64(r.Traces)))
	p.field("Events:", formatNumber(int64(r.Events)))
	p.field("Discarded:", fmt.Sprintf("%d", r.TotalDiscarded()))
	p.field("Time:", formatDuration(r.Duration))
	if r.Tree != nil {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, "  "+r.Tree.String())
	}
	fmt.Fprintln(p.w)
}

// Rule prints a horizontal separator.
func (p *Printer) Rule() {
	fmt.Fprintln(p.w, mutedStyle.Render(rule))
}

// Spinner shows an indeterminate progress indicator on w until stop is
// called.
func Spinner(w io.Writer, description string) (stop func()) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		tick := time.NewTicker(80 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-done:
				_ = bar.Finish()
				return
			case <-tick.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}
