package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/blockmatmul/pkg/blockmatmul"
)

var (
	keyStyle   = lipgloss.NewStyle().Bold(true).PaddingLeft(1).PaddingRight(1).Align(lipgloss.Right)
	valueStyle = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1).Align(lipgloss.Left)
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 0, 4)
)

func newSummaryTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return keyStyle
			}
			return valueStyle
		})
}

// renderSummary returns the summary of the run as a titled table.
func renderSummary(rep *report) string {
	cfg := rep.cfg
	table := newSummaryTable()
	table.Row("job id", rep.jobID)
	table.Row("A", fmt.Sprintf("%s x %s (%s files)", humanize.Comma(int64(cfg.Rows())), humanize.Comma(int64(cfg.Inner())), humanize.Comma(int64(rep.aFiles))))
	table.Row("B", fmt.Sprintf("%s x %s (%s files)", humanize.Comma(int64(cfg.Inner())), humanize.Comma(int64(cfg.Cols())), humanize.Comma(int64(rep.bFiles))))
	table.Row("blocks", fmt.Sprintf("%d x %d cells, M=%s, N=%s", cfg.RowBlock(), cfg.ColBlock(), humanize.Comma(int64(cfg.M())), humanize.Comma(int64(cfg.N()))))
	table.Row("missing entries", cfg.MissingPolicy().String())
	table.Row("parallelism / partitions", fmt.Sprintf("%d / %d", rep.parallelism, rep.partitions))
	if stats := rep.stats; stats != nil {
		for _, name := range []string{blockmatmul.StageA, blockmatmul.StageB} {
			stage := stats.Stage(name)
			if stage == nil {
				continue
			}
			table.Row("entries of "+name, fmt.Sprintf("%s read, %s emitted (x%s)",
				humanize.Comma(stage.Records), humanize.Comma(stage.Emitted), humanize.FtoaWithDigits(stage.Amplification(), 2)))
		}
		table.Row("blocks computed", humanize.Comma(int64(stats.Groups)))
		table.Row("map / shuffle / reduce", fmt.Sprintf("%s / %s / %s", stats.MapDuration, stats.ShuffleDuration, stats.ReduceDuration))
	}
	output := humanize.Comma(int64(rep.numOutputs)) + " cells"
	if rep.outPath != "" {
		output = fmt.Sprintf("%s in %q (%s)", output, rep.outPath, humanize.Bytes(uint64(rep.outBytes)))
	}
	table.Row("output", output)
	if rep.verified {
		table.Row("verified", "yes")
	}
	table.Row("elapsed", rep.elapsed.String())

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("blockmatmul"))
	sb.WriteString("\n")
	sb.WriteString(table.Render())
	return sb.String()
}
