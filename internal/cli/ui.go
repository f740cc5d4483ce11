package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/productlens/pkg/pipeline"
	"github.com/matzehuels/productlens/pkg/product"
)

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for counts.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCell     = lipgloss.NewStyle().Padding(0, 1)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// out is where status output goes. Tests swap it for a buffer.
var out io.Writer = os.Stdout

func printSuccess(format string, args ...any) {
	fmt.Fprintln(out, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(out, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(out, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(out, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(20)
	fmt.Fprintln(out, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints rendered graph size and cache status on one line.
func printStats(nodeCount, edgeCount int, cached bool) {
	status, style := "fresh", styleComputed
	if cached {
		status, style = "cached", styleCached
	}
	sep := StyleDim.Render(" · ")
	fmt.Fprintln(out, "  "+
		StyleDim.Render(fmt.Sprintf("%d nodes", nodeCount))+sep+
		StyleDim.Render(fmt.Sprintf("%d edges", edgeCount))+sep+
		style.Render(status))
}

// summaryTable renders product summaries as a bordered table.
func summaryTable(summaries []product.Summary) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Name,
			strconv.Itoa(s.NodeCount),
			strconv.Itoa(s.Layers),
			strconv.Itoa(s.InternalEdges),
			fmt.Sprintf("%d (%d)", s.InputEdges, s.InputProducts),
			fmt.Sprintf("%d (%d)", s.OutputEdges, s.OutputProducts),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Product", "Nodes", "Layers", "Internal", "In (products)", "Out (products)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			if col == 0 {
				return styleCell.Foreground(colorCyan)
			}
			return styleCell
		}).
		Render()
}

// printDiagnostics prints analysis counts and the unattributed-node warning.
func printDiagnostics(d pipeline.Diagnostics) {
	printKeyValue("Data nodes", strconv.Itoa(d.DataNodes))
	printKeyValue("Edges", strconv.Itoa(d.Edges))
	printKeyValue("Products", strconv.Itoa(d.Products))
	if d.DroppedEdges > 0 {
		printKeyValue("Dropped edges", strconv.Itoa(d.DroppedEdges))
	}
	if d.HasCycles {
		printWarning("the data graph contains cycles")
	}
	if d.UnattributedNodes > 0 {
		printWarning("%d nodes were unattributable and excluded from product analysis", d.UnattributedNodes)
	}
}
