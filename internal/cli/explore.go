package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/productlens/pkg/pipeline"
	"github.com/matzehuels/productlens/pkg/product"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// ProductSelection is the product picked in the explorer.
type ProductSelection struct {
	Product string
	Nodes   bool // node-level drill-down
}

// ProductListModel is the bubbletea model for interactive product selection.
type ProductListModel struct {
	Products []product.Summary
	Cursor   int
	Height   int
	Offset   int
	Selected *ProductSelection
}

// NewProductListModel creates a product list model.
func NewProductListModel(products []product.Summary) ProductListModel {
	return ProductListModel{Products: products, Height: 15}
}

func (m ProductListModel) Init() tea.Cmd {
	return nil
}

func (m ProductListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Products)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "n":
			if len(m.Products) == 0 {
				return m, nil
			}
			m.Selected = &ProductSelection{
				Product: m.Products[m.Cursor].Name,
				Nodes:   msg.String() == "n",
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m ProductListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Product"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ products  n nodes  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Products))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		s := m.Products[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			s.Name,
			strconv.Itoa(s.NodeCount),
			strconv.Itoa(s.InputProducts),
			strconv.Itoa(s.OutputProducts),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Product", "Nodes", "Upstream", "Downstream").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Products))))
	return b.String()
}

type exploreOpts struct {
	analysisFlags
	formats string
	noCache bool
	output  string
}

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var opts exploreOpts

	cmd := &cobra.Command{
		Use:   "explore <manifest.json>",
		Short: "Pick a product interactively and render its drill-down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd, args[0], &opts)
		},
	}

	opts.analysisFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path")

	return cmd
}

func (c *CLI) runExplore(cmd *cobra.Command, path string, opts *exploreOpts) error {
	ctx := cmd.Context()
	cfg, err := c.config()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	a, err := c.analyze(ctx, runner, path, opts.options(cmd, cfg))
	if err != nil {
		return err
	}
	if len(a.Products) == 0 {
		printWarning("no products found")
		return nil
	}

	final, err := tea.NewProgram(NewProductListModel(a.Products), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("product picker: %w", err)
	}
	sel := final.(ProductListModel).Selected
	if sel == nil {
		printInfo("No product selected")
		return nil
	}

	summary, _ := a.Product(sel.Product)
	printSummary(summary)

	view := pipeline.ViewProduct
	if sel.Nodes {
		view = pipeline.ViewNodes
	}
	ro := cfg.RenderOptions(view, sel.Product)
	if formats := parseFormats(opts.formats); len(formats) > 0 {
		ro.Formats = formats
	}
	return c.renderAndWrite(ctx, runner, a, ro, opts.output)
}

// printSummary prints the attributes of one product.
func printSummary(s product.Summary) {
	fmt.Fprintln(out, StyleTitle.Render(s.Name))
	printKeyValue("Category", s.Category)
	printKeyValue("Package", s.Package)
	printKeyValue("Nodes", strconv.Itoa(s.NodeCount))
	printKeyValue("Layers", strconv.Itoa(s.Layers))
	printKeyValue("Internal edges", strconv.Itoa(s.InternalEdges))
	printKeyValue("Input edges", fmt.Sprintf("%d from %d products", s.InputEdges, s.InputProducts))
	printKeyValue("Output edges", fmt.Sprintf("%d to %d products", s.OutputEdges, s.OutputProducts))
}
