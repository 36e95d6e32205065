package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/render/grid"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

// rulesCommand creates the rules command group.
func (c *CLI) rulesCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect rewrite rules",
	}
	cmd.PersistentFlags().StringVarP(&path, "rules", "r", "", "rule document (default: configured or bundled rules)")

	cmd.AddCommand(c.rulesListCommand(&path))
	cmd.AddCommand(c.rulesShowCommand(&path))
	cmd.AddCommand(c.rulesCheckCommand())

	return cmd
}

// rulesListCommand creates the "rules list" subcommand.
func (c *CLI) rulesListCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := c.loadRules(*path)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, rulesTable(set))
			printDetail("%d rules · hash %s", set.Len(), shortHash(set.Hash()))
			return nil
		},
	}
}

// rulesShowCommand creates the "rules show" subcommand.
func (c *CLI) rulesShowCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Draw a rule's pattern, replacement and mask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := c.loadRules(*path)
			if err != nil {
				return err
			}
			rule, ok := set.Rule(args[0])
			if !ok {
				return qerrors.New(qerrors.ErrCodeNotFound, "unknown rule %q", args[0])
			}
			fmt.Fprint(c.Out, describeRule(rule))
			return nil
		},
	}
}

// rulesCheckCommand creates the "rules check" subcommand.
func (c *CLI) rulesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a rule document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := rules.LoadFile(args[0])
			if err != nil {
				printError("%s is invalid", args[0])
				return err
			}
			printSuccess("%s: %d valid rules", args[0], set.Len())
			return nil
		},
	}
}

// rulesTable renders a rule set as a table.
func rulesTable(set *rules.Set) string {
	rows := make([][]string, 0, set.Len())
	for i, r := range set.Rules() {
		p, rep := r.Pattern(), r.Replacement()
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Name,
			fmt.Sprintf("%dx%d", p.Height(), p.Width()),
			fmt.Sprintf("%dx%d", rep.Height(), rep.Width()),
			fmt.Sprintf("%d → %d", p.GateCount(), rep.GateCount()),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Rule", "Pattern", "Replacement", "Gates").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return StyleDim
			case col == 1:
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// describeRule draws the pattern and replacement grids and the mask.
func describeRule(r *rules.Rule) string {
	var b strings.Builder
	section := func(title, body string) {
		b.WriteString(StyleTitle.Render(title))
		b.WriteString("\n")
		if body == "" {
			body = StyleDim.Render("(empty)") + "\n"
		}
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(StyleValue.Render(r.String()))
	b.WriteString("\n\n")
	section("Pattern", grid.Text(r.Pattern(), grid.Options{}))
	section("Replacement", grid.Text(r.Replacement(), grid.Options{}))
	section("Mask", r.Mask().String())
	return b.String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
