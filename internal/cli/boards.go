package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/featuremap/pkg/config"
	"github.com/matzehuels/featuremap/pkg/scene"
	"github.com/matzehuels/featuremap/pkg/store"
)

// boardsCommand groups the board management subcommands.
func (c *CLI) boardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "boards",
		Aliases: []string{"board"},
		Short:   "List, inspect and delete stored boards",
	}

	cmd.AddCommand(c.boardsListCommand())
	cmd.AddCommand(c.boardsShowCommand())
	cmd.AddCommand(c.boardsDeleteCommand())
	cmd.AddCommand(c.boardsPathCommand())

	return cmd
}

func (c *CLI) boardsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored boards",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, s, err := c.boards(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			infos, err := s.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				printInfo(out, "No boards yet")
				printDetail(out, "Create one with: featuremap edit <board>")
				return nil
			}
			fmt.Fprintln(out, boardTable(infos, time.Now()))
			return nil
		},
	}
}

// boardTable renders board names and update times as a table.
func boardTable(infos []store.BoardInfo, now time.Time) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, formatRelativeTime(info.UpdatedAt, now)})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Board", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			default:
				return lipgloss.NewStyle().Foreground(colorGray)
			}
		}).
		Render()
}

func (c *CLI) boardsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show <board>",
		Short:             "Print the groups and features of a board",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeBoards,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, s, err := c.boards(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			w, err := s.Load(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, StyleTitle.Render(args[0]))
			printTree(out, w)
			stats(out, w, false)
			return nil
		},
	}
}

// printTree prints each group with its features and notes, hidden nodes
// dimmed.
func printTree(out io.Writer, w *scene.World) {
	name := func(n *scene.Node) string {
		s := lipgloss.NewStyle().Foreground(lipgloss.Color(n.Color)).Render("●") + " " + n.Name
		if !n.Visible {
			s = StyleDim.Render(n.Name + " (hidden)")
		}
		if n.HasNote() {
			s += StyleDim.Render("  " + firstLine(n.NoteText()))
		}
		return s
	}
	for _, g := range w.Tree() {
		fmt.Fprintln(out, name(g.Group))
		for i, f := range g.Features {
			branch := "├─"
			if i == len(g.Features)-1 {
				branch = "└─"
			}
			fmt.Fprintln(out, "  "+StyleDim.Render(branch)+" "+name(f))
		}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func (c *CLI) boardsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "delete <board>...",
		Aliases:           []string{"rm"},
		Short:             "Delete boards",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeBoards,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, s, err := c.boards(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			for _, name := range args {
				if err := s.Delete(ctx, name); err != nil {
					return err
				}
				printSuccess(out, "Deleted %s", StyleValue.Render(name))
			}
			return nil
		},
	}
}

func (c *CLI) boardsPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where boards are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			sc := cfg.Store
			switch sc.Backend {
			case config.BackendRedis:
				fmt.Fprintf(out, "redis://%s/%d %sboard:*\n", sc.RedisAddr, sc.RedisDB, sc.RedisPrefix)
			case config.BackendMongo:
				fmt.Fprintf(out, "%s %s.%s\n", sc.MongoURI, sc.MongoDatabase, sc.MongoCollection)
			default:
				dir, err := cfg.BoardDir()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, dir)
			}
			return nil
		},
	}
}

// formatRelativeTime renders t relative to now for recent times and as a
// date otherwise.
func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
