package cli

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/featuremap/pkg/editor"
	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	fmio "github.com/matzehuels/featuremap/pkg/io"
	"github.com/matzehuels/featuremap/pkg/render"
	"github.com/matzehuels/featuremap/pkg/scene"
	"github.com/matzehuels/featuremap/pkg/store"
)

// editOpts holds the command-line flags for the edit command.
type editOpts struct {
	from  string // source file used when the board does not exist yet
	plain bool   // disable colors
}

// editCommand opens a board in the terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	var opts editOpts

	cmd := &cobra.Command{
		Use:   "edit <board>",
		Short: "Open a board in the interactive terminal editor",
		Long: `Open a board in the interactive terminal editor. A board that does not
exist yet starts from --from, or from a single "Getting Started" group.

Mouse: click selects and toggles a node's edges, drag moves, shift+drag
resizes, ctrl/alt+click builds a multi-selection, right-drag between two
nodes links them, double-click on an edge edits its label, the wheel zooms
and dragging empty space pans.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeBoards,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "source file (JSON or YAML) for a new board")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "draw without colors")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, out io.Writer, board string, opts editOpts) error {
	if err := ferrors.ValidateBoardName(board); err != nil {
		return err
	}
	cfg, s, err := c.boards(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := c.loadOrCreate(ctx, s, board, opts.from)
	if err != nil {
		return err
	}

	eopts := editor.OptionsFromConfig(cfg)
	eopts.Logger = c.Logger
	ed := editor.New(w, eopts)

	term := render.TermOptions{
		CellWidth:  cfg.View.CellWidth,
		CellHeight: cfg.View.CellHeight,
		Color:      !opts.plain,
	}
	model := newEditModel(ctx, ed, s, board, term)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	if model.dirty() {
		printWarning(out, "left %s with unsaved changes", board)
	}
	return nil
}

// loadOrCreate loads board, or builds a new world when it does not exist.
// A new board is not saved until the user saves it.
func (c *CLI) loadOrCreate(ctx context.Context, s store.Store, board, from string) (*scene.World, error) {
	w, err := s.Load(ctx, board)
	if err == nil {
		c.Logger.Debug("board loaded", "board", board, "nodes", w.NodeCount(), "edges", w.EdgeCount())
		return w, nil
	}
	if !ferrors.IsNotFound(err) {
		return nil, err
	}

	src := scene.DefaultSource()
	if from != "" {
		if src, err = fmio.ImportSource(from); err != nil {
			return nil, err
		}
	}
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	c.Logger.Info("new board", "board", board, "groups", len(src.Groups))
	return scene.BuildFromSource(src, rng, scene.DefaultSettings()), nil
}
