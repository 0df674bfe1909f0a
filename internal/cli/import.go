package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/featuremap/pkg/editor"
	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	fmio "github.com/matzehuels/featuremap/pkg/io"
	"github.com/matzehuels/featuremap/pkg/scene"
)

// importOpts holds the command-line flags for the import command.
type importOpts struct {
	state  bool   // file is a full state export, not a source document
	format string // source format override: json or yaml
}

// importCommand replaces a board's content from a file.
func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import <board> <file>",
		Short: "Replace a board from a source document or a state export",
		Long: `Replace a board from a file. By default the file is a source document, a
mapping from group name to a list of feature names in JSON or YAML:

  orders: [id, total, created_at]
  customers: [id, email]

Importing a source builds a fresh layout with new ids; the board's settings
are kept. With --state the file is a complete board as written by
"featuremap export -f json" and is imported verbatim. A file of "-" reads
standard input. The board is created if it does not exist.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.state, "state", false, "file is a state export")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "source format: json or yaml (default from extension)")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, cmd *cobra.Command, board, path string, opts importOpts) error {
	if err := ferrors.ValidateBoardName(board); err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		defer f.Close()
		r = f
	}

	format := fmio.FormatFromPath(path)
	if opts.format != "" {
		f, err := fmio.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		format = f
	}

	cfg, s, err := c.boards(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.Load(ctx, board)
	if err != nil && !ferrors.IsNotFound(err) {
		return err
	}
	eopts := editor.OptionsFromConfig(cfg)
	eopts.Logger = c.Logger
	ed := editor.New(w, eopts)

	prog := newProgress(c.Logger)
	if opts.state {
		err = ed.ImportState(r)
	} else {
		err = ed.ImportSource(r, format)
	}
	if err != nil {
		return err
	}
	if err := s.Save(ctx, board, ed.World()); err != nil {
		return err
	}
	prog.done("imported " + board)

	out := cmd.OutOrStdout()
	printSuccess(out, "Imported %s", StyleValue.Render(board))
	stats(out, ed.World(), false)
	return nil
}

// stats prints the group, feature and edge counts of w.
func stats(out io.Writer, w *scene.World, cached bool) {
	groups := len(w.Groups())
	printStats(out, groups, w.NodeCount()-groups, w.EdgeCount(), cached)
}
