package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/featuremap/pkg/cache"
	ferrors "github.com/matzehuels/featuremap/pkg/errors"
	fmio "github.com/matzehuels/featuremap/pkg/io"
	"github.com/matzehuels/featuremap/pkg/render"
	"github.com/matzehuels/featuremap/pkg/scene"
)

// Export formats.
const (
	exportState  = "json"
	exportSource = "source"
	exportYAML   = "yaml"
	exportDOT    = "dot"
	exportSVG    = "svg"
)

var exportFormats = []string{exportState, exportSource, exportYAML, exportDOT, exportSVG}

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	format  string
	output  string // output file; stdout when empty
	notes   bool   // show notes as tooltips in DOT and SVG
	noCache bool
}

// exportCommand writes a board in one of the export formats.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{format: exportState}

	cmd := &cobra.Command{
		Use:   "export <board>",
		Short: "Export a board as state JSON, a source document, DOT or SVG",
		Long: `Export a board.

Formats:
  json    the complete board, importable with "featuremap import --state"
  source  the group/feature mapping as JSON
  yaml    the group/feature mapping as YAML
  dot     Graphviz DOT with pinned positions
  svg     rendered through Graphviz; results are cached by board content`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeBoards,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(exportFormats, ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.notes, "notes", false, "include notes as tooltips (dot, svg)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "render SVG without the artifact cache")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(exportFormats, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runExport(ctx context.Context, cmd *cobra.Command, board string, opts exportOpts) error {
	cfg, s, err := c.boards(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.Load(ctx, board)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	cached := false
	switch opts.format {
	case exportState:
		err = fmio.WriteState(w, &buf)
	case exportSource:
		err = fmio.WriteSource(w, &buf, fmio.FormatJSON)
	case exportYAML:
		err = fmio.WriteSource(w, &buf, fmio.FormatYAML)
	case exportDOT:
		buf.WriteString(render.ToDOT(w, render.Options{Notes: opts.notes}))
	case exportSVG:
		ch := c.newCache(ctx, cfg, opts.noCache)
		defer ch.Close()
		var data []byte
		data, cached, err = c.renderSVG(ctx, ch, cfg.Store.CacheTTL(), w, opts.notes, cmd.ErrOrStderr())
		buf.Write(data)
	default:
		return ferrors.New(ferrors.ErrCodeInvalidFormat, "unknown export format %q (want %s)", opts.format, strings.Join(exportFormats, ", "))
	}
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	out := cmd.ErrOrStderr()
	printSuccess(out, "Exported %s", StyleValue.Render(board))
	printFile(out, opts.output)
	stats(out, w, cached)
	return nil
}

// renderSVG renders w through Graphviz, consulting ch first. The cache key
// covers the board state and the notes option. A non-nil spin shows a
// spinner while Graphviz runs.
func (c *CLI) renderSVG(ctx context.Context, ch cache.Cache, ttl time.Duration, w *scene.World, notes bool, spin io.Writer) ([]byte, bool, error) {
	var state bytes.Buffer
	if err := fmio.WriteState(w, &state); err != nil {
		return nil, false, err
	}
	kind := exportSVG
	if notes {
		kind += "+notes"
	}
	key := cache.ArtifactKey(kind, state.Bytes())

	if data, ok, err := ch.Get(ctx, key); err != nil {
		c.Logger.Warn("cache read failed", "key", key, "err", err)
	} else if ok {
		c.Logger.Debug("svg from cache", "key", key)
		return data, true, nil
	}

	prog := newProgress(c.Logger)
	if spin != nil {
		defer startSpinner(ctx, spin, "Rendering SVG...").stop()
	}
	data, err := render.RenderSVG(ctx, render.ToDOT(w, render.Options{Notes: notes}))
	if err != nil {
		return nil, false, err
	}
	prog.done("rendered svg")

	if err := ch.Set(ctx, key, data, ttl); err != nil {
		c.Logger.Warn("cache write failed", "key", key, "err", err)
	}
	return data, false, nil
}
