package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/featuremap/pkg/scene"
)

// Options configures DOT generation.
type Options struct {
	// Notes adds node notes as tooltips and marks noted nodes with a second
	// outline.
	Notes bool
}

// pointsPerInch converts radii to Graphviz node sizes, which are in inches.
const pointsPerInch = 72.0

// ToDOT converts a world to an undirected Graphviz graph with every visible
// node pinned at its position.
func ToDOT(w *scene.World, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"#0f1225\";\n")
	buf.WriteString("  node [fixedsize=true, fontname=\"Helvetica\", fontsize=11, fontcolor=\"#e6e9ff\", penwidth=2];\n")
	buf.WriteString("  edge [color=\"#ccccff88\", fontname=\"Helvetica\", fontsize=10, fontcolor=\"#e6e9ff\"];\n")
	buf.WriteString("\n")

	visible := make(map[string]bool, len(w.Nodes))
	for _, n := range w.Nodes {
		if !n.Visible {
			continue
		}
		visible[n.ID] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range w.Edges {
		if !e.Visible || !visible[e.AID] || !visible[e.BID] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q", e.AID, e.BID)
		if e.Label != "" {
			fmt.Fprintf(&buf, " [label=%q]", e.Label)
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *scene.Node, opts Options) []string {
	size := fmtFloat(2 * n.R / pointsPerInch)
	attrs := []string{
		fmt.Sprintf("label=%q", n.Name),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(n.X), fmtFloat(-n.Y)),
		"width=" + size,
		"height=" + size,
		fmt.Sprintf("color=%q", n.Color),
	}
	switch n.Kind {
	case scene.KindGroup:
		attrs = append(attrs, "shape=box", "style=\"rounded,filled\"", fmt.Sprintf("fillcolor=%q", n.Color+"55"))
	case scene.KindFeature:
		attrs = append(attrs, "shape=circle", "style=filled", fmt.Sprintf("fillcolor=%q", n.Color+"bb"))
	}
	if opts.Notes && n.HasNote() {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.NoteText()), "peripheries=2")
	}
	return attrs
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz <svg> tag with one that scales to
// its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
