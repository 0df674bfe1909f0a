// Package render turns a world into pictures.
//
// Two renderers read the same [editor.View] or [scene.World] without
// mutating it:
//
//   - [ToDOT] and [RenderSVG] produce a Graphviz document with every node
//     pinned at its world position, for static exports.
//   - [Terminal] rasterizes a view into a grid of character cells, for the
//     interactive terminal editor.
//
// # SVG Export
//
//	dot := render.ToDOT(w, render.Options{Notes: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// The DOT output uses the neato engine with pinned positions (pos="x,y!")
// and inputscale=72, so one world unit is one point. Graphviz's y axis
// points up; world y is negated on the way out. Hidden nodes, hidden edges
// and edges with a hidden endpoint are left out, exactly as on screen.
//
// # Terminal Frames
//
// [Terminal] maps cell (col, row) to the screen pixel at its center using
// the cell size in [TermOptions], so hosts can feed the same pixel
// coordinates to the editor's pointer handlers.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering and [github.com/charmbracelet/lipgloss] for terminal colors.
package render
