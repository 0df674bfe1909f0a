// Package editor is the interactive core of featuremap: one [Editor] owns the
// live [scene.World] together with its undo history, the fly-to animator and
// the layout parameters, and turns raw pointer and keyboard input into world
// mutations.
//
// # Input
//
// Hosts forward input as it arrives:
//
//	ed.PointerDown(p, editor.ButtonPrimary, editor.Mods{})
//	ed.PointerMove(p)
//	ed.PointerUp(p, editor.ButtonPrimary, editor.Mods{})
//	ed.Wheel(p, dy)
//	ed.Escape()
//
// Exactly one [Mode] is active at a time. A primary press on a node starts a
// drag (or a resize with Shift); with the multi-select modifier it toggles
// the node in the selection and drags the whole selection. A press on empty
// space pans. A secondary press on a node starts an edge, completed by
// releasing over another node. A primary press and release less than
// [ClickThreshold] pixels apart is also a click: it selects the node (or
// deselects it if it was already selected before the press), flips the
// visibility of its edges and flies the camera to it.
//
// # Frames
//
// Hosts call [Editor.Tick] once per frame. A tick advances the fly-to
// animation and runs one layout step scaled by the time since the previous
// tick. Nodes being dragged or resized are pinned for the step. [Editor.View]
// returns everything a renderer needs for the frame.
//
// # History
//
// Every mutating action records a snapshot first; [Editor.Undo] and
// [Editor.Redo] swap whole worlds. Display toggles (notes, indicators) are
// not recorded.
//
// An Editor is not safe for concurrent use. Input, ticks and rendering must
// come from one goroutine, as they do in the terminal host.
package editor
