package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/featuremap/pkg/errors"
	"github.com/matzehuels/featuremap/pkg/scene"
)

// The wire structs differ from the scene types only where absent fields need
// defaults: a missing "visible" means visible, missing settings mean the
// defaults, and boards saved before edges carried an "imageRef" used
// "imageDataUrl".
type stateDoc struct {
	Nodes    []nodeDoc       `json:"nodes"`
	Edges    []edgeDoc       `json:"edges"`
	Camera   *scene.Camera   `json:"camera"`
	Meta     scene.Meta      `json:"meta"`
	Settings *scene.Settings `json:"settings"`
}

type nodeDoc struct {
	ID      string     `json:"id"`
	Kind    scene.Kind `json:"type"`
	Name    string     `json:"name"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	R       float64    `json:"r"`
	Color   string     `json:"color"`
	Visible *bool      `json:"visible"`
	Note    *string    `json:"note"`
	GroupID string     `json:"groupId"`
}

type edgeDoc struct {
	ID           string   `json:"id"`
	AID          string   `json:"aId"`
	BID          string   `json:"bId"`
	Visible      *bool    `json:"visible"`
	Label        string   `json:"label"`
	ImageRef     *string  `json:"imageRef"`
	ImageDataURL *string  `json:"imageDataUrl"`
	ImageSize    *float64 `json:"imageSize"`
}

// WriteState encodes w as indented JSON. The output can be read back with
// [ReadState] into a structurally identical world.
func WriteState(w *scene.World, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportState writes w to a JSON file at path.
func ExportState(w *scene.World, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteState(w, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadState decodes a world from r and validates it. Every failure, whether
// malformed JSON or a broken reference, is returned as an INVALID_STATE
// error; no partially decoded world is ever returned.
//
// ReadState does not close r.
func ReadState(r io.Reader) (*scene.World, error) {
	var doc stateDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidState, err, "decode state")
	}

	w := &scene.World{
		Nodes:    make([]*scene.Node, 0, len(doc.Nodes)),
		Edges:    make([]*scene.Edge, 0, len(doc.Edges)),
		Camera:   scene.Camera{Scale: 1},
		Meta:     doc.Meta,
		Settings: scene.DefaultSettings(),
	}
	if doc.Camera != nil {
		w.Camera = *doc.Camera
	}
	if doc.Settings != nil {
		w.Settings = *doc.Settings
	}

	for _, n := range doc.Nodes {
		node := &scene.Node{
			ID:      n.ID,
			Kind:    n.Kind,
			Name:    n.Name,
			X:       n.X,
			Y:       n.Y,
			R:       n.R,
			Color:   n.Color,
			Visible: n.Visible == nil || *n.Visible,
			Note:    n.Note,
		}
		if node.IsFeature() {
			node.GroupID = n.GroupID
		}
		w.Nodes = append(w.Nodes, node)
	}

	for _, e := range doc.Edges {
		edge := &scene.Edge{
			ID:        e.ID,
			AID:       e.AID,
			BID:       e.BID,
			Visible:   e.Visible == nil || *e.Visible,
			Label:     e.Label,
			ImageRef:  e.ImageRef,
			ImageSize: scene.DefaultImageSize,
		}
		if edge.ImageRef == nil {
			edge.ImageRef = e.ImageDataURL
		}
		if e.ImageSize != nil {
			edge.ImageSize = *e.ImageSize
		}
		w.Edges = append(w.Edges, edge)
	}

	if err := w.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidState, err, "invalid state")
	}
	return w, nil
}

// ImportState reads and validates a JSON state file at path.
func ImportState(path string) (*scene.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()
	return ReadState(f)
}

func openError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	return fmt.Errorf("open %s: %w", path, err)
}
