// Package io reads and writes boards.
//
// # State Format
//
// A board is exported verbatim as the JSON form of [scene.World]:
//
//	{
//	  "nodes": [
//	    {"id": "g1", "type": "group", "name": "Billing", "x": 0, "y": 0,
//	     "r": 50, "color": "#6ee7b7", "visible": true, "note": null},
//	    {"id": "f1", "type": "feature", "groupId": "g1", "name": "Invoices",
//	     "x": 12, "y": -4, "r": 18, "color": "#6ee7b7", "visible": true,
//	     "note": "due monthly"}
//	  ],
//	  "edges": [
//	    {"id": "e1", "aId": "g1", "bId": "f1", "visible": true, "label": "",
//	     "imageRef": null, "imageSize": 120}
//	  ],
//	  "camera": {"x": 0, "y": 0, "scale": 1},
//	  "meta": {"nextGroupIx": 1},
//	  "settings": {"showNotes": true, "showIndicators": true}
//	}
//
// [WriteState] followed by [ReadState] yields a structurally identical world:
// same ids, positions, flags and order. [ReadState] validates every
// reference before returning, so a world it returns can replace the live one
// directly.
//
// # Source Format
//
// A source is the structured description a board is generated from: one
// group per key, one feature per list item. It may be JSON or YAML:
//
//	orders:
//	  - id
//	  - total
//	customers:
//	  - email
//
// Use [ReadSource] or [ImportSource] to parse it and
// [scene.BuildFromSource] to lay it out. [WriteSource] goes the other way.
//
// # Errors
//
// Decoding failures carry the codes INVALID_STATE, INVALID_SOURCE or
// INVALID_FORMAT from package errors. A rejected import never yields a
// partial result.
package io
