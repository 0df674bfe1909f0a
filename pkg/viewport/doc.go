// Package viewport maps between screen and world space and animates the
// camera.
//
// A camera stores the world coordinate of the viewport's top-left corner and a
// zoom factor. Screen point p maps to world point p/scale + camera; [ToScreen]
// is the exact inverse.
//
// Zooming ([ZoomAt], [WheelScale]) keeps the world point under the cursor
// fixed. Panning ([Pan]) is computed from the camera and pointer position
// captured at pan start, so a drag yields the same camera however many move
// events it is split into.
//
// [Animator] holds a single fly-to slot driven by frame ticks. A new request
// replaces the previous flight instead of racing it.
package viewport
