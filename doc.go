// Package rrect renders a small, fixed scene of rounded, antialiased
// rectangles with optional fill and stroke, plus a text overlay, to a GPU
// window surface once per frame.
//
// # Overview
//
// The package holds the GPU-independent core:
//
//   - Scene: an immutable ordered list of Rect values. Rect.Position is the
//     rectangle CENTER in window pixels.
//   - BuildGeometry: converts a scene into four vertices and six uint16
//     indices per rectangle. Every vertex carries the rectangle's full
//     shading parameters so a single indexed draw renders the whole scene.
//   - WindowUniform: window size and scale factor, rewritten every frame.
//     Shaders map pixel positions into clip space with it, so geometry
//     stays in pixels and survives resizes without being rebuilt.
//   - Driver: turns window events into actions (Continue, RequestRedraw,
//     Reconfigure, Exit).
//   - Framebuffer: a CPU evaluation of the fragment shader, used as the
//     reference for the GPU pipeline and for snapshots.
//
// The GPU pipeline, frame controller and text overlay live in
// internal/gpu; the text engine in package text; configuration in package
// config.
//
// # Quick Start
//
//	scene := rrect.DefaultScene()
//	geom, err := rrect.BuildGeometry(scene)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// 8 vertices, 12 indices
//
// # Colors
//
// Colors are linear-light with straight alpha. Surfaces use an sRGB format
// so blending happens in linear space. ParseHex decodes display (sRGB) hex
// strings into linear values.
//
// # Draw order
//
// No depth buffer is configured. Rectangles composite in scene order;
// Rect.ZIndex is carried to the GPU but does not reorder anything.
//
// # Logging
//
// rrect is silent by default. Use SetLogger to enable structured logging
// through log/slog.
package rrect
