// Package gpu renders an rrect scene with the wgpu HAL.
//
// RectPipeline holds the rounded-rectangle render pipeline and the static
// vertex, stroke and index buffers built from a scene. TextRenderer draws
// a text.Overlay from an R8 glyph atlas in the same render pass and shares
// the rect pipeline's window uniform buffer.
//
// FrameController ties them to a Surface: every RenderFrame writes the
// window uniform, prepares text, acquires the surface texture, records a
// single render pass (clear, rectangles, text), submits, waits for the
// submission to complete and presents. Lost or outdated surfaces are
// reconfigured to the last stored size and the frame is skipped.
//
// Devices come either from OpenDevice, which opens a standalone Vulkan
// device, or from DeviceFromProvider, which borrows the device of a host
// such as a gogpu application. OffscreenSurface renders into a texture and
// reads each presented frame back, for snapshots and tests.
package gpu
