package gpu

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/wgpu/hal"
)

// Surface is the presentation target a FrameController draws into.
//
// Acquire returns the view for the next frame. It fails with one of the
// rrect surface errors (ErrSurfaceLost, ErrSurfaceOutdated,
// ErrSurfaceTimeout, ErrOutOfMemory), possibly wrapped. Exactly one of
// Present or Discard follows a successful Acquire.
type Surface interface {
	Format() gputypes.TextureFormat
	Configure(width, height uint32) error
	Acquire() (hal.TextureView, error)
	Present() error
	Discard()
}

var (
	errNotAcquired = errors.New("gpu: present without acquired frame")
	errZeroSize    = errors.New("gpu: zero surface size")
)

// copyPitchAlignment is the row alignment required by CopyTextureToBuffer.
const copyPitchAlignment = 256

// OffscreenSurface renders into a texture and reads every presented frame
// back into an image. It stands in for a window surface when rendering
// snapshots and in tests.
type OffscreenSurface struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	width, height uint32
	tex           hal.Texture
	view          hal.TextureView
	acquired      bool

	img *image.NRGBA
}

// NewOffscreenSurface creates an unconfigured offscreen surface. Configure
// must be called before the first Acquire.
func NewOffscreenSurface(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) *OffscreenSurface {
	return &OffscreenSurface{device: device, queue: queue, format: format}
}

// Format returns the texture format frames are rendered in.
func (s *OffscreenSurface) Format() gputypes.TextureFormat { return s.format }

// Size returns the configured dimensions.
func (s *OffscreenSurface) Size() (uint32, uint32) { return s.width, s.height }

// Configure (re)creates the backing texture at the given size.
func (s *OffscreenSurface) Configure(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", errZeroSize, width, height)
	}
	if s.tex != nil && s.width == width && s.height == height {
		return nil
	}
	s.destroyTexture()

	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "offscreen_color",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        s.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen texture: %w", errors.Join(rrect.ErrOutOfMemory, err))
	}
	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "offscreen_color_view",
	})
	if err != nil {
		s.device.DestroyTexture(tex)
		return fmt.Errorf("create offscreen texture view: %w", err)
	}
	s.tex, s.view = tex, view
	s.width, s.height = width, height
	s.img = image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	slogger().Debug("gpu: offscreen surface configured", "width", width, "height", height)
	return nil
}

// Acquire returns the texture view to render the next frame into.
func (s *OffscreenSurface) Acquire() (hal.TextureView, error) {
	if s.view == nil {
		return nil, rrect.ErrSurfaceOutdated
	}
	s.acquired = true
	return s.view, nil
}

// Present copies the rendered texture back to the CPU. The result is
// available from Image until the next Present.
func (s *OffscreenSurface) Present() error {
	if !s.acquired {
		return errNotAcquired
	}
	s.acquired = false
	return s.readback()
}

// Discard drops the acquired frame without reading it back.
func (s *OffscreenSurface) Discard() { s.acquired = false }

// Image returns the most recently presented frame with straight alpha.
func (s *OffscreenSurface) Image() *image.NRGBA { return s.img }

// Destroy releases the backing texture.
func (s *OffscreenSurface) Destroy() {
	s.destroyTexture()
	s.img = nil
}

func (s *OffscreenSurface) destroyTexture() {
	if s.view != nil {
		s.device.DestroyTextureView(s.view)
		s.view = nil
	}
	if s.tex != nil {
		s.device.DestroyTexture(s.tex)
		s.tex = nil
	}
	s.width, s.height = 0, 0
}

func (s *OffscreenSurface) readback() error {
	w, h := s.width, s.height
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "offscreen_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer s.device.DestroyBuffer(stagingBuf)

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "offscreen_readback",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("offscreen_readback"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(s.tex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: s.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	idx, err := s.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := waitSubmission(s.queue, idx, gpuWaitTimeout); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}

	mapping, err := s.device.MapBuffer(stagingBuf, 0, stagingSize)
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	defer func() { _ = s.device.UnmapBuffer(stagingBuf) }()
	raw := unsafe.Slice((*byte)(mapping.Ptr), stagingSize)
	unpackPixels(raw, int(alignedBytesPerRow), s.img, isBGRA(s.format))
	return nil
}

// isBGRA reports whether texels of f are stored blue first.
func isBGRA(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatBGRA8Unorm || f == gputypes.TextureFormatBGRA8UnormSrgb
}

// unpackPixels strips row padding from premultiplied texels and stores
// them in dst with straight alpha.
func unpackPixels(src []byte, srcStride int, dst *image.NRGBA, bgra bool) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		row := src[y*srcStride : y*srcStride+w*4]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			if bgra {
				r, b = b, r
			}
			if a != 0 && a != 255 {
				r = unpremul(r, a)
				g = unpremul(g, a)
				b = unpremul(b, a)
			}
			out[x*4], out[x*4+1], out[x*4+2], out[x*4+3] = r, g, b, a
		}
	}
}

func unpremul(c, a uint8) uint8 {
	v := (uint32(c)*255 + uint32(a)/2) / uint32(a)
	if v > 255 {
		v = 255
	}
	return uint8(v) //nolint:gosec // clamped above
}
