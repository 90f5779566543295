package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/rrect/text"
	"github.com/gogpu/wgpu/hal"
)

// textVertexStride is position (8) + uv (8) + color (16).
const textVertexStride = 32

// initialTextQuads is the quad capacity of the first vertex buffer.
const initialTextQuads = 256

// TextRenderer draws a text.Overlay as alpha-mask quads sampled from an
// R8 glyph atlas. It implements TextOverlay and shares the window uniform
// buffer of the rect pipeline.
//
// Bindings:
//
//	group 0 binding 0: window uniform (vertex stage)
//	group 0 binding 1: atlas texture (fragment stage)
//	group 0 binding 2: sampler (fragment stage)
type TextRenderer struct {
	device  hal.Device
	queue   hal.Queue
	format  gputypes.TextureFormat
	uniform hal.Buffer
	source  *text.Overlay

	shader     hal.ShaderModule
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler

	atlasTex  hal.Texture
	atlasView hal.TextureView
	atlasSize uint32
	bindGroup hal.BindGroup

	vertBuf    hal.Buffer
	idxBuf     hal.Buffer
	capacity   int
	quadCount  int
	vertexData []byte
}

// TextOverlayFactory returns an OverlayFactory that renders source.
func TextOverlayFactory(source *text.Overlay) OverlayFactory {
	return func(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, uniform hal.Buffer) (TextOverlay, error) {
		return NewTextRenderer(device, queue, format, uniform, source)
	}
}

// NewTextRenderer creates the text pipeline and sampler. The atlas
// texture and quad buffers are created by the first Prepare.
func NewTextRenderer(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, uniform hal.Buffer, source *text.Overlay) (*TextRenderer, error) {
	if source == nil || uniform == nil {
		return nil, fmt.Errorf("gpu: text renderer needs an overlay and a uniform buffer")
	}
	r := &TextRenderer{device: device, queue: queue, format: format, uniform: uniform, source: source}
	if err := r.createPipeline(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *TextRenderer) createPipeline() error { //nolint:dupl // GPU pipeline descriptors share structure but differ in labels, shaders, and vertex layouts
	shader, err := createShaderModule(r.device, "text", textShaderSource)
	if err != nil {
		return err
	}
	r.shader = shader

	layout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "text_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create text layout: %w", err)
	}
	r.layout = layout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "text_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.layout},
	})
	if err != nil {
		return fmt.Errorf("create text pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	// Glyph quads map texels one to one, so nearest filtering keeps masks
	// sharp.
	sampler, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "text_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create text sampler: %w", err)
	}
	r.sampler = sampler

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "text_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
			Buffers:    textVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    r.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create text pipeline: %w", err)
	}
	r.pipeline = pipeline
	return nil
}

// Prepare lays out the overlay, uploads the atlas when it changed and
// writes the quad vertices for this frame.
func (r *TextRenderer) Prepare(width, height uint32) error {
	quads, err := r.source.Prepare(width, height)
	if err != nil {
		return fmt.Errorf("layout text: %w", err)
	}
	if err := r.syncAtlas(); err != nil {
		return err
	}
	r.quadCount = len(quads)
	if len(quads) == 0 {
		return nil
	}
	if err := r.ensureCapacity(len(quads)); err != nil {
		return err
	}
	r.vertexData = appendQuadVertices(r.vertexData[:0], quads)
	if err := r.queue.WriteBuffer(r.vertBuf, 0, r.vertexData); err != nil {
		return fmt.Errorf("write text vertices: %w", err)
	}
	return nil
}

// syncAtlas recreates the atlas texture when the atlas grew and uploads
// its texels when they changed.
func (r *TextRenderer) syncAtlas() error {
	atlas := r.source.Atlas()
	size := uint32(atlas.Size()) //nolint:gosec // atlas size is bounded by its maximum
	if r.atlasTex == nil || r.atlasSize != size {
		if err := r.createAtlasTexture(size); err != nil {
			return err
		}
	} else if !atlas.Dirty() {
		return nil
	}
	err := r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: r.atlasTex, MipLevel: 0},
		atlas.Pix(),
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: size, RowsPerImage: size},
		&hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("upload text atlas: %w", err)
	}
	atlas.MarkClean()
	slogger().Debug("gpu: text atlas uploaded", "size", size, "glyphs", atlas.Len())
	return nil
}

func (r *TextRenderer) createAtlasTexture(size uint32) error {
	r.destroyAtlas()
	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "text_atlas",
		Size:          hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create text atlas: %w", err)
	}
	r.atlasTex = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "text_atlas_view",
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.destroyAtlas()
		return fmt.Errorf("create text atlas view: %w", err)
	}
	r.atlasView = view

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "text_bind",
		Layout: r.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.uniform.NativeHandle(), Offset: 0, Size: rrect.WindowUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: r.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		r.destroyAtlas()
		return fmt.Errorf("create text bind group: %w", err)
	}
	r.bindGroup = bindGroup
	r.atlasSize = size
	return nil
}

// ensureCapacity grows the quad buffers to hold at least n quads.
func (r *TextRenderer) ensureCapacity(n int) error {
	if n <= r.capacity {
		return nil
	}
	capacity := max(r.capacity, initialTextQuads)
	for capacity < n {
		capacity *= 2
	}
	r.destroyQuadBuffers()

	vertBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "text_verts",
		Size:  uint64(capacity) * 4 * textVertexStride,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create text vertex buffer: %w", err)
	}
	r.vertBuf = vertBuf

	idxBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "text_indices",
		Size:  uint64(capacity) * 6 * 4,
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		r.destroyQuadBuffers()
		return fmt.Errorf("create text index buffer: %w", err)
	}
	r.idxBuf = idxBuf
	if err := r.queue.WriteBuffer(r.idxBuf, 0, quadIndices(capacity)); err != nil {
		r.destroyQuadBuffers()
		return fmt.Errorf("write text indices: %w", err)
	}
	r.capacity = capacity
	return nil
}

// Render records the text draw. Nothing is recorded without quads.
func (r *TextRenderer) Render(rp hal.RenderPassEncoder) {
	if r.quadCount == 0 || r.bindGroup == nil {
		return
	}
	rp.SetPipeline(r.pipeline)
	rp.SetBindGroup(0, r.bindGroup, nil)
	rp.SetVertexBuffer(0, r.vertBuf, 0)
	rp.SetIndexBuffer(r.idxBuf, gputypes.IndexFormatUint32, 0)
	rp.DrawIndexed(uint32(r.quadCount*6), 1, 0, 0, 0) //nolint:gosec // quad count is bounded by buffer capacity
}

// Trim evicts glyphs not used since the previous frame.
func (r *TextRenderer) Trim() { r.source.Trim() }

// QuadCount returns the number of quads drawn by the next Render.
func (r *TextRenderer) QuadCount() int { return r.quadCount }

// Destroy releases all GPU resources. Safe to call multiple times.
func (r *TextRenderer) Destroy() {
	if r.device == nil {
		return
	}
	r.destroyQuadBuffers()
	r.destroyAtlas()
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.sampler != nil {
		r.device.DestroySampler(r.sampler)
		r.sampler = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.layout != nil {
		r.device.DestroyBindGroupLayout(r.layout)
		r.layout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

func (r *TextRenderer) destroyAtlas() {
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.atlasView != nil {
		r.device.DestroyTextureView(r.atlasView)
		r.atlasView = nil
	}
	if r.atlasTex != nil {
		r.device.DestroyTexture(r.atlasTex)
		r.atlasTex = nil
	}
	r.atlasSize = 0
}

func (r *TextRenderer) destroyQuadBuffers() {
	if r.vertBuf != nil {
		r.device.DestroyBuffer(r.vertBuf)
		r.vertBuf = nil
	}
	if r.idxBuf != nil {
		r.device.DestroyBuffer(r.idxBuf)
		r.idxBuf = nil
	}
	r.capacity = 0
}

// appendQuadVertices appends four vertices per quad in the order
// top-left, top-right, bottom-right, bottom-left.
func appendQuadVertices(dst []byte, quads []text.Quad) []byte {
	for _, q := range quads {
		c := q.Color
		dst = appendTextVertex(dst, q.X0, q.Y0, q.U0, q.V0, c.R, c.G, c.B, c.A)
		dst = appendTextVertex(dst, q.X1, q.Y0, q.U1, q.V0, c.R, c.G, c.B, c.A)
		dst = appendTextVertex(dst, q.X1, q.Y1, q.U1, q.V1, c.R, c.G, c.B, c.A)
		dst = appendTextVertex(dst, q.X0, q.Y1, q.U0, q.V1, c.R, c.G, c.B, c.A)
	}
	return dst
}

func appendTextVertex(dst []byte, vals ...float32) []byte {
	for _, v := range vals {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// quadIndices returns uint32 indices for n quads, two triangles each.
func quadIndices(n int) []byte {
	out := make([]byte, 0, n*6*4)
	for i := 0; i < n; i++ {
		base := uint32(i * 4) //nolint:gosec // n is bounded by buffer capacity
		for _, k := range [6]uint32{0, 1, 2, 0, 2, 3} {
			out = binary.LittleEndian.AppendUint32(out, base+k)
		}
	}
	return out
}

// textVertexLayout returns the vertex buffer layout of the text pipeline.
func textVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: textVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // uv
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2}, // color
			},
		},
	}
}
