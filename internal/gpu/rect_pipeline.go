package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rrect"
	"github.com/gogpu/wgpu/hal"
)

// RectPipeline owns the GPU objects that draw the rectangle scene: the
// rect shader, the window uniform and its bind group, and the static
// vertex, stroke and index buffers built once from the scene.
//
// Bindings:
//
//	group 0 binding 0: window uniform (vertex stage)
//	vertex slot 0:     rrect.Vertex (locations 0-6)
//	vertex slot 1:     rrect.StrokeVertex (locations 7-8)
//	index buffer:      uint16
//
// The pipeline has no depth/stencil state. Triangles are counter-clockwise
// front facing and back faces are culled; alpha uses premultiplied "over"
// blending, so rectangles composite in buffer order.
type RectPipeline struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup

	vertBuf    hal.Buffer
	strokeBuf  hal.Buffer
	idxBuf     hal.Buffer
	indexCount uint32
}

// NewRectPipeline compiles the rect shader and creates the render
// pipeline, the window uniform buffer and its bind group. The target
// format must match the surface the pipeline draws into.
func NewRectPipeline(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (*RectPipeline, error) {
	p := &RectPipeline{device: device, queue: queue, format: format}
	if err := p.createPipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createUniform(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

// createPipeline compiles the rect shader and creates the render pipeline.
func (p *RectPipeline) createPipeline() error { //nolint:dupl // GPU pipeline descriptors share structure but differ in labels, shaders, and vertex layouts
	shader, err := createShaderModule(p.device, "rect", rectShaderSource)
	if err != nil {
		return err
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "rect_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "rect_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "rect_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    rectVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

// createUniform creates the window uniform buffer and the bind group that
// exposes it at binding 0.
func (p *RectPipeline) createUniform() error {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "window_uniform",
		Size:  rrect.WindowUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create window uniform: %w", err)
	}
	p.uniformBuf = buf

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "rect_bind",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: rrect.WindowUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	p.bindGroup = bindGroup
	return nil
}

// Upload creates the static vertex, stroke and index buffers from g.
// Buffers from a previous upload are released first, so a rebuilt scene
// only needs a new Upload.
func (p *RectPipeline) Upload(g *rrect.Geometry) error {
	p.destroyGeometry()
	if g == nil || len(g.Indices) == 0 {
		return nil
	}

	var err error
	if p.vertBuf, err = p.createAndUploadBuffer("rect_verts", g.VertexBytes(),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst); err != nil {
		return err
	}
	if p.strokeBuf, err = p.createAndUploadBuffer("rect_strokes", g.StrokeBytes(),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst); err != nil {
		p.destroyGeometry()
		return err
	}
	if p.idxBuf, err = p.createAndUploadBuffer("rect_indices", g.IndexBytes(),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst); err != nil {
		p.destroyGeometry()
		return err
	}
	p.indexCount = g.IndexCount()

	slogger().Debug("gpu: rect buffers uploaded",
		"vertices", len(g.Vertices), "indices", p.indexCount)
	return nil
}

// WriteUniform overwrites the window uniform buffer in place.
func (p *RectPipeline) WriteUniform(u rrect.WindowUniform) error {
	if err := p.queue.WriteBuffer(p.uniformBuf, 0, u.Bytes()); err != nil {
		return fmt.Errorf("write window uniform: %w", err)
	}
	return nil
}

// Record binds the pipeline and issues one indexed draw covering every
// rectangle. It records nothing for an empty scene.
func (p *RectPipeline) Record(rp hal.RenderPassEncoder) {
	if p.indexCount == 0 {
		return
	}
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.SetVertexBuffer(0, p.vertBuf, 0)
	rp.SetVertexBuffer(1, p.strokeBuf, 0)
	rp.SetIndexBuffer(p.idxBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(p.indexCount, 1, 0, 0, 0)
}

// IndexCount returns the number of indices drawn per frame.
func (p *RectPipeline) IndexCount() uint32 { return p.indexCount }

// UniformBuffer returns the window uniform buffer, shared with the text
// overlay.
func (p *RectPipeline) UniformBuffer() hal.Buffer { return p.uniformBuf }

// Format returns the color target format.
func (p *RectPipeline) Format() gputypes.TextureFormat { return p.format }

// Destroy releases all GPU resources held by the pipeline. Safe to call
// multiple times.
func (p *RectPipeline) Destroy() {
	if p.device == nil {
		return
	}
	p.destroyGeometry()
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.uniformBuf != nil {
		p.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

func (p *RectPipeline) destroyGeometry() {
	for _, b := range []*hal.Buffer{&p.vertBuf, &p.strokeBuf, &p.idxBuf} {
		if *b != nil {
			p.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	p.indexCount = 0
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (p *RectPipeline) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := p.queue.WriteBuffer(buf, 0, data); err != nil {
		p.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}

// rectVertexLayout returns the two vertex buffer layouts of the rect
// pipeline: the shading parameters and the stroke stream.
func rectVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: rrect.VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32, Offset: 8, ShaderLocation: 1},    // z_index
				{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 2}, // color
				{Format: gputypes.VertexFormatFloat32, Offset: 28, ShaderLocation: 3},   // border_radius
				{Format: gputypes.VertexFormatFloat32x2, Offset: 32, ShaderLocation: 4}, // rect_position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 40, ShaderLocation: 5}, // rect_size
				{Format: gputypes.VertexFormatFloat32, Offset: 48, ShaderLocation: 6},   // softness
			},
		},
		{
			ArrayStride: rrect.StrokeVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 7}, // stroke_color
				{Format: gputypes.VertexFormatFloat32, Offset: 16, ShaderLocation: 8},  // stroke_width
			},
		},
	}
}
