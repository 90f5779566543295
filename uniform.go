package rrect

// WindowUniformSize is the byte size of the window uniform buffer.
// Layout: size (vec2<f32>) + scale_factor (f32) + padding (f32) = 16 bytes.
const WindowUniformSize = 16

// WindowUniform is the per-frame snapshot of the window the shaders use to
// map pixel positions into clip space:
//
//	clip.x = 2*x/size.x - 1
//	clip.y = 1 - 2*y/size.y
type WindowUniform struct {
	Size        Vec2
	ScaleFactor float32
}

// NewWindowUniform creates a uniform from the live window state.
func NewWindowUniform(width, height uint32, scale float64) WindowUniform {
	return WindowUniform{
		Size:        V2(float32(width), float32(height)),
		ScaleFactor: float32(scale),
	}
}

// Bytes encodes the uniform. The padding word is always zero.
func (u WindowUniform) Bytes() []byte {
	buf := make([]byte, WindowUniformSize)
	putF32(buf[0:], u.Size.X)
	putF32(buf[4:], u.Size.Y)
	putF32(buf[8:], u.ScaleFactor)
	// Padding bytes 12..15 remain zero.
	return buf
}

// ToClip maps a pixel-space position into clip space, the same way the
// vertex shader does.
func (u WindowUniform) ToClip(p Vec2) Vec2 {
	return Vec2{
		X: 2*p.X/u.Size.X - 1,
		Y: 1 - 2*p.Y/u.Size.Y,
	}
}
