package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources.

//go:embed shaders/rect.wgsl
var rectShaderSource string

//go:embed shaders/text.wgsl
var textShaderSource string

// ValidateShaders compiles every embedded shader with naga and reports the
// first failure. NewFrameController runs the same check per shader; hosts
// can call it before opening a device to fail fast.
func ValidateShaders() error {
	for _, s := range []struct{ label, src string }{
		{"rect", rectShaderSource},
		{"text", textShaderSource},
	} {
		if _, err := validateWGSL(s.label, s.src); err != nil {
			return err
		}
	}
	return nil
}

// validateWGSL compiles WGSL to SPIR-V and returns the SPIR-V size.
func validateWGSL(label, source string) (int, error) {
	if source == "" {
		return 0, fmt.Errorf("%s shader source is empty", label)
	}
	spirv, err := naga.Compile(source)
	if err != nil {
		return 0, fmt.Errorf("compile %s shader: %w", label, err)
	}
	return len(spirv), nil
}

// createShaderModule validates source with naga, then creates the HAL
// module from WGSL so every backend can translate it natively.
func createShaderModule(device hal.Device, label, source string) (hal.ShaderModule, error) {
	size, err := validateWGSL(label, source)
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_shader",
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s shader module: %w", label, err)
	}
	slogger().Debug("gpu: shader module created", "label", label, "spirv_bytes", size)
	return module, nil
}
