// Package rootsig translates a backend-agnostic binding layout into a
// concrete D3D12-style root signature: root parameters, descriptor
// tables, and static samplers, subject to the hardware's 64 DWORD
// root-argument budget.
package rootsig

import "fmt"

// ParameterKind is the kind of root parameter a RootParameter describes.
type ParameterKind uint8

const (
	// ParameterDescriptorTable costs 1 DWORD regardless of table size:
	// the root argument is just a GPU descriptor handle into a heap.
	ParameterDescriptorTable ParameterKind = iota
	// ParameterConstants costs Num32BitValues DWORDs: the values are
	// inlined directly into the root argument, not indirected through a
	// descriptor.
	ParameterConstants
	// ParameterCBV costs 2 DWORDs: a root descriptor (GPU virtual
	// address) for a constant buffer.
	ParameterCBV
	// ParameterSRV costs 2 DWORDs: a root descriptor for a
	// buffer-backed shader resource.
	ParameterSRV
	// ParameterUAV costs 2 DWORDs: a root descriptor for a
	// buffer-backed unordered access view.
	ParameterUAV
)

// RangeKind is the kind of view a DescriptorRange covers.
type RangeKind uint8

const (
	RangeCBV RangeKind = iota
	RangeSRV
	RangeUAV
	RangeSampler
)

// UnboundedCount marks a DescriptorRange as holding an unbounded
// (bindless) number of descriptors.
const UnboundedCount uint32 = 0xFFFFFFFF

// DescriptorRange is one contiguous run of descriptors within a
// descriptor table.
type DescriptorRange struct {
	Kind                      RangeKind
	NumDescriptors            uint32
	BaseShaderRegister        uint32
	RegisterSpace             uint32
	OffsetInDescriptorsFromTableStart uint32
}

// RootParameter is one entry of a root signature.
type RootParameter struct {
	Kind ParameterKind

	// Ranges is populated for ParameterDescriptorTable.
	Ranges []DescriptorRange

	// Num32BitValues, ShaderRegister, RegisterSpace are populated for
	// ParameterConstants, ParameterCBV, ParameterSRV, ParameterUAV.
	Num32BitValues uint32
	ShaderRegister uint32
	RegisterSpace  uint32

	// Name is an optional debug/lookup name, resolved via
	// RootSignatureBuilder.GetRootParameterIndex.
	Name string
}

// CostDWords returns the root-argument budget this parameter consumes.
func (p RootParameter) CostDWords() uint32 {
	switch p.Kind {
	case ParameterDescriptorTable:
		return 1
	case ParameterConstants:
		return p.Num32BitValues
	case ParameterCBV, ParameterSRV, ParameterUAV:
		return 2
	default:
		return 0
	}
}

// StaticSampler is a sampler baked directly into the root signature. It
// does not consume any of the 64 DWORD budget.
type StaticSampler struct {
	Name           string
	ShaderRegister uint32
	RegisterSpace  uint32
}

func (k ParameterKind) String() string {
	switch k {
	case ParameterDescriptorTable:
		return "DescriptorTable"
	case ParameterConstants:
		return "Constants"
	case ParameterCBV:
		return "CBV"
	case ParameterSRV:
		return "SRV"
	case ParameterUAV:
		return "UAV"
	default:
		return fmt.Sprintf("ParameterKind(%d)", k)
	}
}
