package rootsig

import (
	"sort"
	"strconv"
)

// Frequency classifies how often a binding's contents change, driving
// whether it is worth promoting to a root descriptor instead of living
// in a descriptor table.
type Frequency uint8

const (
	FrequencyPerFrame Frequency = iota
	FrequencyPerPass
	FrequencyPerMaterial
	FrequencyPerDraw
)

// Binding is one backend-agnostic resource binding within a set.
type Binding struct {
	Name      string
	Kind      RangeKind
	Register  uint32
	Space     uint32
	Frequency Frequency
	// Static marks a sampler binding that should be baked into the root
	// signature as a static sampler instead of occupying a descriptor
	// table slot. Ignored for non-sampler kinds.
	Static bool
}

// BindingSet groups the bindings that are updated together (typically
// one WebGPU-style bind group / D3D12 descriptor-table set).
type BindingSet struct {
	Bindings []Binding
}

// PushConstant is a small, frequently-updated value block inlined
// directly into the root argument list rather than indirected through
// any buffer.
type PushConstant struct {
	Name           string
	Num32BitValues uint32
}

// BindingLayout is the backend-agnostic description of everything a
// pipeline binds, independent of root-signature packing concerns.
type BindingLayout struct {
	PushConstants []PushConstant
	Sets          []BindingSet
}

// pushConstantSpace is the fixed register space D3D12-class backends
// reserve for push constants, chosen high enough to never collide with
// an application's own descriptor spaces.
const pushConstantSpace = 999

// BuildRootSignature converts layout into a RootSignatureBuilder,
// applying (in order):
//  1. push constants are prepended as root Constants at register 0,
//     space 999;
//  2. per-draw CBVs are promoted to root CBV parameters when the
//     running DWORD budget allows, instead of living in a table;
//  3. static sampler bindings pass straight through to
//     RootSignatureBuilder.StaticSamplers, consuming no budget;
//  4. the remaining CBV/SRV/UAV bindings of each set are merged into a
//     single descriptor table per set;
//  5. the remaining (non-static) sampler bindings of each set get their
//     own, separate descriptor table, since D3D12 sampler heaps cannot
//     share a table with CBV/SRV/UAV ranges.
//
// Every added parameter is named after its binding (or, for merged
// tables, "setN-resources"/"setN-samplers"), resolvable afterwards via
// RootSignatureBuilder.GetRootParameterIndex.
func BuildRootSignature(layout BindingLayout) (*RootSignatureBuilder, error) {
	b := NewRootSignatureBuilder()

	for _, pc := range layout.PushConstants {
		b.AddParameter(RootParameter{
			Kind:           ParameterConstants,
			Num32BitValues: pc.Num32BitValues,
			ShaderRegister: 0,
			RegisterSpace:  pushConstantSpace,
			Name:           pc.Name,
		})
	}

	for setIdx, set := range layout.Sets {
		var resources []Binding
		var samplers []Binding

		for _, bind := range set.Bindings {
			if bind.Kind == RangeSampler {
				if bind.Static {
					b.AddStaticSampler(StaticSampler{Name: bind.Name, ShaderRegister: bind.Register, RegisterSpace: bind.Space})
				} else {
					samplers = append(samplers, bind)
				}
				continue
			}
			if bind.Kind == RangeCBV && bind.Frequency == FrequencyPerDraw && b.CostDWords()+2 <= MaxRootDWords {
				b.AddParameter(RootParameter{
					Kind:           ParameterCBV,
					ShaderRegister: bind.Register,
					RegisterSpace:  bind.Space,
					Name:           bind.Name,
				})
				continue
			}
			resources = append(resources, bind)
		}

		if len(resources) > 0 {
			b.AddParameter(RootParameter{
				Kind:   ParameterDescriptorTable,
				Ranges: mergeRanges(resources),
				Name:   tableName(setIdx, "resources"),
			})
		}
		if len(samplers) > 0 {
			b.AddParameter(RootParameter{
				Kind:   ParameterDescriptorTable,
				Ranges: mergeRanges(samplers),
				Name:   tableName(setIdx, "samplers"),
			})
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func tableName(setIdx int, suffix string) string {
	return "set" + strconv.Itoa(setIdx) + "-" + suffix
}

// mergeRanges groups bindings by kind into one DescriptorRange per kind,
// sorted by register so adjacent registers read as one contiguous range.
func mergeRanges(bindings []Binding) []DescriptorRange {
	byKind := make(map[RangeKind][]Binding)
	for _, bnd := range bindings {
		byKind[bnd.Kind] = append(byKind[bnd.Kind], bnd)
	}

	var kinds []RangeKind
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	var ranges []DescriptorRange
	for _, k := range kinds {
		group := byKind[k]
		sort.Slice(group, func(i, j int) bool { return group[i].Register < group[j].Register })
		ranges = append(ranges, DescriptorRange{
			Kind:               k,
			NumDescriptors:     uint32(len(group)),
			BaseShaderRegister: group[0].Register,
			RegisterSpace:      group[0].Space,
		})
	}
	return ranges
}
