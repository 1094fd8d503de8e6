package mesh

// AxisState is the boundary condition of one node along one coordinate axis.
// The zero value is Free.
type AxisState struct {
	kind  axisKind
	value float64
}

type axisKind uint8

const (
	axisFree axisKind = iota
	axisFixed
	axisImposed
)

// Free leaves the axis unconstrained with no imposed force.
func Free() AxisState { return AxisState{} }

// Fixed pins the axis to the given displacement.
func Fixed(displacement float64) AxisState {
	return AxisState{kind: axisFixed, value: displacement}
}

// Imposed leaves the axis unconstrained and applies the given external force
// component to it.
func Imposed(force float64) AxisState {
	return AxisState{kind: axisImposed, value: force}
}

func (a AxisState) IsFixed() bool { return a.kind == axisFixed }

// Displacement returns the pinned displacement, zero for non-fixed axes.
func (a AxisState) Displacement() float64 {
	if a.kind == axisFixed {
		return a.value
	}
	return 0
}

// Force returns the imposed external force component, zero for free and
// fixed axes.
func (a AxisState) Force() float64 {
	if a.kind == axisImposed {
		return a.value
	}
	return 0
}
