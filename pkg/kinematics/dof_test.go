package kinematics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func vecEquals(a, b r3.Vec) bool {
	return floatEquals(a.X, b.X) && floatEquals(a.Y, b.Y) && floatEquals(a.Z, b.Z)
}

func mustDof(t *testing.T, axis, position r3.Vec, min, max float64) *Dof {
	t.Helper()
	d, err := NewDof(axis, position, min, max)
	if err != nil {
		t.Fatalf("NewDof failed: %v", err)
	}
	return d
}

var zAxis = r3.Vec{Z: 1}

func TestDof_MoveToClamps(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{}, -1, 1)

	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{-100, 0},
		{1.7, 1},
		{0.25, 0.25},
		{1, 1},
	}
	for _, tt := range tests {
		d.MoveTo(tt.in)
		if !floatEquals(d.Position(), tt.want) {
			t.Errorf("MoveTo(%v): position %v, want %v", tt.in, d.Position(), tt.want)
		}
	}
}

func TestDof_AngleInterpolatesRange(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{}, -1, 1)
	d.MoveTo(0.75)
	if !floatEquals(d.Angle(), 0.5) {
		t.Errorf("Angle: got %v, want 0.5", d.Angle())
	}
}

func TestDof_ConstructionMatchesMoveToZero(t *testing.T) {
	d := mustDof(t, r3.Vec{X: 1, Y: 1}, r3.Vec{X: 0.3, Y: -0.2, Z: 1}, 0.2, 1.4)
	initial := d.Transform()

	d.MoveTo(0.6)
	d.MoveTo(0)

	if !d.Transform().ApproxEqual(initial, floatTolerance) {
		t.Errorf("MoveTo(0) transform %v differs from construction %v", d.Transform(), initial)
	}
}

func TestDof_RejectsBadInput(t *testing.T) {
	if _, err := NewDof(r3.Vec{}, r3.Vec{}, 0, 1); !errors.Is(err, ErrDegenerateAxis) {
		t.Errorf("zero axis: got %v, want ErrDegenerateAxis", err)
	}
	if _, err := NewDof(zAxis, r3.Vec{}, 1, 0); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("inverted range: got %v, want ErrInvalidRange", err)
	}
}

func TestDof_RotatesAboutCenter(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{X: 1}, 0, math.Pi/2)
	d.MoveTo(1)

	got := d.Transform().Apply(r3.Vec{X: 2})
	if !vecEquals(got, r3.Vec{X: 1, Y: 1}) {
		t.Errorf("rotated point: got %v, want (1,1,0)", got)
	}
}

func TestDof_PathOffsetsCenter(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{}, 0, 2*math.Pi)
	d.SetPath(PathFunc(func(s float64) r3.Vec { return r3.Vec{X: s} }))

	d.MoveTo(0.5)
	if !vecEquals(d.Center(), r3.Vec{X: 0.5}) {
		t.Errorf("center: got %v, want (0.5,0,0)", d.Center())
	}

	// A half-turn about x=0.5 maps the origin to (1,0,0).
	got := d.Transform().Apply(r3.Vec{})
	if !vecEquals(got, r3.Vec{X: 1}) {
		t.Errorf("rotated origin: got %v, want (1,0,0)", got)
	}
}

func TestDof_PriorityArbitration(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{}, 0, 1)
	const epoch = 1

	if !d.MoveToPriority(0.4, 5, epoch) {
		t.Fatal("priority 5 write over 0 rejected")
	}
	if d.MoveToPriority(0.9, 3, epoch) {
		t.Error("priority 3 write accepted over 5")
	}
	if !floatEquals(d.Position(), 0.4) {
		t.Errorf("position after rejected write: got %v, want 0.4", d.Position())
	}
	if d.MoveToPriority(0.9, 5, epoch) {
		t.Error("equal priority write accepted")
	}
	if !d.MoveToPriority(0.9, 7, epoch) {
		t.Fatal("priority 7 write rejected")
	}
	if !floatEquals(d.Position(), 0.9) {
		t.Errorf("position: got %v, want 0.9", d.Position())
	}
}

func TestDof_PriorityResetsPerEpoch(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{}, 0, 1)

	d.MoveToPriority(0.4, 5, 1)
	if !d.MoveToPriority(0.2, 1, 2) {
		t.Error("new epoch should start at priority 0")
	}
	if d.Priority(2) != 1 {
		t.Errorf("Priority(2): got %d, want 1", d.Priority(2))
	}

	if d.MoveToPriority(0.3, 1, 2) {
		t.Error("equal priority in the same epoch should be rejected")
	}
	if !floatEquals(d.Position(), 0.2) {
		t.Errorf("position: got %v, want 0.2", d.Position())
	}
}

func TestDof_Reconfigure(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{}, -math.Pi, math.Pi)
	d.MoveTo(0.5)

	// Components along the axis are ignored.
	d.Reconfigure(r3.Vec{X: 1, Z: 5}, r3.Vec{Y: 1, Z: -3})
	if !floatEquals(d.Angle(), math.Pi/2) {
		t.Errorf("Angle: got %v, want pi/2", d.Angle())
	}
	if !floatEquals(d.Position(), 0.75) {
		t.Errorf("Position: got %v, want 0.75", d.Position())
	}

	d.Reconfigure(r3.Vec{Y: 1}, r3.Vec{X: 1})
	if !floatEquals(d.Angle(), 0) {
		t.Errorf("Angle after reverse: got %v, want 0", d.Angle())
	}
}

func TestDof_ReconfigureClamps(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{}, 0, math.Pi/4)
	d.Reconfigure(r3.Vec{X: 1}, r3.Vec{Y: 1})
	if !floatEquals(d.Position(), 1) {
		t.Errorf("Position: got %v, want 1", d.Position())
	}

	before := d.Position()
	d.Reconfigure(zAxis, r3.Vec{X: 1})
	if d.Position() != before {
		t.Error("degenerate state vector should leave the dof unchanged")
	}
}

func TestDof_RangeModifierTightens(t *testing.T) {
	src := mustDof(t, zAxis, r3.Vec{}, 0, 1)
	d := mustDof(t, zAxis, r3.Vec{}, -1, 1)

	coupling := NewCoupling(
		CouplingTerm{Source: src, MinCurve: CurveFunc(func(x float64) float64 { return x - 1 })},
		CouplingTerm{Source: src, MinCurve: ConstCurve(-0.8), MaxCurve: ConstCurve(0.5)},
	)
	d.SetRangeModifier(coupling)

	src.MoveTo(0.5)
	if !floatEquals(d.CurrentMin(), -0.5) {
		t.Errorf("CurrentMin: got %v, want -0.5", d.CurrentMin())
	}
	if !floatEquals(d.CurrentMax(), 0.5) {
		t.Errorf("CurrentMax: got %v, want 0.5", d.CurrentMax())
	}

	d.MoveTo(1)
	if !floatEquals(d.Angle(), 0.5) {
		t.Errorf("Angle at 1: got %v, want 0.5", d.Angle())
	}
}

func TestDof_RangeModifierNeverInverts(t *testing.T) {
	d := mustDof(t, zAxis, r3.Vec{}, -1, 1)
	d.SetRangeModifier(NewCoupling(CouplingTerm{
		Source:   d,
		MinCurve: ConstCurve(0.6),
		MaxCurve: ConstCurve(0.2),
	}))
	d.MoveTo(1)
	if !floatEquals(d.Angle(), 0.6) {
		t.Errorf("collapsed range angle: got %v, want 0.6", d.Angle())
	}
}
