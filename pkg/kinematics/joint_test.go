package kinematics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestJoint_ComposesLastDofOutermost(t *testing.T) {
	j := NewJoint("shoulder", ShapeThree)
	a, err := j.NewDof(r3.Vec{X: 1}, r3.Vec{Y: 0.1}, -math.Pi, math.Pi)
	if err != nil {
		t.Fatalf("NewDof A: %v", err)
	}
	b, _ := j.NewDof(r3.Vec{Y: 1}, r3.Vec{X: 0.2}, -math.Pi, math.Pi)
	c, _ := j.NewDof(r3.Vec{Z: 1}, r3.Vec{Z: -0.3}, -math.Pi, math.Pi)

	a.MoveTo(0.6)
	b.MoveTo(0.3)
	c.MoveTo(0.85)

	want := c.Transform().Mul(b.Transform()).Mul(a.Transform())
	if !j.Transform().ApproxEqual(want, floatTolerance) {
		t.Errorf("LIM mismatch:\n got %v\nwant %v", j.Transform(), want)
	}

	// Composition order matters for non-commuting rotations.
	reversed := a.Transform().Mul(b.Transform()).Mul(c.Transform())
	if j.Transform().ApproxEqual(reversed, 1e-6) {
		t.Error("LIM should not equal A·B·C")
	}
}

func TestJoint_RecomposesAfterDofMove(t *testing.T) {
	j := NewJoint("elbow", ShapeOne)
	d, _ := j.NewDof(zAxis, r3.Vec{}, 0, math.Pi/2)

	before := j.Transform()
	d.MoveTo(1)
	after := j.Transform()

	if before.ApproxEqual(after, floatTolerance) {
		t.Fatal("joint transform is stale after MoveTo")
	}
	if !after.ApproxEqual(d.Transform(), floatTolerance) {
		t.Errorf("single-dof LIM should equal the dof transform")
	}
}

func TestJoint_ShapeCapacity(t *testing.T) {
	j := NewJoint("wrist", ShapeTwo)
	d, _ := j.NewDof(zAxis, r3.Vec{}, 0, 1)
	d.MoveTo(1)

	if j.Complete() {
		t.Error("two-dof joint with one dof reported complete")
	}
	if !j.Transform().ApproxEqual(Identity(), floatTolerance) {
		t.Error("incomplete joint should report identity")
	}

	if _, err := j.NewDof(r3.Vec{X: 1}, r3.Vec{}, 0, 1); err != nil {
		t.Fatalf("second dof: %v", err)
	}
	if !j.Complete() {
		t.Error("joint should be complete with two dofs")
	}
	if _, err := j.NewDof(r3.Vec{Y: 1}, r3.Vec{}, 0, 1); !errors.Is(err, ErrJointFull) {
		t.Errorf("third dof: got %v, want ErrJointFull", err)
	}
}

func TestJoint_AttachDofReferencesOnly(t *testing.T) {
	ext := mustDof(t, zAxis, r3.Vec{}, 0, 1)

	j := NewJoint("hip", ShapeFree)
	if err := j.AttachDof(ext); err != nil {
		t.Fatalf("AttachDof: %v", err)
	}
	if j.Owns(0) {
		t.Error("attached dof should not be owned")
	}

	other := NewJoint("knee", ShapeFree)
	if err := other.AttachDof(ext); !errors.Is(err, ErrDofAttached) {
		t.Errorf("second attach: got %v, want ErrDofAttached", err)
	}

	owned, _ := j.NewDof(r3.Vec{X: 1}, r3.Vec{}, 0, 1)
	if !j.Owns(1) || j.Dof(1) != owned {
		t.Error("created dof should be owned at ordinal 1")
	}
}

func TestJoint_Lookup(t *testing.T) {
	j := NewJoint("neck", ShapeFree)
	d, _ := j.NewDof(zAxis, r3.Vec{}, 0, 1)
	d.SetName("yaw")

	if !j.HasDof(0) || j.HasDof(1) || j.HasDof(-1) {
		t.Error("HasDof reports wrong ordinals")
	}
	if i, ok := j.DofByName("yaw"); !ok || i != 0 {
		t.Errorf("DofByName(yaw): got %d, %v", i, ok)
	}
	if _, ok := j.DofByName("roll"); ok {
		t.Error("DofByName(roll) should miss")
	}

	defer func() {
		if recover() == nil {
			t.Error("Dof(5) should panic")
		}
	}()
	j.Dof(5)
}

func TestJoint_SetAtRest(t *testing.T) {
	j := NewJoint("spine", ShapeFree)
	a, _ := j.NewDof(zAxis, r3.Vec{}, 0, 1)
	b, _ := j.NewDof(r3.Vec{X: 1}, r3.Vec{}, 0, 1)
	a.SetRest(0.5)
	b.SetRest(2) // clamped

	j.SetAtRest()
	if !floatEquals(a.Position(), 0.5) || !floatEquals(b.Position(), 1) {
		t.Errorf("rest positions: got %v", j.Positions())
	}
}

func TestParseShape(t *testing.T) {
	for _, s := range []Shape{ShapeFree, ShapeOne, ShapeTwo, ShapeThree} {
		got, err := ParseShape(s.String())
		if err != nil || got != s {
			t.Errorf("ParseShape(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseShape("four"); !errors.Is(err, ErrUnknownShape) {
		t.Errorf("ParseShape(four): got %v, want ErrUnknownShape", err)
	}
}
