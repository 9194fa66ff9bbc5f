package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/loom/pkg/kernel"
)

func near(t *testing.T, what string, got, want [3]float64, tol float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("%s[%d] = %f, expected ~%f", what, i, got[i], want[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := New()
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box, 0)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() || mesh.TriangleCount() == 0 {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
}

func TestBoxMinCorner(t *testing.T) {
	min, max := New().Box(100, 50, 25).BoundingBox()
	near(t, "min", min, [3]float64{0, 0, 0}, 0.01)
	near(t, "max", max, [3]float64{100, 50, 25}, 0.01)
}

func TestTranslate(t *testing.T) {
	k := New()
	min, max := k.Translate(k.Box(10, 10, 1), 100, 200, 0.5).BoundingBox()
	near(t, "min", min, [3]float64{100, 200, 0.5}, 0.01)
	near(t, "max", max, [3]float64{110, 210, 1.5}, 0.01)
}

func TestUnion(t *testing.T) {
	k := New()
	a := k.Box(50, 10, 2)
	b := k.Translate(k.Box(10, 50, 2), 40, 0, 0)
	c := k.Translate(k.Box(10, 10, 2), 0, 40, 0)

	if k.Union(a) != a {
		t.Error("union of one solid should return it")
	}

	u := k.Union(a, b, c)
	min, max := u.BoundingBox()
	near(t, "min", min, [3]float64{0, 0, 0}, 0.01)
	near(t, "max", max, [3]float64{50, 50, 2}, 0.01)

	mesh, err := k.ToMesh(u, 60)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
	_, mmax := mesh.Bounds()
	if math.Abs(float64(mmax[0])-50) > 2 || math.Abs(float64(mmax[1])-50) > 2 {
		t.Errorf("mesh max = %v, expected ~[50 50 2]", mmax)
	}
}

func TestUnionPanicsWhenEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	New().Union([]kernel.Solid{}...)
}
