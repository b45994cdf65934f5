package core

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"go.viam.com/test"
)

func TestVec3_Permute(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		x, y, z  int
		expected Vec3
	}{
		{"identity", NewVec3(1, 2, 3), 0, 1, 2, NewVec3(1, 2, 3)},
		{"rotate left", NewVec3(1, 2, 3), 1, 2, 0, NewVec3(2, 3, 1)},
		{"rotate right", NewVec3(1, 2, 3), 2, 0, 1, NewVec3(3, 1, 2)},
		{"repeat", NewVec3(1, 2, 3), 2, 2, 2, NewVec3(3, 3, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.vector.Permute(tt.x, tt.y, tt.z)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_MaxDimension(t *testing.T) {
	tests := []struct {
		vector   Vec3
		expected int
	}{
		{NewVec3(3, 1, 2), 0},
		{NewVec3(1, 3, 2), 1},
		{NewVec3(1, 2, 3), 2},
		{NewVec3(1, 1, 1), 2},
		{NewVec3(0, 0, 0), 2},
	}

	for _, tt := range tests {
		if got := tt.vector.MaxDimension(); got != tt.expected {
			t.Errorf("MaxDimension(%v) = %d, expected %d", tt.vector, got, tt.expected)
		}
	}
}

func TestVec3_IndexRoundTrip(t *testing.T) {
	v := NewVec3(4, 5, 6)
	for i := 0; i < 3; i++ {
		w := v.WithIndex(i, -1)
		test.That(t, w.Index(i), test.ShouldEqual, float32(-1))
		test.That(t, v.Index(i), test.ShouldEqual, float32(4+i))
	}
}

func TestVec3_CrossIsOrthogonal(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(-2, 0.5, 4)
	c := a.Cross(b)
	test.That(t, float64(c.Dot(a)), test.ShouldAlmostEqual, 0, 1e-5)
	test.That(t, float64(c.Dot(b)), test.ShouldAlmostEqual, 0, 1e-5)
	test.That(t, NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)), test.ShouldResemble, NewVec3(0, 0, 1))
}

func TestVec3_NormalizeZero(t *testing.T) {
	test.That(t, Vec3{}.Normalize(), test.ShouldResemble, Vec3{})
	test.That(t, float64(NewVec3(3, 4, 0).Normalize().Length()), test.ShouldAlmostEqual, 1, 1e-6)
}

func TestCoordinateSystem_Orthonormal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := UniformSampleSphere(NewVec2(rng.Float32(), rng.Float32()))
		v2, v3 := CoordinateSystem(v)
		if math32.Abs(v2.Length()-1) > 1e-5 || math32.Abs(v3.Length()-1) > 1e-5 {
			t.Fatalf("basis of %v not unit: %v %v", v, v2, v3)
		}
		if math32.Abs(v.Dot(v2)) > 1e-5 || math32.Abs(v.Dot(v3)) > 1e-5 || math32.Abs(v2.Dot(v3)) > 1e-5 {
			t.Fatalf("basis of %v not orthogonal: %v %v", v, v2, v3)
		}
	}
}

func TestFaceforward(t *testing.T) {
	n := NewNormal3(0, 0, 1)
	test.That(t, Faceforward(NewVec3(1, 0, -1), n), test.ShouldResemble, NewVec3(-1, 0, 1))
	test.That(t, Faceforward(NewVec3(1, 0, 1), n), test.ShouldResemble, NewVec3(1, 0, 1))
	test.That(t, n.Faceforward(NewVec3(0, 1, -1)), test.ShouldResemble, NewNormal3(0, 0, -1))
	test.That(t, n.Faceforward(NewVec3(0, 1, 0)), test.ShouldResemble, n)
}
