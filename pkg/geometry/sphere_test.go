package geometry

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/df07/go-shape-kernel/pkg/core"
	"go.viam.com/test"
)

func TestSphere_Intersect_AxisRay(t *testing.T) {
	sphere, err := NewSphere(core.Identity(), nil, false, 2, -2, 2, 360)
	test.That(t, err, test.ShouldBeNil)

	ray := core.NewRay(core.NewVec3(10, 0, 0), core.NewVec3(-1, 0, 0))
	tHit, si, ok := sphere.Intersect(ray, false)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, float64(tHit), test.ShouldAlmostEqual, 8, 1e-4)
	test.That(t, float64(si.P.X), test.ShouldAlmostEqual, 2, 1e-5)
	test.That(t, float64(si.P.Y), test.ShouldAlmostEqual, 0, 1e-5)
	test.That(t, float64(si.P.Z), test.ShouldAlmostEqual, 0, 1e-5)
	test.That(t, float64(si.N.X), test.ShouldAlmostEqual, 1, 1e-6)
	test.That(t, float64(si.N.Y), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, float64(si.N.Z), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, sphere.IntersectP(ray, false), test.ShouldBeTrue)
}

func TestSphere_Intersect_Cases(t *testing.T) {
	sphere, err := NewFullSphere(core.Identity(), nil, false, 1)
	test.That(t, err, test.ShouldBeNil)

	tests := []struct {
		name    string
		origin  core.Vec3
		dir     core.Vec3
		tMax    float32
		wantHit bool
		wantT   float32
	}{
		{"front hit", core.NewVec3(0, 0, 3), core.NewVec3(0, 0, -1), core.Infinity, true, 2},
		{"hit from inside", core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), core.Infinity, true, 1},
		{"miss beside", core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0), core.Infinity, false, 0},
		{"behind origin", core.NewVec3(0, 0, 3), core.NewVec3(0, 0, 1), core.Infinity, false, 0},
		{"stops short", core.NewVec3(0, 0, 3), core.NewVec3(0, 0, -1), 1.5, false, 0},
		{"unnormalized direction", core.NewVec3(0, 0, 3), core.NewVec3(0, 0, -4), core.Infinity, true, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRayWithMax(tt.origin, tt.dir, tt.tMax)
			tHit, si, ok := sphere.Intersect(ray, false)
			if ok != tt.wantHit {
				t.Fatalf("Expected hit=%v, got %v", tt.wantHit, ok)
			}
			if sphere.IntersectP(ray, false) != ok {
				t.Errorf("IntersectP disagrees with Intersect")
			}
			if !ok {
				return
			}
			if math32.Abs(tHit-tt.wantT) > 1e-4 {
				t.Errorf("Expected t=%g, got %g", tt.wantT, tHit)
			}
			if math32.Abs(si.P.Length()-1) > 1e-5 {
				t.Errorf("Hit point %v not on the unit sphere", si.P)
			}
		})
	}
}

func TestSphere_NormalIsRadial(t *testing.T) {
	center := core.NewVec3(1, -2, 3)
	for _, reverse := range []bool{false, true} {
		sphere, err := NewFullSphere(core.Translate(center), nil, reverse, 1.5)
		test.That(t, err, test.ShouldBeNil)

		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 1000; i++ {
			ray := randomRayToward(rng, sphere.WorldBound())
			_, si, ok := sphere.Intersect(ray, false)
			if !ok {
				continue
			}
			radial := si.P.Subtract(center).Normalize()
			if reverse {
				radial = radial.Negate()
			}
			if si.N.Vec().Subtract(radial).Length() > 1e-4 {
				t.Fatalf("reverse=%v: normal %v, expected %v", reverse, si.N, radial)
			}
			if si.Shading.N != si.N {
				t.Errorf("shading normal %v differs from geometric %v", si.Shading.N, si.N)
			}
		}
	}
}

func TestSphere_PartialNormalIsRadial(t *testing.T) {
	for seed := int64(0); seed < 1000; seed++ {
		rng := rand.New(rand.NewSource(seed))
		radius := logUniform(rng, 4)
		zMin, zMax := -radius, radius
		if rng.Float32() < 0.5 {
			zMin = core.Lerp(rng.Float32(), -radius, radius)
		}
		if rng.Float32() < 0.5 {
			zMax = core.Lerp(rng.Float32(), -radius, radius)
		}
		var phiMax float32 = 360
		if rng.Float32() < 0.5 {
			phiMax = 360 * (1 - rng.Float32())
		}
		sphere, err := NewSphere(core.Identity(), nil, false, radius, zMin, zMax, phiMax)
		if err != nil {
			continue
		}

		target := sphere.WorldBound().Lerp(core.NewVec3(rng.Float32(), rng.Float32(), rng.Float32()))
		origin := logUniformPoint(rng, 8)
		ray := core.NewRay(origin, target.Subtract(origin))
		if rng.Float32() < 0.5 {
			ray.Direction = ray.Direction.Normalize()
		}
		_, si, ok := sphere.Intersect(ray, false)
		if !ok {
			continue
		}

		dot := si.N.Vec().Normalize().Dot(si.P.Normalize())
		if math32.Abs(dot-1) > 1e-5 {
			t.Errorf("seed %d: n·p̂ = %g for normal %v at %v", seed, dot, si.N, si.P)
		}
	}
}

func TestSphere_PartialClipping(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 50; trial++ {
		radius := 0.5 + 2*rng.Float32()
		z0 := core.Lerp(rng.Float32(), -0.9*radius, 0.9*radius)
		z1 := core.Lerp(rng.Float32(), -0.9*radius, 0.9*radius)
		phiMaxDeg := 10 + 350*rng.Float32()
		sphere, err := NewSphere(core.Identity(), nil, false, radius, z0, z1, phiMaxDeg)
		test.That(t, err, test.ShouldBeNil)

		for i := 0; i < 200; i++ {
			ray := randomRayToward(rng, sphere.WorldBound())
			_, si, ok := sphere.Intersect(ray, false)
			if !ok {
				continue
			}
			p := si.P
			if p.Z < sphere.ZMin || p.Z > sphere.ZMax {
				t.Fatalf("hit z=%g outside [%g, %g]", p.Z, sphere.ZMin, sphere.ZMax)
			}
			if phi := azimuth(p.X, p.Y); phi > sphere.PhiMax {
				t.Fatalf("hit phi=%g beyond %g", phi, sphere.PhiMax)
			}
			if si.UV.X < 0 || si.UV.X > 1 || si.UV.Y < -1e-4 || si.UV.Y > 1+1e-4 {
				t.Errorf("uv %v outside unit square", si.UV)
			}
		}
	}
}

func TestSphere_SecondRootAfterClip(t *testing.T) {
	// Upper cap removed: a ray from above enters through the hole and hits
	// the inside of the far wall.
	sphere, err := NewSphere(core.Identity(), nil, false, 1, -1, 0.5, 360)
	test.That(t, err, test.ShouldBeNil)

	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	tHit, si, ok := sphere.Intersect(ray, false)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, float64(tHit), test.ShouldAlmostEqual, 6, 1e-4)
	test.That(t, float64(si.P.Z), test.ShouldAlmostEqual, -1, 1e-5)
}

func TestSphere_AreaAndBounds(t *testing.T) {
	sphere, err := NewSphere(core.Identity(), nil, false, 2, 1, -3, 180)
	test.That(t, err, test.ShouldBeNil)

	// zMin clamped to -r and the pair reordered
	test.That(t, sphere.ZMin, test.ShouldEqual, float32(-2))
	test.That(t, sphere.ZMax, test.ShouldEqual, float32(1))
	test.That(t, float64(sphere.Area()), test.ShouldAlmostEqual, float64(math32.Pi*2*3), 1e-4)

	b := sphere.ObjectBound()
	test.That(t, b.Min, test.ShouldResemble, core.NewVec3(-2, -2, -2))
	test.That(t, b.Max, test.ShouldResemble, core.NewVec3(2, 2, 1))
}

func TestSphere_SampleOnSurface(t *testing.T) {
	sphere, err := NewSphere(core.Translate(core.NewVec3(0, 0, 1)), nil, false, 1, -0.5, 0.75, 270)
	test.That(t, err, test.ShouldBeNil)

	rng := rand.New(rand.NewSource(13))
	for i := 0; i < 1000; i++ {
		it := sphere.Sample(core.NewVec2(rng.Float32(), rng.Float32()))
		local := it.P.Subtract(core.NewVec3(0, 0, 1))
		if math32.Abs(local.Length()-1) > 1e-5 {
			t.Fatalf("sample %v is not on the sphere", it.P)
		}
		if local.Z < -0.5-1e-5 || local.Z > 0.75+1e-5 {
			t.Fatalf("sample z=%g outside clip range", local.Z)
		}
		if it.N.Vec().Subtract(local.Normalize()).Length() > 1e-4 {
			t.Errorf("sample normal %v not radial", it.N)
		}
		if it.PError.X < 0 || it.PError.Y < 0 || it.PError.Z < 0 {
			t.Errorf("negative error bound %v", it.PError)
		}
	}
}
