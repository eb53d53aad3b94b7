package mesh

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

// MinSphereSegments is the smallest segment count that yields a closed sphere.
const MinSphereSegments = 4

var (
	ringPoolOnce sync.Once
	ringPool     worker.DynamicWorkerPool
)

// ringWorkers returns the pool shared by every Sphere call. Its workers live as long as the process.
func ringWorkers() worker.DynamicWorkerPool {
	ringPoolOnce.Do(func() {
		ringPool = worker.NewDynamicWorkerPool(runtime.NumCPU(), 256, 1*time.Second)
	})
	return ringPool
}

// Sphere tessellates a UV sphere centered on the origin with the poles on the z axis.
// There are segments slices around the equator and segments/2 rings from pole to pole.
// Each vertex is colored with its unit normal. Rings are generated concurrently on a
// shared worker pool; the call returns once every ring is written.
//
// Parameters:
//   - radius: the sphere radius, must be positive
//   - segments: slices around the equator, at least MinSphereSegments
//
// Returns:
//   - Geometry: the tessellated sphere, wound counter-clockwise seen from outside
//   - error: an error for a non-positive radius or too few segments
func Sphere(radius float32, segments int) (Geometry, error) {
	if radius <= 0 || math.IsNaN(float64(radius)) {
		return Geometry{}, fmt.Errorf("sphere radius %v must be positive", radius)
	}
	if segments < MinSphereSegments {
		return Geometry{}, fmt.Errorf("sphere needs at least %d segments, got %d", MinSphereSegments, segments)
	}
	rings := segments / 2
	columns := segments + 1
	vertexCount := (rings + 1) * columns

	g := Geometry{
		Positions: make([]float32, vertexCount*3),
		Colors:    make([]float32, vertexCount*3),
		Indices:   make([]uint32, 0, 2*segments*(rings-1)*3),
	}

	pool := ringWorkers()
	var wg sync.WaitGroup
	for i := 0; i <= rings; i++ {
		wg.Add(1)
		ring := i
		pool.SubmitTask(worker.Task{
			ID: ring,
			Do: func() (any, error) {
				defer wg.Done()
				writeRing(g, ring, rings, segments, radius)
				return nil, nil
			},
		})
	}
	wg.Wait()

	vertex := func(ring, column int) uint32 {
		return uint32(ring*columns + column)
	}
	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			a, b, c, d := vertex(i, j), vertex(i+1, j), vertex(i+1, j+1), vertex(i, j+1)
			// The first and last rings meet at a pole, where one triangle of each quad collapses.
			if i != rings-1 {
				g.Indices = append(g.Indices, a, b, c)
			}
			if i != 0 {
				g.Indices = append(g.Indices, a, c, d)
			}
		}
	}
	return g, nil
}

// writeRing fills the positions and colors of one ring. Rings touch disjoint ranges of the slices.
func writeRing(g Geometry, ring, rings, segments int, radius float32) {
	theta := float32(math.Pi) * float32(ring) / float32(rings)
	base := ring * (segments + 1) * 3
	for j := 0; j <= segments; j++ {
		phi := 2 * float32(math.Pi) * float32(j) / float32(segments)
		normal := mgl32.SphericalToCartesian(1, theta, phi)
		p := normal.Mul(radius)
		o := base + j*3
		copy(g.Positions[o:o+3], p[:])
		copy(g.Colors[o:o+3], normal[:])
	}
}
