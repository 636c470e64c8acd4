package l4perception

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func benchCloud() []r3.Vec {
	rng := rand.New(rand.NewSource(1))
	centres := make([]r3.Vec, 20)
	for i := range centres {
		centres[i] = r3.Vec{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	}
	return blobs(rng, centres, 100, 3, randomCloud(rng, 500, 100))
}

func BenchmarkBuildKDIndex(b *testing.B) {
	pts := benchCloud()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildKDIndex(pts)
	}
}

func BenchmarkDBSCAN_KDTree(b *testing.B) {
	pts := benchCloud()
	p := Params{Epsilon: 1, MinPts: 5, Index: IndexKDTree}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DBSCAN(pts, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDBSCAN_Grid(b *testing.B) {
	pts := benchCloud()
	p := Params{Epsilon: 1, MinPts: 5, Index: IndexGrid}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DBSCAN(pts, p); err != nil {
			b.Fatal(err)
		}
	}
}
