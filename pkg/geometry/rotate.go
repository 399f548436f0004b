package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RotationMatrix returns the 2x2 counter-clockwise rotation matrix for an
// angle in degrees. Image coordinates have Y pointing down, so a positive
// angle appears clockwise on screen.
func RotationMatrix(degrees float64) *mat.Dense {
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return mat.NewDense(2, 2, []float64{
		cos, -sin,
		sin, cos,
	})
}

// Rotate rotates a single point about origin by degrees.
func Rotate(p, origin Point2D, degrees float64) Point2D {
	return RotateAll([]Point2D{p}, origin, degrees)[0]
}

// RotateAll rotates every point about origin by degrees. The points are packed
// into a 2xN matrix so the whole set is rotated with one product.
func RotateAll(points []Point2D, origin Point2D, degrees float64) []Point2D {
	n := len(points)
	if n == 0 {
		return nil
	}

	// Columns are points relative to origin
	data := make([]float64, 2*n)
	for i, p := range points {
		rel := p.Sub(origin)
		data[i] = rel.X
		data[n+i] = rel.Y
	}
	src := mat.NewDense(2, n, data)

	var dst mat.Dense
	dst.Mul(RotationMatrix(degrees), src)

	out := make([]Point2D, n)
	for i := range out {
		out[i] = NewPoint2D(dst.At(0, i), dst.At(1, i)).Add(origin)
	}
	return out
}
