package corpus

import "math"

// Term is a single nonzero entry of a sparse vector.
type Term struct {
	ID     int
	Weight float64
}

// Vector is a sparse term-weight vector ordered by ascending term id.
type Vector []Term

// Dot returns the inner product of two id-ordered vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v) && j < len(o) {
		switch {
		case v[i].ID == o[j].ID:
			sum += v[i].Weight * o[j].Weight
			i++
			j++
		case v[i].ID < o[j].ID:
			i++
		default:
			j++
		}
	}
	return sum
}

func (v Vector) Norm() float64 {
	var sum float64
	for _, t := range v {
		sum += t.Weight * t.Weight
	}
	return math.Sqrt(sum)
}

// Normalize scales v in place to unit length. A zero vector stays zero.
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	for i := range v {
		v[i].Weight /= n
	}
	return v
}

func (v Vector) IsZero() bool {
	for _, t := range v {
		if t.Weight != 0 {
			return false
		}
	}
	return true
}
