package shapes

import "math"

// Shape is anything with an area.
type Shape interface {
	Area() float64
}

type Circle struct {
	R float64
}

func (c Circle) Area() float64 {
	return math.Pi * c.R * c.R
}

type (
	Square struct{ side float64 }
	Meters float64
)

// Largest returns the shape with the greatest area.
func Largest(shapes ...Shape) Shape {
	var best Shape
	for _, s := range shapes {
		if best == nil || s.Area() > best.Area() {
			best = s
		}
	}
	return best
}
