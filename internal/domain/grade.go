package domain

import (
	"fmt"
	"math"
)

// Grade is an immutable score bounded by the assignment's maximum points.
// Replace a Grade rather than modifying it.
type Grade struct {
	points    float64
	maxPoints float64
}

// NewGrade returns a Grade for points out of maxPoints.
// It fails with ErrInvalidGrade unless 0 <= points <= maxPoints and maxPoints > 0.
func NewGrade(points, maxPoints float64) (Grade, error) {
	if !isFinite(points) || !isFinite(maxPoints) {
		return Grade{}, fmt.Errorf("%w: points and max points must be finite numbers", ErrInvalidGrade)
	}
	if maxPoints <= 0 {
		return Grade{}, fmt.Errorf("%w: max points must be positive, got %g", ErrInvalidGrade, maxPoints)
	}
	if points < 0 {
		return Grade{}, fmt.Errorf("%w: points cannot be negative, got %g", ErrInvalidGrade, points)
	}
	if points > maxPoints {
		return Grade{}, fmt.Errorf("%w: %g points exceed maximum of %g", ErrInvalidGrade, points, maxPoints)
	}
	return Grade{points: points, maxPoints: maxPoints}, nil
}

// Points returns the awarded points.
func (g Grade) Points() float64 { return g.points }

// MaxPoints returns the maximum attainable points.
func (g Grade) MaxPoints() float64 { return g.maxPoints }

// Percentage returns points as a percentage of maxPoints.
func (g Grade) Percentage() float64 {
	return g.points / g.maxPoints * 100
}

// Equal reports whether both grades award the same points out of the same maximum.
func (g Grade) Equal(other Grade) bool {
	return g.points == other.points && g.maxPoints == other.maxPoints
}

// String formats the grade as "points/max".
func (g Grade) String() string {
	return fmt.Sprintf("%g/%g", g.points, g.maxPoints)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// AverageGradePercentage returns the mean percentage over the graded
// submissions. ok is false when none of them is graded.
func AverageGradePercentage(submissions []*Submission) (avg float64, ok bool) {
	var total float64
	var n int
	for _, s := range submissions {
		if g, graded := s.Grade(); graded {
			total += g.Percentage()
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}
