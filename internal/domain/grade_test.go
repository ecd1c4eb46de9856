package domain

import (
	"errors"
	"math"
	"testing"
)

func TestNewGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		points    float64
		maxPoints float64
		wantErr   bool
	}{
		{name: "zero points", points: 0, maxPoints: 100},
		{name: "full marks", points: 100, maxPoints: 100},
		{name: "fractional", points: 7.5, maxPoints: 10},
		{name: "negative points", points: -1, maxPoints: 100, wantErr: true},
		{name: "points above max", points: 100.5, maxPoints: 100, wantErr: true},
		{name: "zero max", points: 0, maxPoints: 0, wantErr: true},
		{name: "negative max", points: 0, maxPoints: -5, wantErr: true},
		{name: "NaN points", points: math.NaN(), maxPoints: 10, wantErr: true},
		{name: "infinite max", points: 1, maxPoints: math.Inf(1), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g, err := NewGrade(tc.points, tc.maxPoints)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidGrade) {
					t.Fatalf("Expected ErrInvalidGrade, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if g.Points() != tc.points || g.MaxPoints() != tc.maxPoints {
				t.Errorf("Expected %g/%g, got %s", tc.points, tc.maxPoints, g)
			}
		})
	}
}

// Every out-of-range combination on a coarse grid must be rejected.
func TestNewGradeRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	for maxPoints := 1.0; maxPoints <= 50; maxPoints += 7 {
		for _, points := range []float64{-maxPoints, -0.001, maxPoints + 0.001, maxPoints * 2} {
			if _, err := NewGrade(points, maxPoints); !errors.Is(err, ErrInvalidGrade) {
				t.Errorf("NewGrade(%g, %g): expected ErrInvalidGrade, got %v", points, maxPoints, err)
			}
		}
	}
}

func TestGradePercentage(t *testing.T) {
	t.Parallel()

	g, err := NewGrade(95, 100)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := g.Percentage(); got != 95.0 {
		t.Errorf("Expected 95.0, got %v", got)
	}

	g, _ = NewGrade(3, 8)
	if got := g.Percentage(); got != 37.5 {
		t.Errorf("Expected 37.5, got %v", got)
	}
}

func TestGradeEqual(t *testing.T) {
	t.Parallel()

	a, _ := NewGrade(40, 50)
	b, _ := NewGrade(40, 50)
	c, _ := NewGrade(40, 60)

	if !a.Equal(b) {
		t.Error("Expected grades with the same points and maximum to be equal")
	}
	if a.Equal(c) {
		t.Error("Expected grades with different maximums to differ")
	}
	if a != b {
		t.Error("Expected value comparison to agree with Equal")
	}
}
