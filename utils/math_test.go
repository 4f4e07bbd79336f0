package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestDegRadConversions(t *testing.T) {
	test.That(t, DegToRad(0), test.ShouldEqual, 0)
	test.That(t, DegToRad(180), test.ShouldEqual, math.Pi)
	test.That(t, DegToRad(-90), test.ShouldEqual, -math.Pi/2)
	test.That(t, RadToDeg(math.Pi), test.ShouldEqual, 180)
	test.That(t, RadToDeg(DegToRad(123.4)), test.ShouldAlmostEqual, 123.4, 1e-12)
}

func TestSquare(t *testing.T) {
	test.That(t, Square(3), test.ShouldEqual, 9)
	test.That(t, Square(-0.5), test.ShouldEqual, 0.25)
	test.That(t, Square(0), test.ShouldEqual, 0)
}

func TestConstrain(t *testing.T) {
	test.That(t, Constrain(5, 0, 10), test.ShouldEqual, 5)
	test.That(t, Constrain(-5, 0, 10), test.ShouldEqual, 0)
	test.That(t, Constrain(15, 0, 10), test.ShouldEqual, 10)
	test.That(t, Constrain(1.5, -1.0, 1.0), test.ShouldEqual, 1.0)
	test.That(t, Constrain(uint16(900), uint16(1000), uint16(2000)), test.ShouldEqual, uint16(1000))
}

func TestMapRange(t *testing.T) {
	test.That(t, MapRange(1500.0, 1000, 2000, -1, 1), test.ShouldEqual, 0)
	test.That(t, MapRange(2000.0, 1000, 2000, -1, 1), test.ShouldEqual, 1)
	test.That(t, MapRange(1000.0, 1000, 2000, -1, 1), test.ShouldEqual, -1)
	test.That(t, MapRange(0.25, 0, 1, 0, 100), test.ShouldEqual, 25)
}
