package render

import (
	"math"

	"screen-capture-tool/src/geometry"
)

const (
	// ArrowLength is the distance from the tip to each wing point.
	ArrowLength = 18.0
	// ArrowAngle is the half-angle of the head in degrees.
	ArrowAngle = 25.0
)

// ArrowHead returns the two wing points of a head drawn at tip for a shaft
// coming from from. The wings are the reversed shaft direction rotated by
// ±ArrowAngle and placed ArrowLength away from the tip.
func ArrowHead(from, tip geometry.PointF) (left, right geometry.PointF) {
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	spread := ArrowAngle * math.Pi / 180
	la := angle + math.Pi - spread
	ra := angle + math.Pi + spread
	left = geometry.PointF{X: tip.X + ArrowLength*math.Cos(la), Y: tip.Y + ArrowLength*math.Sin(la)}
	right = geometry.PointF{X: tip.X + ArrowLength*math.Cos(ra), Y: tip.Y + ArrowLength*math.Sin(ra)}
	return left, right
}
