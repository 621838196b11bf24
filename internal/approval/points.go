package approval

import "github.com/dukerupert/choreus/internal/model"

// SignedDelta turns an unsigned magnitude into the change applied to a task.
func SignedDelta(magnitude int, direction model.Direction) int {
	if magnitude < 0 {
		magnitude = -magnitude
	}
	if direction == model.DirectionDecrease {
		return -magnitude
	}
	return magnitude
}

// ApplyDelta returns the new point value, clamped at zero.
func ApplyDelta(points, delta int) int {
	return max(0, points+delta)
}
