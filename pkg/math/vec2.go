package math

// Vec2 is a plan-view (XZ) point. Export and rendering project fans onto it.
type Vec2 struct {
	X, Y float32
}
