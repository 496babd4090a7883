package physics

const (
	// HandHalfExtent is the half size of the cube collider attached to a
	// tracked hand.
	HandHalfExtent = 0.05

	// DefaultHalfExtent is used for bodies declared without a size.
	DefaultHalfExtent = 0.25

	// LoadNever marks a body that never finishes loading.
	LoadNever = -1

	CollisionAxisTolerance = 1e-9
)
