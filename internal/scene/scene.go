// Package scene holds the 3D scene-view state: a movable camera and a
// set of manipulable puppets.
package scene

// Vec3 is a point in scene space.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// MoveDirection is a camera translation axis.
type MoveDirection int

const (
	MoveForward MoveDirection = iota
	MoveBackward
	MoveLeft
	MoveRight
)

// DefaultCameraPosition is where Reset puts the camera: slightly above
// the ground plane, pulled back from the origin.
var DefaultCameraPosition = Vec3{X: 0, Y: 1.5, Z: 6}

// Camera is the scene-view camera. Forward/backward translate along Z,
// left/right along X.
type Camera struct {
	Position    Vec3    `yaml:"position"`
	FocalLength float64 `yaml:"focalLength"`
}

// NewCamera returns a camera at the default pose.
func NewCamera() Camera {
	return Camera{Position: DefaultCameraPosition, FocalLength: 35}
}

// Move translates the camera by step scene units along the given axis.
func (c *Camera) Move(dir MoveDirection, step float64) {
	switch dir {
	case MoveForward:
		c.Position.Z -= step
	case MoveBackward:
		c.Position.Z += step
	case MoveLeft:
		c.Position.X -= step
	case MoveRight:
		c.Position.X += step
	}
}

// Reset restores the default camera pose.
func (c *Camera) Reset() {
	*c = NewCamera()
}

// Puppet is a manipulable scene object: a position and a rotation around
// the Y axis, in degrees.
type Puppet struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Position  Vec3    `yaml:"position"`
	RotationY float64 `yaml:"rotationY"`
}
