package surface

// Backend acquires a rendering capability for the scene view. Drawing
// itself always goes through the gg canvas; an accelerated backend makes
// that path run on the GPU process-wide, so the backend's job is only to
// bring the capability up and report whether it is there.
//
// Init failing is a degradation, never an error condition: the surface
// moves on to the next backend and keeps rendering.
type Backend interface {
	// Name identifies the backend ("wgpu", "soft2d").
	Name() string
	// Init acquires the rendering capability. Called once at surface
	// mount.
	Init() error
	// Close releases whatever Init acquired.
	Close()
}

// Software2D is the always-available CPU rasterizer backend. It is the
// terminal fallback: Init never fails.
type Software2D struct{}

func (Software2D) Name() string { return "soft2d" }
func (Software2D) Init() error  { return nil }
func (Software2D) Close()       {}
