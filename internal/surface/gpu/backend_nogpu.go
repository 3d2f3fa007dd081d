//go:build nogpu

package gpu

import "errors"

// BackendName identifies the accelerated backend.
const BackendName = "wgpu"

// ErrDisabled is returned by Init when the build excludes GPU support.
var ErrDisabled = errors.New("gpu support disabled in this build")

// Backend is the nogpu stub. Init always fails so callers fall through
// to the software rasterizer.
type Backend struct{}

// New returns the stub backend.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return BackendName }

// Init reports that GPU support is compiled out.
func (b *Backend) Init() error { return ErrDisabled }

// Close is a no-op.
func (b *Backend) Close() {}
