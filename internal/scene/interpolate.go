package scene

import "github.com/moviola/engine/internal/model"

// CameraState is the interpolated camera pose at a moment along a
// preset trajectory.
type CameraState struct {
	Position Vec3
	Zoom     float64
}

// InterpolateTrajectory calculates the camera state at a given time by
// interpolating between the keyframes of a camera-preset trajectory.
func InterpolateTrajectory(keyframes []model.TrajectoryKeyframe, currentTime float64) CameraState {
	if len(keyframes) == 0 {
		return CameraState{Zoom: 1.0}
	}

	// Before the first keyframe, hold the first pose.
	if currentTime <= keyframes[0].Time {
		return stateAt(keyframes[0])
	}

	// After the last keyframe, hold the last pose.
	if currentTime >= keyframes[len(keyframes)-1].Time {
		return stateAt(keyframes[len(keyframes)-1])
	}

	// Find the surrounding keyframes.
	var prev, next model.TrajectoryKeyframe
	for i := 0; i < len(keyframes)-1; i++ {
		if currentTime >= keyframes[i].Time && currentTime < keyframes[i+1].Time {
			prev = keyframes[i]
			next = keyframes[i+1]
			break
		}
	}

	timeDelta := next.Time - prev.Time
	if timeDelta == 0 {
		timeDelta = 0.001 // avoid division by zero
	}
	t := (currentTime - prev.Time) / timeDelta

	// Smooth in-out easing.
	t = easeInOutCubic(t)

	return CameraState{
		Position: Vec3{
			X: lerp(prev.X, next.X, t),
			Y: lerp(prev.Y, next.Y, t),
			Z: lerp(prev.Z, next.Z, t),
		},
		Zoom: lerp(prev.Zoom, next.Zoom, t),
	}
}

func stateAt(kf model.TrajectoryKeyframe) CameraState {
	return CameraState{Position: Vec3{X: kf.X, Y: kf.Y, Z: kf.Z}, Zoom: kf.Zoom}
}

// lerp performs linear interpolation between a and b.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// easeInOutCubic applies smooth easing.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
