// Package timecode converts between frame counts and HH:MM:SS:FF display
// strings.
package timecode

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for negative frame counts or non-positive
// frame rates. The display format has no defined meaning for either, so
// they are rejected instead of guessed at.
var ErrOutOfRange = errors.New("timecode: frames and fps must be non-negative and positive respectively")

// Encode renders a frame count as HH:MM:SS:FF. Every field is
// zero-padded to two digits; hours past 99 keep their natural width.
func Encode(frames, fps int) (string, error) {
	if frames < 0 || fps <= 0 {
		return "", ErrOutOfRange
	}

	totalSeconds := frames / fps
	ff := frames % fps
	ss := totalSeconds % 60
	mm := (totalSeconds / 60) % 60
	hh := totalSeconds / 3600

	return fmt.Sprintf("%02d:%02d:%02d:%02d", hh, mm, ss, ff), nil
}

// MustEncode is Encode for inputs already known to be valid; invalid
// inputs render as the zero timecode rather than panicking, keeping
// display paths total.
func MustEncode(frames, fps int) string {
	s, err := Encode(frames, fps)
	if err != nil {
		return "00:00:00:00"
	}
	return s
}

// Decode parses an HH:MM:SS:FF string back into a frame count. The
// frames field must be below fps; minutes and seconds below 60.
func Decode(tc string, fps int) (int, error) {
	if fps <= 0 {
		return 0, ErrOutOfRange
	}

	var hh, mm, ss, ff int
	if _, err := fmt.Sscanf(tc, "%d:%d:%d:%d", &hh, &mm, &ss, &ff); err != nil {
		return 0, fmt.Errorf("timecode: malformed %q: %w", tc, err)
	}
	if hh < 0 || mm < 0 || mm > 59 || ss < 0 || ss > 59 || ff < 0 || ff >= fps {
		return 0, ErrOutOfRange
	}

	return ((hh*3600 + mm*60 + ss) * fps) + ff, nil
}
