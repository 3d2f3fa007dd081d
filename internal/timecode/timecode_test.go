package timecode

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		fps    int
		want   string
	}{
		{"zero", 0, 24, "00:00:00:00"},
		{"one frame", 1, 24, "00:00:00:01"},
		{"last frame of second", 23, 24, "00:00:00:23"},
		{"one second", 24, 24, "00:00:01:00"},
		{"one minute forty", 2400, 24, "00:01:40:00"},
		{"one hour", 86400, 24, "01:00:00:00"},
		{"thirty fps", 90, 30, "00:00:03:00"},
		{"large", 24 * 3600 * 26, 24, "26:00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.frames, tt.fps)
			if err != nil {
				t.Fatalf("Encode(%d, %d) failed: %v", tt.frames, tt.fps, err)
			}
			if got != tt.want {
				t.Errorf("Encode(%d, %d) = %s, want %s", tt.frames, tt.fps, got, tt.want)
			}
		})
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	if _, err := Encode(-1, 24); err == nil {
		t.Error("Expected error for negative frames")
	}
	if _, err := Encode(100, 0); err == nil {
		t.Error("Expected error for zero fps")
	}
	if _, err := Encode(100, -24); err == nil {
		t.Error("Expected error for negative fps")
	}
}

func TestEncodeVeryLargeDoesNotTruncate(t *testing.T) {
	// Beyond 99 hours the hour field keeps its natural width.
	got, err := Encode(24*3600*120, 24)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if got != "120:00:00:00" {
		t.Errorf("Expected 120:00:00:00, got %s", got)
	}
}

func TestMustEncodeIsTotal(t *testing.T) {
	if got := MustEncode(-5, 24); got != "00:00:00:00" {
		t.Errorf("Expected zero timecode for invalid input, got %s", got)
	}
	if got := MustEncode(48, 24); got != "00:00:02:00" {
		t.Errorf("Expected 00:00:02:00, got %s", got)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		tc   string
		fps  int
		want int
	}{
		{"00:00:00:00", 24, 0},
		{"00:00:01:00", 24, 24},
		{"00:01:40:00", 24, 2400},
		{"01:00:00:00", 24, 86400},
		{"120:00:00:00", 24, 24 * 3600 * 120},
		{"00:00:03:15", 30, 105},
	}

	for _, tt := range tests {
		got, err := Decode(tt.tc, tt.fps)
		if err != nil {
			t.Fatalf("Decode(%q, %d) failed: %v", tt.tc, tt.fps, err)
		}
		if got != tt.want {
			t.Errorf("Decode(%q, %d) = %d, want %d", tt.tc, tt.fps, got, tt.want)
		}
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	bad := []string{"garbage", "00:00:00", "00:61:00:00", "00:00:00:24", "-1:00:00:00"}
	for _, tc := range bad {
		if _, err := Decode(tc, 24); err == nil {
			t.Errorf("Decode(%q) accepted malformed input", tc)
		}
	}
	if _, err := Decode("00:00:00:00", 0); err == nil {
		t.Error("Decode accepted zero fps")
	}
}
