package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		ct                  string
		image, video, audio bool
	}{
		{"image/png", true, false, false},
		{"IMAGE/JPEG; charset=binary", true, false, false},
		{"video/mp4", false, true, false},
		{"audio/ogg", false, false, true},
		{"application/octet-stream", false, false, false},
		{"", false, false, false},
		{"imagepng", false, false, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.image, IsImage(tt.ct), tt.ct)
		assert.Equal(t, tt.video, IsVideo(tt.ct), tt.ct)
		assert.Equal(t, tt.audio, IsAudio(tt.ct), tt.ct)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "image/png", Normalize("Image/PNG"))
	assert.Equal(t, "text/plain", Normalize("text/plain; charset=utf-8"))
	assert.Equal(t, "not a type", Normalize("  NOT A TYPE "))
}

func TestPushConstraints(t *testing.T) {
	c := PushConstraints

	tests := []struct {
		name string
		ct   string
		size int64
		w, h int
		want bool
	}{
		{"small image", "image/png", 1 * MB, 800, 600, true},
		{"image at limits", "image/jpeg", 3 * MB, 2560, 2560, true},
		{"image too heavy", "image/jpeg", 3*MB + 1, 800, 600, false},
		{"image too wide", "image/jpeg", MB, 2561, 10, false},
		{"image without dimensions", "image/gif", MB, 0, 0, false},
		{"audio ok", "audio/mpeg", 300 * MB, 0, 0, true},
		{"audio too big", "audio/mpeg", 300*MB + 1, 0, 0, false},
		{"video ok", "video/mp4", 1024 * MB, 0, 0, true},
		{"video too big", "video/mp4", 1024*MB + 1, 0, 0, false},
		{"other unconstrained", "application/pdf", 5000 * MB, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Satisfied(tt.ct, tt.size, tt.w, tt.h))
		})
	}
}
