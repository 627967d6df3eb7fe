package infrastructure

import (
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
)

var (
	pngHeader  = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")
	jpegHeader = []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF\x00")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00")
)

func TestImageExtension(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
		wantErr  bool
	}{
		{"png", "image/png", pngHeader, "png", false},
		{"jpeg", "image/jpeg", jpegHeader, "jpg", false},
		{"jpg alias", " IMAGE/JPG ", jpegHeader, "jpg", false},
		{"gif", "image/gif", gifHeader, "gif", false},
		{"mismatch", "image/png", jpegHeader, "", true},
		{"svg", "image/svg+xml", []byte("<svg/>"), "", true},
		{"text", "text/plain", []byte("hello"), "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ImageExtension(tc.declared, tc.data)
			if tc.wantErr {
				assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
