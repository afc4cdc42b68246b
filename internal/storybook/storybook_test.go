package storybook

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

func tinyPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRender(t *testing.T) {
	a := *adventure.New()
	a.AgeGroup = adventure.AgeGroup6to8
	a.Theme = adventure.ThemeDinosaurs

	root := adventure.NewStoryNode(nil, "A baby triceratops hatched.", tinyPNG(t), []adventure.Choice{{Text: "Say hello"}}, false, nil)
	a, err := adventure.ApplyInitialNode(a, root, adventure.StoryArc{})
	require.NoError(t, err)
	next := adventure.NewStoryNode(nil, "They became best friends, café and all.", tinyPNG(t),
		[]adventure.Choice{{Text: "Go exploring"}, {Text: "Take a nap"}}, false, nil)
	a, err = adventure.ApplyNextNode(a, next)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, a))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}

func TestRender_Ending(t *testing.T) {
	a := *adventure.New()
	a.Theme = adventure.ThemeSpace
	root := adventure.NewStoryNode(nil, "The end of a short trip.", "", nil, true, nil)
	a, err := adventure.ApplyInitialNode(a, root, adventure.StoryArc{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, a))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRender_NotStarted(t *testing.T) {
	err := Render(&bytes.Buffer{}, *adventure.New())
	assert.True(t, errors.Is(err, ErrNotStarted))
}

func TestDecodeImage(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		wantKind string
	}{
		{"empty", "", ""},
		{"not base64", "%%%", ""},
		{"png", tinyPNG(t), "PNG"},
		{"jpeg header", base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0}), "JPG"},
		{"unknown bytes", base64.StdEncoding.EncodeToString([]byte("mock-image")), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, kind := decodeImage(tt.encoded)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}
