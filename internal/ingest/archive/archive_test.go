// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package archive

import (
	"archive/zip"
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
)

func testLimits() Limits {
	return Limits{
		MaxPageBytes:      1 << 20,
		AllowedExtensions: []string{"png", "jpg", "jpeg"},
	}
}

// pngBytes encodes a minimal valid PNG image.
func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// buildZip assembles an in-memory archive from name→content pairs.
func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	for name, content := range entries {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestExtract_NaturalOrder(t *testing.T) {
	img := pngBytes(t)
	payload := buildZip(t, map[string][]byte{
		"page2.png":  img,
		"page10.png": img,
		"page1.png":  img,
	})

	pages, err := Extract(payload, testLimits())

	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "page1.png", pages[0].Name)
	assert.Equal(t, "page2.png", pages[1].Name)
	assert.Equal(t, "page10.png", pages[2].Name)
}

func TestExtract_DirectoryEntriesSkipped(t *testing.T) {
	img := pngBytes(t)

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	_, err := writer.Create("pages/")
	require.NoError(t, err)
	entry, err := writer.Create("pages/001.png")
	require.NoError(t, err)
	_, err = entry.Write(img)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	pages, err := Extract(buf.Bytes(), testLimits())

	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "001.png", pages[0].Name)
}

func TestExtract_CorruptArchive(t *testing.T) {
	_, err := Extract([]byte("definitely not a zip"), testLimits())

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeCorruptArchive))
}

func TestExtract_EmptyArchive(t *testing.T) {
	payload := buildZip(t, map[string][]byte{})

	_, err := Extract(payload, testLimits())

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeEmptyArchive))
}

func TestExtract_DisallowedExtension(t *testing.T) {
	payload := buildZip(t, map[string][]byte{
		"page1.gif": pngBytes(t),
	})

	_, err := Extract(payload, testLimits())

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeDisallowedExtension))
}

func TestExtract_ImageTooLarge(t *testing.T) {
	limits := testLimits()
	limits.MaxPageBytes = 8

	payload := buildZip(t, map[string][]byte{
		"page1.png": pngBytes(t),
	})

	_, err := Extract(payload, limits)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeImageTooLarge))
}

func TestExtract_UnreadableImage(t *testing.T) {
	payload := buildZip(t, map[string][]byte{
		"page1.png": []byte("not an image at all"),
	})

	_, err := Extract(payload, testLimits())

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeUnreadableImage))
}

// The first offending entry in natural order decides the error, not the
// first offending entry in archive order.
func TestExtract_FirstFailureInNaturalOrder(t *testing.T) {
	img := pngBytes(t)
	payload := buildZip(t, map[string][]byte{
		"page10.gif": img,
		"page2.txt":  img,
		"page1.png":  img,
	})

	_, err := Extract(payload, testLimits())

	require.Error(t, err)
	// page2.txt sorts before page10.gif; both fail on extension.
	assert.True(t, apperr.HasCode(err, CodeDisallowedExtension))
	assert.Contains(t, err.Error(), "page2.txt")
}
