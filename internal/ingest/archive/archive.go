// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package archive validates and extracts chapter page archives.

# Overview

Uploaders submit a chapter as a single ZIP archive of page images. This
package turns that archive into an ordered slice of validated pages:

  - Entries are ordered by natural sort of their file names, so "page2"
    sorts before "page10". The resulting order IS the reading order.
  - Every entry must be an allowed image format, within the per-page size
    limit, and decodable as an actual image.

Validation is all-or-nothing: the first offending entry (in natural order)
rejects the whole archive. Nothing downstream ever sees a partial result.
*/
package archive

import (
	"archive/zip"
	"bytes"
	"image"
	"io"
	"path"
	"strings"

	"github.com/facette/natsort"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"

	// Registered decoders for page validation.
	_ "image/jpeg"
	_ "image/png"
)

// # Error Codes

const (
	// CodeCorruptArchive is returned when the payload is not a readable ZIP.
	CodeCorruptArchive = "CORRUPT_ARCHIVE"
	// CodeEmptyArchive is returned when the archive contains no page entries.
	CodeEmptyArchive = "EMPTY_ARCHIVE"
	// CodeDisallowedExtension is returned for entries that are not png/jpg/jpeg.
	CodeDisallowedExtension = "DISALLOWED_EXTENSION"
	// CodeImageTooLarge is returned when a page exceeds the per-page byte limit.
	CodeImageTooLarge = "IMAGE_TOO_LARGE"
	// CodeUnreadableImage is returned when a page does not decode as an image.
	CodeUnreadableImage = "UNREADABLE_IMAGE"
)

// # Types

// Page is a single validated page image in reading order.
type Page struct {
	// Name is the entry's base file name inside the archive.
	Name string
	// Data is the raw image bytes.
	Data []byte
}

// Limits bounds what an archive may contain.
type Limits struct {
	// MaxPageBytes is the per-page size ceiling.
	MaxPageBytes int64
	// AllowedExtensions are the accepted file extensions, without the dot.
	AllowedExtensions []string
}

// # Extraction

// Extract validates the ZIP payload and returns its pages in reading order.
//
// Parameters:
//   - payload: the raw archive bytes as received from the uploader.
//   - limits: per-page validation bounds.
//
// Returns:
//   - the pages ordered by natural sort of entry names.
//   - an *apperr.AppError carrying the discriminated failure code for the
//     first offending entry, or a corrupt/empty archive.
func Extract(payload []byte, limits Limits) ([]Page, error) {
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, apperr.Unprocessable("archive is corrupt or not a ZIP file").
			WithCode(CodeCorruptArchive)
	}

	entries := make(map[string]*zip.File, len(reader.File))
	names := make([]string, 0, len(reader.File))

	for _, entry := range reader.File {
		// Directory entries carry no page data.
		if strings.HasSuffix(entry.Name, "/") {
			continue
		}
		entries[entry.Name] = entry
		names = append(names, entry.Name)
	}

	if len(names) == 0 {
		return nil, apperr.Unprocessable("archive contains no pages").
			WithCode(CodeEmptyArchive)
	}

	// Natural order so "page2" precedes "page10". This is the reading order
	// and the only order any consumer may rely on.
	natsort.Sort(names)

	pages := make([]Page, 0, len(names))
	for _, name := range names {
		page, err := readPage(entries[name], limits)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	return pages, nil
}

// readPage validates a single entry and loads its bytes.
func readPage(entry *zip.File, limits Limits) (Page, error) {
	baseName := path.Base(entry.Name)

	if !extensionAllowed(baseName, limits.AllowedExtensions) {
		return Page{}, apperr.Unprocessable("page has a disallowed file extension: " + baseName).
			WithCode(CodeDisallowedExtension)
	}

	if limits.MaxPageBytes > 0 && int64(entry.UncompressedSize64) > limits.MaxPageBytes {
		return Page{}, apperr.Unprocessable("page exceeds the size limit: " + baseName).
			WithCode(CodeImageTooLarge)
	}

	file, err := entry.Open()
	if err != nil {
		return Page{}, apperr.Unprocessable("page could not be read: " + baseName).
			WithCode(CodeUnreadableImage)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Page{}, apperr.Unprocessable("page could not be read: " + baseName).
			WithCode(CodeUnreadableImage)
	}

	// Declared size can lie; re-check the actual bytes.
	if limits.MaxPageBytes > 0 && int64(len(data)) > limits.MaxPageBytes {
		return Page{}, apperr.Unprocessable("page exceeds the size limit: " + baseName).
			WithCode(CodeImageTooLarge)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return Page{}, apperr.Unprocessable("page is not a readable image: " + baseName).
			WithCode(CodeUnreadableImage)
	}

	return Page{Name: baseName, Data: data}, nil
}

// extensionAllowed matches the entry's extension against the allow list,
// case-insensitively.
func extensionAllowed(name string, allowed []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if ext == "" {
		return false
	}

	for _, candidate := range allowed {
		if ext == candidate {
			return true
		}
	}
	return false
}
