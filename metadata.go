package tamperfy

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/bep/imagemeta"
)

// Metadata signal levels.
const (
	metaNoEXIF   = 0.4  // legitimate camera output usually keeps EXIF
	metaEditor   = 0.85 // an image editor signed the file
	metaClean    = 0.1
	metaFallback = 0.3
)

// editorSoftware are substrings that identify an image editor when found
// (case-insensitive) in any string EXIF tag.
var editorSoftware = []string{
	"photoshop",
	"gimp",
	"lightroom",
	"affinity",
	"snapseed",
	"facetune",
	"picsart",
	"canva",
	"meitu",
	"vsco",
}

// ImageMetadata holds the EXIF tags extracted from raw image bytes.
type ImageMetadata struct {
	Tags    map[string]string // string-valued tags only, by tag name
	NumTags int               // every EXIF tag seen, string or not
}

// exifFormats maps the image.DecodeConfig format names that can carry EXIF
// to their imagemeta container format.
var exifFormats = map[string]imagemeta.ImageFormat{
	"jpeg": imagemeta.JPEG,
	"png":  imagemeta.PNG,
	"webp": imagemeta.WebP,
	"tiff": imagemeta.TIFF,
}

// ExtractImageMetadata parses EXIF tags from raw image bytes. An image without
// EXIF yields an empty, non-nil ImageMetadata; only undecodable input or a
// malformed EXIF block returns an error.
func ExtractImageMetadata(data []byte) (*ImageMetadata, error) {
	if len(data) == 0 {
		return nil, errEmptyInput
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("detect format: %w", err)
	}

	meta := &ImageMetadata{Tags: make(map[string]string)}
	imf, ok := exifFormats[format]
	if !ok {
		return meta, nil
	}

	_, err = imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: imf,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Source == imagemeta.EXIF
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			meta.NumTags++
			if s, ok := ti.Value.(string); ok && s != "" {
				meta.Tags[ti.Tag] = s
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decode EXIF: %w", err)
	}

	return meta, nil
}

// EditorSoftware returns the first known image editor named in any string tag,
// or "" when none is found.
func EditorSoftware(meta *ImageMetadata) string {
	if meta == nil {
		return ""
	}
	for _, v := range meta.Tags {
		lower := strings.ToLower(v)
		for _, ed := range editorSoftware {
			if strings.Contains(lower, ed) {
				return ed
			}
		}
	}
	return ""
}

// MetadataScore maps extracted metadata to the metadata signal.
func MetadataScore(meta *ImageMetadata) float64 {
	if meta == nil || meta.NumTags == 0 {
		return metaNoEXIF
	}
	if ed := EditorSoftware(meta); ed != "" {
		slog.Debug("tamperfy: editor software in EXIF", "editor", ed)
		return metaEditor
	}
	return metaClean
}

func metadataSignal(data []byte) (float64, error) {
	meta, err := ExtractImageMetadata(data)
	if err != nil {
		return 0, err
	}
	return MetadataScore(meta), nil
}
