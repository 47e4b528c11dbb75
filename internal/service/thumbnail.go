// Package service contains the business logic layer.
//
// This file implements thumbnail generation for receipt proof images, used
// by the staff review surface.
package service

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// Review thumbnails are sized for an admin list view; quality matches what
// the proof images tolerate without visible banding.
const (
	ReviewThumbWidth   = 480
	ReviewThumbHeight  = 480
	reviewThumbQuality = 85
)

// =============================================================================
// Interface Definition
// =============================================================================

// ThumbnailProcessor handles thumbnail generation from images.
type ThumbnailProcessor interface {
	// GenerateThumbnail creates a JPEG thumbnail from the provided image
	// data, fitting within maxWidth x maxHeight while preserving aspect
	// ratio. Returns the thumbnail bytes and the original dimensions.
	GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error)
}

// =============================================================================
// Implementation
// =============================================================================

type imagingProcessor struct{}

// NewImagingProcessor creates a thumbnail processor backed by the imaging
// library.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{}
}

// GenerateThumbnail creates a thumbnail from the provided image data.
func (p *imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	thumb := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(reviewThumbQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
