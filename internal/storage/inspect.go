package storage

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"

	"ms-gallery/internal/models"
)

type ImageInfo struct {
	Width       int
	Height      int
	ContentType string
}

// InspectImage decodes the payload to make sure it is a real image before anything is uploaded.
func InspectImage(data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, fmt.Errorf("%w: empty image file", models.ErrValidation)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: file is not a supported image: %v", models.ErrValidation, err)
	}

	bounds := img.Bounds()
	return ImageInfo{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ContentType: http.DetectContentType(data),
	}, nil
}
