package utils

import (
	"fmt"
	"io"
	"mime/multipart"

	"ms-gallery/internal/models"
)

// ReadUploads loads every file posted under field into memory, refusing any
// file larger than maxBytes.
func ReadUploads(form *multipart.Form, field string, maxBytes int64) ([]models.Upload, error) {
	if form == nil {
		return nil, nil
	}

	headers := form.File[field]
	uploads := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		if maxBytes > 0 && fh.Size > maxBytes {
			return nil, fmt.Errorf("%w: %s exceeds %d bytes", models.ErrValidation, fh.Filename, maxBytes)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s: %v", models.ErrValidation, fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read %s: %v", models.ErrValidation, fh.Filename, err)
		}

		uploads = append(uploads, models.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}
