package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"ms-gallery/internal/models"
)

const (
	DefaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// QRGenerator renders the code printed on event posters. It points attendees at
// the event page of the web site, where they can upload their photos.
type QRGenerator struct {
	SiteURL string
}

func NewQRGenerator(siteURL string) *QRGenerator {
	return &QRGenerator{SiteURL: siteURL}
}

func (q *QRGenerator) EventURL(eventID string) string {
	return strings.TrimRight(q.SiteURL, "/") + "/events/" + url.PathEscape(eventID)
}

func (q *QRGenerator) Encode(eventID string, size int) ([]byte, error) {
	return qrcode.Encode(q.EventURL(eventID), qrcode.Medium, size)
}

// ShareQR returns a PNG QR code for an existing event.
func (s *EventService) ShareQR(ctx context.Context, eventID string, size int) ([]byte, error) {
	if s.QR == nil {
		return nil, fmt.Errorf("event sharing is not configured")
	}
	if size == 0 {
		size = DefaultQRSize
	}
	if size < minQRSize || size > maxQRSize {
		return nil, fmt.Errorf("%w: size must be between %d and %d", models.ErrValidation, minQRSize, maxQRSize)
	}

	if _, err := s.DB.GetEventByID(ctx, eventID); err != nil {
		return nil, err
	}

	png, err := s.QR.Encode(eventID, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
