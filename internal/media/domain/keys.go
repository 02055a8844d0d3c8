package domain

import (
	"fmt"
	"strings"
	"time"
)

// Hard limits of the media contract. These are not configuration; clients and
// stored URLs depend on them.
const (
	MaxImageSize    = 5 << 20
	MaxDocumentSize = 10 << 20

	MaxImagesPerSession = 10
	MaxImagesPerListing = 10
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var allowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

// ValidateImage checks the upload against the image contract (MIME and size).
func ValidateImage(contentType string, size int64) error {
	if !allowedImageTypes[contentType] {
		return fmt.Errorf("%w: unsupported image type %q", ErrInvalidMedia, contentType)
	}
	if size <= 0 || size > MaxImageSize {
		return fmt.Errorf("%w: image size %d exceeds %d bytes", ErrInvalidMedia, size, MaxImageSize)
	}
	return nil
}

var validDocumentTypes = map[DocumentType]bool{
	DocumentUtilityBill:    true,
	DocumentTitleDeed:      true,
	DocumentLeaseAgreement: true,
	DocumentPropertyTax:    true,
	DocumentOther:          true,
}

// ValidateDocumentType rejects document type values outside the known set so
// free-form strings never reach the metadata store.
func ValidateDocumentType(t DocumentType) error {
	if !validDocumentTypes[t] {
		return fmt.Errorf("%w: unknown document type %q", ErrInvalidMedia, t)
	}
	return nil
}

// ValidateDocument checks the upload against the verification document contract.
func ValidateDocument(contentType string, size int64) error {
	if !allowedDocumentTypes[contentType] {
		return fmt.Errorf("%w: unsupported document type %q", ErrInvalidMedia, contentType)
	}
	if size <= 0 || size > MaxDocumentSize {
		return fmt.Errorf("%w: document size %d exceeds %d bytes", ErrInvalidMedia, size, MaxDocumentSize)
	}
	return nil
}

// SanitizeFilename replaces every character outside [A-Za-z0-9.-] with '_'.
// The result is embedded in object keys, so the mapping must stay stable.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// PendingImageKey derives the object key for an image staged in a session.
func PendingImageKey(sessionID, fileName string, now time.Time) string {
	return fmt.Sprintf("pending/%s/%d-%s", sessionID, now.UnixMilli(), SanitizeFilename(fileName))
}

// ListingImageKey derives the object key for an image attached to a listing.
func ListingImageKey(listingID, fileName string, now time.Time) string {
	return fmt.Sprintf("listings/%s/%d-%s", listingID, now.UnixMilli(), SanitizeFilename(fileName))
}

// DocumentKey derives the object key for a verification document.
func DocumentKey(listingID, fileName string, now time.Time) string {
	return fmt.Sprintf("listings/%s/documents/%d-%s", listingID, now.UnixMilli(), SanitizeFilename(fileName))
}
