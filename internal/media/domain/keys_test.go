package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"already clean", "photo-1.jpg", "photo-1.jpg"},
		{"spaces", "living room.jpg", "living_room.jpg"},
		{"path separators", "../../etc/passwd", ".._.._etc_passwd"},
		{"unicode", "квартира.png", "________________.png"},
		{"mixed", "Lease (final) #2.pdf", "Lease__final___2.pdf"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestObjectKeySchemes(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	assert.Equal(t, "pending/sess-1/1700000000000-a_b.jpg", PendingImageKey("sess-1", "a b.jpg", now))
	assert.Equal(t, "listings/L42/1700000000000-front.png", ListingImageKey("L42", "front.png", now))
	assert.Equal(t, "listings/L42/documents/1700000000000-deed.pdf", DocumentKey("L42", "deed.pdf", now))
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage("image/jpeg", 1024))
	assert.NoError(t, ValidateImage("image/webp", MaxImageSize))

	assert.ErrorIs(t, ValidateImage("image/gif", 1024), ErrInvalidMedia)
	assert.ErrorIs(t, ValidateImage("application/pdf", 1024), ErrInvalidMedia)
	assert.ErrorIs(t, ValidateImage("image/jpeg", MaxImageSize+1), ErrInvalidMedia)
	assert.ErrorIs(t, ValidateImage("image/jpeg", 0), ErrInvalidMedia)
}

func TestValidateDocumentType(t *testing.T) {
	for _, dt := range []DocumentType{DocumentUtilityBill, DocumentTitleDeed, DocumentLeaseAgreement, DocumentPropertyTax, DocumentOther} {
		assert.NoError(t, ValidateDocumentType(dt))
	}

	assert.ErrorIs(t, ValidateDocumentType(DocumentType("SELFIE")), ErrInvalidMedia)
	assert.ErrorIs(t, ValidateDocumentType(DocumentType("")), ErrInvalidMedia)
}

func TestValidateDocument(t *testing.T) {
	assert.NoError(t, ValidateDocument("application/pdf", 1024))
	assert.NoError(t, ValidateDocument("image/png", MaxDocumentSize))

	assert.ErrorIs(t, ValidateDocument("text/plain", 1024), ErrInvalidMedia)
	assert.ErrorIs(t, ValidateDocument("application/pdf", MaxDocumentSize+1), ErrInvalidMedia)
}

func TestScope(t *testing.T) {
	attached := AttachedTo("L1")
	pending := PendingIn("s1")

	assert.True(t, attached.IsAttached())
	assert.False(t, attached.IsPending())
	listingID, ok := attached.ListingID()
	assert.True(t, ok)
	assert.Equal(t, "L1", listingID)
	_, ok = attached.SessionID()
	assert.False(t, ok)

	assert.True(t, pending.IsPending())
	sessionID, ok := pending.SessionID()
	assert.True(t, ok)
	assert.Equal(t, "s1", sessionID)

	assert.True(t, attached.Equal(AttachedTo("L1")))
	assert.False(t, attached.Equal(AttachedTo("L2")))
	assert.False(t, attached.Equal(pending))
	assert.False(t, pending.Equal(PendingIn("s2")))
}
