package domain

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// ResubmissionNotes is the fixed audit note written on the automatic
// REJECTED -> PENDING transition when a new document arrives.
const ResubmissionNotes = "Documents resubmitted for review"

type DocumentType string

const (
	DocumentUtilityBill    DocumentType = "UTILITY_BILL"
	DocumentTitleDeed      DocumentType = "TITLE_DEED"
	DocumentLeaseAgreement DocumentType = "LEASE_AGREEMENT"
	DocumentPropertyTax    DocumentType = "PROPERTY_TAX"
	DocumentOther          DocumentType = "OTHER"
)

// Scope is the ownership tag of an image asset: attached to a listing, or
// pending in an upload session. The zero value is invalid; construct through
// AttachedTo / PendingIn so "both set" and "neither set" cannot be expressed.
type Scope struct {
	listingID string
	sessionID string
}

func AttachedTo(listingID string) Scope {
	return Scope{listingID: listingID}
}

func PendingIn(sessionID string) Scope {
	return Scope{sessionID: sessionID}
}

func (s Scope) IsAttached() bool {
	return s.listingID != ""
}

func (s Scope) IsPending() bool {
	return s.sessionID != ""
}

// ListingID returns the owning listing id when the scope is attached.
func (s Scope) ListingID() (string, bool) {
	return s.listingID, s.listingID != ""
}

// SessionID returns the upload session id when the scope is pending.
func (s Scope) SessionID() (string, bool) {
	return s.sessionID, s.sessionID != ""
}

// Equal reports whether two scopes tag the same owner.
func (s Scope) Equal(other Scope) bool {
	return s.listingID == other.listingID && s.sessionID == other.sessionID
}

type ImageAsset struct {
	ID        string
	RemoteURL string
	Scope     Scope
	CreatedAt time.Time
}

type VerificationDocument struct {
	ID           string
	ListingID    string
	DocumentType DocumentType
	RemoteURL    string
	FileName     string
	UploadedBy   string
	CreatedAt    time.Time
}

// VerificationHistoryEntry is an append-only audit record. ReviewedBy is empty
// for system-initiated transitions (resubmission).
type VerificationHistoryEntry struct {
	ID             string
	ListingID      string
	PreviousStatus VerificationStatus
	NewStatus      VerificationStatus
	Notes          string
	ReviewedBy     string
	CreatedAt      time.Time
}

// ListingVerification is the slice of the external listing entity this service
// owns: the verification status and who/when approved it.
type ListingVerification struct {
	ListingID  string
	Status     VerificationStatus
	VerifiedAt *time.Time
	VerifiedBy string
}

// FileUpload is an inbound binary payload, already shape-validated by the
// transport layer.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f FileUpload) Size() int64 {
	return int64(len(f.Data))
}

const RoleAdmin = "admin"

// Principal is the verified caller identity supplied by the auth layer.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
