package usecase

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/media-service/internal/media/domain"
)

// Storage is the object store the media bytes live in. Metadata rows are only
// written after Put succeeds, and only deleted after Delete succeeds.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyOf(publicURL string) string
}

// ScopeLocker serializes the count-then-insert sequence per session or
// listing. Lock blocks until acquired or ctx expires; the returned function
// releases the lock.
type ScopeLocker interface {
	Lock(ctx context.Context, scope string) (func(), error)
}

// Publisher emits domain events after successful mutations. Publish failures
// are logged and swallowed; events are not part of the consistency contract.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Notifier delivers best-effort notifications; the caller may ignore the
// returned error.
type Notifier interface {
	SendVerificationReviewed(listingID string, status domain.VerificationStatus, notes string) error
}
