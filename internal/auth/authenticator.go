package auth

import (
	"context"

	"github.com/mmynk/receiptsplit/internal/models"
)

// Authenticator turns credentials into a registered user. Receipts refer to
// people only by the user ID it returns: that ID becomes a receipt's creator,
// is bound to a participant on join or claim, and is what AddParticipant
// resolves an email to.
type Authenticator interface {
	// Register creates the account someone later joins receipts with.
	// Emails are stored lowercased and must be unique.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning email when credential matches.
	// Unknown emails and wrong credentials fail alike.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential rejects credentials too weak to register with.
	ValidateCredential(credential string) error
}
