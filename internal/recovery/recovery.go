// Package recovery starts the password-reset flow for an email address.
package recovery

import (
	"context"
	"log"

	"tidyhome/auth-service/internal/mailer"
	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/store"

	"github.com/google/uuid"
)

// Initiator issues recovery mail. Admin accounts receive a 24-hour
// single-use temporary credential usable through the sign-in fallback;
// other roles receive a reset link.
type Initiator struct {
	store   store.Store
	mailer  mailer.Sender
	baseURL string
}

func NewInitiator(st store.Store, sender mailer.Sender, baseURL string) *Initiator {
	return &Initiator{store: st, mailer: sender, baseURL: baseURL}
}

// Initiate reports whether a reset was started. A missing profile or a
// failed dispatch both come back false; the caller surfaces a single
// generic failure either way.
func (i *Initiator) Initiate(ctx context.Context, email string) bool {
	profile, err := i.store.GetProfileByEmail(ctx, email)
	if err != nil {
		if err != store.ErrProfileNotFound {
			log.Printf("password reset lookup failed: %v", err)
		}
		return false
	}

	msg := mailer.Message{To: profile.Email}
	if profile.Role == models.RoleAdmin {
		tempPassword := uuid.NewString()
		if _, err := i.store.IssueTemporaryCredential(ctx, profile.ProfileID, tempPassword, store.TemporaryTTL); err != nil {
			log.Printf("temporary credential issue failed: %v", err)
			return false
		}
		msg.Template = mailer.TemplateTempCredential
		msg.Metadata = map[string]string{
			"full_name":     profile.FullName,
			"temp_password": tempPassword,
		}
	} else {
		msg.Template = mailer.TemplatePasswordReset
		msg.Metadata = map[string]string{
			"full_name": profile.FullName,
			"reset_url": i.baseURL + "/reset-password",
		}
	}

	if err := i.mailer.Send(ctx, msg); err != nil {
		log.Printf("password reset mail failed: %v", err)
		return false
	}
	return true
}
