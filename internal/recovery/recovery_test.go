package recovery

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tidyhome/auth-service/internal/mailer"
	"tidyhome/auth-service/internal/models"
	"tidyhome/auth-service/internal/store"
	"tidyhome/auth-service/internal/store/memory"
)

type captureSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	fail     bool
}

func (c *captureSender) Send(ctx context.Context, msg mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("smtp unavailable")
	}
	c.messages = append(c.messages, msg)
	return nil
}

func register(t *testing.T, st *memory.Store, email, role string) models.Profile {
	t.Helper()
	profile, err := st.Register(context.Background(), store.RegisterInput{
		Email:    email,
		Password: "Str0ng!Pass",
		Role:     role,
		FullName: "Test Person",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return profile
}

func TestInitiateUnknownEmail(t *testing.T) {
	sender := &captureSender{}
	initiator := NewInitiator(memory.NewStore(), sender, "https://tidyhome.test")

	if initiator.Initiate(context.Background(), "ghost@x.com") {
		t.Fatal("unknown email must not start a reset")
	}
	if len(sender.messages) != 0 {
		t.Fatalf("no mail expected, got %d", len(sender.messages))
	}
}

func TestInitiateCustomerGetsResetLink(t *testing.T) {
	st := memory.NewStore()
	sender := &captureSender{}
	initiator := NewInitiator(st, sender, "https://tidyhome.test")
	register(t, st, "a@x.com", models.RoleCustomer)

	if !initiator.Initiate(context.Background(), "a@x.com") {
		t.Fatal("expected reset to start")
	}
	if len(sender.messages) != 1 {
		t.Fatalf("expected one mail, got %d", len(sender.messages))
	}
	msg := sender.messages[0]
	if msg.Template != mailer.TemplatePasswordReset {
		t.Errorf("template %q", msg.Template)
	}
	if msg.Metadata["reset_url"] != "https://tidyhome.test/reset-password" {
		t.Errorf("reset url %q", msg.Metadata["reset_url"])
	}
}

func TestInitiateAdminGetsTemporaryCredential(t *testing.T) {
	st := memory.NewStore()
	sender := &captureSender{}
	initiator := NewInitiator(st, sender, "https://tidyhome.test")
	admin := register(t, st, "admin@x.com", models.RoleAdmin)

	if !initiator.Initiate(context.Background(), "admin@x.com") {
		t.Fatal("expected reset to start")
	}
	if len(sender.messages) != 1 {
		t.Fatalf("expected one mail, got %d", len(sender.messages))
	}
	msg := sender.messages[0]
	if msg.Template != mailer.TemplateTempCredential {
		t.Fatalf("template %q", msg.Template)
	}
	tempPassword := msg.Metadata["temp_password"]
	if tempPassword == "" {
		t.Fatal("expected a one-time password in the mail")
	}

	// The mailed password signs the admin in through the fallback.
	result, err := st.SignIn(context.Background(), store.SignInInput{
		Email:    "admin@x.com",
		Password: tempPassword,
	})
	if err != nil {
		t.Fatalf("fallback sign-in with mailed credential: %v", err)
	}
	if !result.Temporary || result.Profile.ProfileID != admin.ProfileID {
		t.Errorf("unexpected fallback result: %+v", result)
	}
}

func TestInitiateSendFailure(t *testing.T) {
	st := memory.NewStore()
	sender := &captureSender{fail: true}
	initiator := NewInitiator(st, sender, "https://tidyhome.test")
	register(t, st, "a@x.com", models.RoleCustomer)

	if initiator.Initiate(context.Background(), "a@x.com") {
		t.Fatal("failed dispatch must report false")
	}
}
