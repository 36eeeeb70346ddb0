package mailer

import (
	"strings"

	"tidyhome/auth-service/internal/models"
)

const (
	TemplateWelcomeAdmin    = "welcome_admin"
	TemplateWelcomeProvider = "welcome_provider"
	TemplateWelcomeCustomer = "welcome_customer"
	TemplatePasswordReset   = "password_reset"
	TemplateTempCredential  = "temporary_credential"
)

// WelcomeTemplate picks the role-specific welcome template.
func WelcomeTemplate(role string) string {
	switch role {
	case models.RoleAdmin:
		return TemplateWelcomeAdmin
	case models.RoleProvider:
		return TemplateWelcomeProvider
	default:
		return TemplateWelcomeCustomer
	}
}

type template struct {
	subject string
	body    string
}

var templates = map[string]template{
	TemplateWelcomeAdmin: {
		subject: "Your TidyHome admin account",
		body:    "Hi {full_name}, your admin console is ready. Activate your account: {activation_url}",
	},
	TemplateWelcomeProvider: {
		subject: "Welcome to TidyHome, {full_name}",
		body:    "Hi {full_name}, you can now accept cleaning jobs. Activate your account: {activation_url}",
	},
	TemplateWelcomeCustomer: {
		subject: "Welcome to TidyHome",
		body:    "Hi {full_name}, your home just got easier to keep clean. Activate your account: {activation_url}",
	},
	TemplatePasswordReset: {
		subject: "Reset your TidyHome password",
		body:    "Hi {full_name}, follow this link to choose a new password: {reset_url}",
	},
	TemplateTempCredential: {
		subject: "Your temporary TidyHome sign-in",
		body:    "Hi {full_name}, sign in with this one-time password within 24 hours: {temp_password}",
	},
}

// Render fills {placeholder} slots in the named template from metadata.
func Render(name string, metadata map[string]string) (subject, body string, err error) {
	tpl, ok := templates[name]
	if !ok {
		return "", "", ErrUnknownTemplate
	}
	subject = tpl.subject
	body = tpl.body
	for key, value := range metadata {
		subject = strings.ReplaceAll(subject, "{"+key+"}", value)
		body = strings.ReplaceAll(body, "{"+key+"}", value)
	}
	return subject, body, nil
}
