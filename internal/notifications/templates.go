package notifications

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"text/template"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/SscSPs/auth_session_service/internal/platform/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer renders notification bodies from the embedded templates. Templates
// are looked up by name, so "verify-email" reads templates/verify-email.tmpl.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Option("missingkey=error").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the template registered for name.
func (r *Renderer) Render(name domain.TemplateName, data map[string]string) (string, error) {
	t := r.tmpl.Lookup(string(name) + ".tmpl")
	if t == nil {
		return "", fmt.Errorf("unknown notification template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}
	return buf.String(), nil
}

// CheckConfigured fails for every configured template name with no embedded template.
func (r *Renderer) CheckConfigured(templates config.MailTemplates) error {
	var errs []error
	for setting, name := range map[string]string{
		"MAIL_TEMPLATE_VERIFY_EMAIL":   templates.VerifyEmail,
		"MAIL_TEMPLATE_RESET_PASSWORD": templates.ResetPassword,
		"MAIL_TEMPLATE_CHANGE_EMAIL":   templates.ChangeEmail,
	} {
		if r.tmpl.Lookup(name+".tmpl") == nil {
			errs = append(errs, fmt.Errorf("%s: unknown notification template %q", setting, name))
		}
	}
	return errors.Join(errs...)
}
