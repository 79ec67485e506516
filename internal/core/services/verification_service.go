package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portssvc "github.com/SscSPs/auth_session_service/internal/core/ports/services"
	"github.com/SscSPs/auth_session_service/internal/platform/config"
	"github.com/SscSPs/auth_session_service/internal/utils"
	"go.opentelemetry.io/otel/attribute"
)

// VerificationService issues purpose-scoped tokens and mails links carrying them.
// Each purpose signs with its own secret and records the purpose as audience.
type VerificationService struct {
	BaseService
	issuer      string
	email       utils.SigningKey
	recovery    utils.SigningKey
	changeEmail utils.SigningKey
	templates   config.MailTemplates
	appName     string
	baseURL     string
	notifier    portssvc.Notifier
}

// NewVerificationService creates a VerificationService.
func NewVerificationService(cfg *config.Config, notifier portssvc.Notifier) *VerificationService {
	return &VerificationService{
		issuer:      cfg.JWTIssuer,
		email:       utils.SigningKey{Secret: cfg.EmailTokenSecret, Expiry: cfg.EmailTokenExpiry},
		recovery:    utils.SigningKey{Secret: cfg.RecoveryTokenSecret, Expiry: cfg.RecoveryTokenExpiry},
		changeEmail: utils.SigningKey{Secret: cfg.ChangeEmailTokenSecret, Expiry: cfg.ChangeEmailTokenExpiry},
		templates:   cfg.MailTemplates,
		appName:     cfg.AppName,
		baseURL:     cfg.AppBaseURL,
		notifier:    notifier,
	}
}

var _ portssvc.VerificationSvcFacade = (*VerificationService)(nil)

func (s *VerificationService) IssueEmailToken(_ context.Context, payload domain.EmailTokenPayload) (string, error) {
	token, _, err := utils.SignToken(payload, s.email, s.issuer, string(domain.PurposeEmailVerify))
	return token, err
}

func (s *VerificationService) IssuePasswordToken(_ context.Context, payload domain.RecoveryTokenPayload) (string, error) {
	token, _, err := utils.SignToken(payload, s.recovery, s.issuer, string(domain.PurposePasswordRecovery))
	return token, err
}

func (s *VerificationService) IssueChangeEmailToken(_ context.Context, payload domain.ChangeEmailTokenPayload) (string, error) {
	token, _, err := utils.SignToken(payload, s.changeEmail, s.issuer, string(domain.PurposeChangeEmail))
	return token, err
}

func (s *VerificationService) VerifyEmailToken(ctx context.Context, token string) (*domain.EmailTokenPayload, bool) {
	payload, err := utils.VerifyToken[domain.EmailTokenPayload](token, s.email.Secret, s.issuer, string(domain.PurposeEmailVerify))
	if err != nil {
		s.LogWarn(ctx, "Rejected email verification token", slog.String("error", err.Error()))
		return nil, false
	}
	return payload, true
}

func (s *VerificationService) VerifyPasswordToken(ctx context.Context, token string) (*domain.RecoveryTokenPayload, bool) {
	payload, err := utils.VerifyToken[domain.RecoveryTokenPayload](token, s.recovery.Secret, s.issuer, string(domain.PurposePasswordRecovery))
	if err != nil {
		s.LogWarn(ctx, "Rejected password recovery token", slog.String("error", err.Error()))
		return nil, false
	}
	return payload, true
}

func (s *VerificationService) VerifyChangeEmailToken(ctx context.Context, token string) (*domain.ChangeEmailTokenPayload, bool) {
	payload, err := utils.VerifyToken[domain.ChangeEmailTokenPayload](token, s.changeEmail.Secret, s.issuer, string(domain.PurposeChangeEmail))
	if err != nil {
		s.LogWarn(ctx, "Rejected change email token", slog.String("error", err.Error()))
		return nil, false
	}
	return payload, true
}

// SendVerificationEmail mails an email-verification link to the user's current address.
func (s *VerificationService) SendVerificationEmail(ctx context.Context, user *domain.User) bool {
	ctx, span := s.StartSpan(ctx, "VerificationService.SendVerificationEmail", attribute.String("user.id", user.ID))
	defer span.End()

	token, err := s.IssueEmailToken(ctx, domain.EmailTokenPayload{UserID: user.ID, Email: user.Email})
	if err != nil {
		s.LogError(ctx, err, "Failed to issue email verification token", slog.String("user_id", user.ID))
		return false
	}
	return s.send(ctx, domain.Notification{
		To:       user.Email,
		Subject:  fmt.Sprintf("%s: confirm your email address", s.appName),
		Template: domain.TemplateName(s.templates.VerifyEmail),
		Data:     s.templateData(user, s.link("/verify-email", token)),
	})
}

// SendPasswordRecoveryEmail mails a password-reset link to the user.
func (s *VerificationService) SendPasswordRecoveryEmail(ctx context.Context, user *domain.User) bool {
	ctx, span := s.StartSpan(ctx, "VerificationService.SendPasswordRecoveryEmail", attribute.String("user.id", user.ID))
	defer span.End()

	token, err := s.IssuePasswordToken(ctx, domain.RecoveryTokenPayload{UserID: user.ID})
	if err != nil {
		s.LogError(ctx, err, "Failed to issue password recovery token", slog.String("user_id", user.ID))
		return false
	}
	return s.send(ctx, domain.Notification{
		To:       user.Email,
		Subject:  fmt.Sprintf("%s: reset your password", s.appName),
		Template: domain.TemplateName(s.templates.ResetPassword),
		Data:     s.templateData(user, s.link("/reset-password", token)),
	})
}

// SendChangeEmail mails a confirmation link to the requested new address.
func (s *VerificationService) SendChangeEmail(ctx context.Context, user *domain.User, newEmail string) bool {
	ctx, span := s.StartSpan(ctx, "VerificationService.SendChangeEmail", attribute.String("user.id", user.ID))
	defer span.End()

	token, err := s.IssueChangeEmailToken(ctx, domain.ChangeEmailTokenPayload{UserID: user.ID, NewEmail: newEmail})
	if err != nil {
		s.LogError(ctx, err, "Failed to issue change email token", slog.String("user_id", user.ID))
		return false
	}
	data := s.templateData(user, s.link("/change-email", token))
	data["newEmail"] = newEmail
	return s.send(ctx, domain.Notification{
		To:       newEmail,
		Subject:  fmt.Sprintf("%s: confirm your new email address", s.appName),
		Template: domain.TemplateName(s.templates.ChangeEmail),
		Data:     data,
	})
}

// send hands n to the notifier; failures are logged and reported as false.
func (s *VerificationService) send(ctx context.Context, n domain.Notification) bool {
	if err := s.notifier.Send(ctx, n); err != nil {
		s.LogError(ctx, err, "Failed to send notification", slog.String("template", string(n.Template)))
		return false
	}
	return true
}

func (s *VerificationService) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}

func (s *VerificationService) templateData(user *domain.User, link string) map[string]string {
	return map[string]string{
		"appName":  s.appName,
		"username": user.Username,
		"email":    user.Email,
		"link":     link,
	}
}
