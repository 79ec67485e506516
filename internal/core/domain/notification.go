package domain

// TemplateName identifies a notification template.
type TemplateName string

const (
	TemplateVerifyEmail   TemplateName = "verify-email"
	TemplateResetPassword TemplateName = "reset-password"
	TemplateChangeEmail   TemplateName = "change-email"
)

// Notification is a message handed to the notification sink.
type Notification struct {
	To       string
	Subject  string
	Template TemplateName
	Data     map[string]string
}
