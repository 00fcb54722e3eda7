package enums

import "fmt"

// NotificationTemplate identifies the transactional email to render.
type NotificationTemplate string

const (
	NotificationOrderConfirmation NotificationTemplate = "order_confirmation"
	NotificationOrderStatusUpdate NotificationTemplate = "order_status_update"
	NotificationWelcome           NotificationTemplate = "welcome"
	NotificationPasswordReset     NotificationTemplate = "password_reset"
)

var validNotificationTemplates = []NotificationTemplate{
	NotificationOrderConfirmation,
	NotificationOrderStatusUpdate,
	NotificationWelcome,
	NotificationPasswordReset,
}

func (n NotificationTemplate) String() string {
	return string(n)
}

func (n NotificationTemplate) IsValid() bool {
	for _, candidate := range validNotificationTemplates {
		if candidate == n {
			return true
		}
	}
	return false
}

func ParseNotificationTemplate(value string) (NotificationTemplate, error) {
	for _, candidate := range validNotificationTemplates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification template %q", value)
}
