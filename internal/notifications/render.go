package notifications

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	"github.com/angelmondragon/pharmacy-backend/pkg/mailer"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Renderer turns notifications into mailer messages using the embedded templates.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func NewRenderer() (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &Renderer{html: html, text: text}, nil
}

func (r *Renderer) Render(n Notification) (mailer.Message, error) {
	subject, err := subjectFor(n)
	if err != nil {
		return mailer.Message{}, err
	}
	if n.Recipient.Email == "" {
		return mailer.Message{}, fmt.Errorf("%s: recipient email missing", n.Template)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := r.html.ExecuteTemplate(&htmlBuf, string(n.Template)+".html", n); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s html: %w", n.Template, err)
	}
	if err := r.text.ExecuteTemplate(&textBuf, string(n.Template)+".txt", n); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s text: %w", n.Template, err)
	}

	return mailer.Message{
		ToEmail:   n.Recipient.Email,
		ToName:    n.Recipient.Name,
		Subject:   subject,
		PlainText: textBuf.String(),
		HTML:      htmlBuf.String(),
	}, nil
}

func subjectFor(n Notification) (string, error) {
	switch n.Template {
	case enums.NotificationOrderConfirmation:
		if n.Order == nil {
			return "", fmt.Errorf("%s: order missing", n.Template)
		}
		return "Order Confirmation - #" + n.Order.OrderNumber, nil
	case enums.NotificationOrderStatusUpdate:
		if n.Order == nil {
			return "", fmt.Errorf("%s: order missing", n.Template)
		}
		return "Order #" + n.Order.OrderNumber + " - Status Update", nil
	case enums.NotificationWelcome:
		return "Welcome to AL AMEEN PHARMACY!", nil
	case enums.NotificationPasswordReset:
		if n.ResetURL == "" {
			return "", fmt.Errorf("%s: reset url missing", n.Template)
		}
		return "Password Reset Request - AL AMEEN PHARMACY", nil
	default:
		return "", fmt.Errorf("unknown notification template %q", n.Template)
	}
}
