package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/dukerupert/mailinglist/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service renders templated emails and sends them through a Client.
type Service struct {
	client    *Client
	listName  string
	templates *template.Template
}

// NewService creates a new email service
func NewService(client *Client, listName string) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &Service{
		client:    client,
		listName:  listName,
		templates: tmpl,
	}, nil
}

// SendWelcome sends the welcome email to a new subscriber.
func (s *Service) SendWelcome(ctx context.Context, to domain.SubscriberEmail, name domain.SubscriberName) error {
	data := WelcomeEmail{Name: name.String(), ListName: s.listName}

	htmlBody, textBody, err := s.renderTemplate(data)
	if err != nil {
		return fmt.Errorf("failed to render welcome template: %w", err)
	}

	if err := s.client.Send(ctx, to, data.Subject(), htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	return nil
}

func (s *Service) renderTemplate(data EmailTemplate) (string, string, error) {
	var htmlBuf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&htmlBuf, data.TemplateName(), data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", data.TemplateName(), err)
	}

	htmlBody := htmlBuf.String()
	return htmlBody, generatePlainText(htmlBody), nil
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(body string) string {
	text := body

	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text, ">")
		if start >= 0 && end > start {
			text = text[:start] + text[end+1:]
		} else {
			break
		}
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = html.UnescapeString(text)

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
