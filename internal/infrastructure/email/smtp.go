package email

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"gopkg.in/gomail.v2"

	"github.com/orris-inc/lineconnect/internal/shared/config"
)

// Message is one outgoing email.
type Message struct {
	To        string
	Subject   string
	HTMLBody  string
	PlainBody string
}

// Sender delivers messages. Tests substitute a recorder.
type Sender interface {
	Send(msg Message) error
}

// WelcomeData fills the welcome email templates.
type WelcomeData struct {
	DisplayName string
	Username    string
	SiteURL     string
	// NoticeHTML is administrator content, already sanitized.
	NoticeHTML template.HTML
}

type SMTPEmailService struct {
	fromAddress string
	fromName    string
	dialer      *gomail.Dialer
}

func NewSMTPEmailService(cfg config.EmailConfig) *SMTPEmailService {
	return &SMTPEmailService{
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		dialer:      gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (s *SMTPEmailService) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromAddress, s.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.PlainBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var welcomeHTML = template.Must(template.New("welcome_html").Parse(`<html>
<body>
	<h2>Welcome{{if .DisplayName}}, {{.DisplayName}}{{end}}!</h2>
	<p>Your account has been created with your LINE login.</p>
	<p>Username: <strong>{{.Username}}</strong></p>
	{{if .NoticeHTML}}<div>{{.NoticeHTML}}</div>{{end}}
	<p><a href="{{.SiteURL}}">{{.SiteURL}}</a></p>
</body>
</html>
`))

var welcomePlain = texttemplate.Must(texttemplate.New("welcome_plain").Parse(`Welcome{{if .DisplayName}}, {{.DisplayName}}{{end}}!

Your account has been created with your LINE login.
Username: {{.Username}}

{{.SiteURL}}
`))

// NewWelcomeMessage renders the email sent after an account is provisioned.
func NewWelcomeMessage(to string, data WelcomeData) (Message, error) {
	var htmlBuf, plainBuf bytes.Buffer
	if err := welcomeHTML.Execute(&htmlBuf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render welcome email: %w", err)
	}
	if err := welcomePlain.Execute(&plainBuf, data); err != nil {
		return Message{}, fmt.Errorf("failed to render welcome email: %w", err)
	}
	return Message{
		To:        to,
		Subject:   "Welcome! Your account is ready",
		HTMLBody:  htmlBuf.String(),
		PlainBody: plainBuf.String(),
	}, nil
}
