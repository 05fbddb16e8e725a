package mailer

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"time"

	"github.com/emzola/catalog/data"
	"gopkg.in/mail.v2"
)

//go:embed "templates"
var templateFS embed.FS

// The Mailer struct contains a mail.Dialer instance (used to connect to a
// SMTP server) and the sender information for emails (the name and address you
// want the email to be from, such as "Alice Smith <alice@example.com>").
type Mailer struct {
	dialer *mail.Dialer
	sender string
}

// New initializes a new mail.Dialer instance with the given SMTP server settings.
// We also configure this to use a 5-second timeout whenever we send an email.
func New(host string, port int, username, password, sender string) Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second
	return Mailer{
		dialer: dialer,
		sender: sender,
	}
}

// Send renders templateFile with data and sends the result to recipient.
// A single attempt is made.
func (m Mailer) Send(recipient, templateFile string, data interface{}) error {
	msg, err := m.message(recipient, templateFile, data)
	if err != nil {
		return err
	}
	return m.dialer.DialAndSend(msg)
}

// message builds the email from the subject, plainBody and htmlBody
// templates defined in templateFile.
func (m Mailer) message(recipient, templateFile string, data interface{}) (*mail.Message, error) {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return nil, err
	}
	subject := new(bytes.Buffer)
	err = tmpl.ExecuteTemplate(subject, "subject", data)
	if err != nil {
		return nil, err
	}
	plainBody := new(bytes.Buffer)
	err = tmpl.ExecuteTemplate(plainBody, "plainBody", data)
	if err != nil {
		return nil, err
	}
	htmlBody := new(bytes.Buffer)
	err = tmpl.ExecuteTemplate(htmlBody, "htmlBody", data)
	if err != nil {
		return nil, err
	}
	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())
	return msg, nil
}

type sender interface {
	Send(recipient, templateFile string, data interface{}) error
}

// Notifier emails a librarian whenever the catalog changes.
type Notifier struct {
	sender    sender
	recipient string
}

// NewNotifier returns a Notifier that sends through m to recipient.
func NewNotifier(m Mailer, recipient string) *Notifier {
	return &Notifier{sender: m, recipient: recipient}
}

func (n *Notifier) PublishBookCreated(ctx context.Context, book *data.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.sender.Send(n.recipient, "book_created.tmpl", book)
}

func (n *Notifier) PublishBookDeleted(ctx context.Context, bookID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.sender.Send(n.recipient, "book_deleted.tmpl", map[string]int64{"ID": bookID})
}
