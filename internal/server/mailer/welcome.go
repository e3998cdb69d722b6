// Package mailer delivers the welcome email sent after signup. Emails are
// queued on asynq by a Dispatcher and delivered by a Worker through a
// Sender such as the Resend API.
package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/mail"

	"github.com/dmitrijs2005/chatauth/internal/server/models"
)

// TaskTypeWelcome is the asynq task type of a welcome email.
const TaskTypeWelcome = "email:welcome"

const queueName = "email"

const defaultAppName = "Chatauth"

// WelcomePayload is the JSON body of a TaskTypeWelcome task.
type WelcomePayload struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

func newWelcomePayload(u models.PublicUser) ([]byte, error) {
	return json.Marshal(WelcomePayload{UserID: u.ID, Email: u.Email, FullName: u.FullName})
}

// Message is one outgoing email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #36D1DC;">Welcome to {{.AppName}}!</h1>
    <p>Hello {{.Name}},</p>
    <p>Your account is ready. Connect with friends, family and colleagues in real time.</p>
    <p style="text-align: center; margin: 30px 0;">
      <a href="{{.ClientURL}}" style="background: #36D1DC; color: white; text-decoration: none; padding: 12px 30px; border-radius: 50px; font-weight: 500;">Open {{.AppName}}</a>
    </p>
    <p>If you need any help, just reply to this email.</p>
    <p>Best regards,<br>The {{.AppName}} Team</p>
  </body>
</html>
`))

// WelcomeComposer renders welcome messages for one sender identity.
// AppName names the product in the text; FromName only labels the sender.
type WelcomeComposer struct {
	AppName   string
	From      string
	FromName  string
	ClientURL string
}

// Compose builds the welcome Message for p.
func (c WelcomeComposer) Compose(p WelcomePayload) (Message, error) {
	appName := c.AppName
	if appName == "" {
		appName = defaultAppName
	}

	var body bytes.Buffer
	if err := welcomeTemplate.Execute(&body, struct {
		AppName   string
		Name      string
		ClientURL string
	}{AppName: appName, Name: p.FullName, ClientURL: c.ClientURL}); err != nil {
		return Message{}, fmt.Errorf("render welcome email: %w", err)
	}

	from := c.From
	if c.FromName != "" {
		from = (&mail.Address{Name: c.FromName, Address: c.From}).String()
	}

	return Message{
		From:    from,
		To:      []string{p.Email},
		Subject: "Welcome to " + appName + "!",
		HTML:    body.String(),
	}, nil
}
