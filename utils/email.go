package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/smtp"
	"strconv"

	"alumni_events/config"

	"github.com/jordan-wright/email"
	"gopkg.in/gomail.v2"
)

// RegistrationEmailData feeds the confirmation and waitlist templates.
type RegistrationEmailData struct {
	Name        string
	EventTitle  string
	EventDate   string
	Venue       string
	TicketType  string
	PublicCode  string
	Position    int
	OfferExpiry string
	DetailLink  string
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<h2>Registration confirmed</h2>
<p>Dear {{.Name}},</p>
<p>Your spot at <strong>{{.EventTitle}}</strong> on {{.EventDate}} at {{.Venue}} is confirmed.</p>
<p>Registration code: <strong>{{.PublicCode}}</strong> ({{.TicketType}})</p>
<p>Your badge QR code is attached. Present it at the check-in desk.</p>
<p><a href="{{.DetailLink}}">View your registration</a></p>
`))

var waitlistTmpl = template.Must(template.New("waitlist").Parse(`
<h2>You're on the waitlist</h2>
<p>Dear {{.Name}},</p>
<p><strong>{{.EventTitle}}</strong> is fully booked. You are number <strong>{{.Position}}</strong> on the waitlist.</p>
<p>We will email you as soon as a spot opens up.</p>
`))

var promotionTmpl = template.Must(template.New("promotion").Parse(`
<h2>A spot opened up!</h2>
<p>Dear {{.Name}},</p>
<p>A seat for <strong>{{.EventTitle}}</strong> on {{.EventDate}} is now yours.</p>
{{if .OfferExpiry}}<p>Complete payment before <strong>{{.OfferExpiry}}</strong> to keep it. After that the seat goes to the next person in line.</p>{{end}}
<p><a href="{{.DetailLink}}">Complete your registration</a></p>
`))

func sendHTML(to, subject string, tmpl *template.Template, data RegistrationEmailData, attachments map[string][]byte) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return err
	}

	host := config.Config("SMTP_HOST")
	port, _ := strconv.Atoi(config.Config("SMTP_PORT"))
	username := config.Config("SMTP_USERNAME")
	password := config.Config("SMTP_PASSWORD")
	from := config.Config("SMTP_FROM")

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	for filename, content := range attachments {
		payload := content
		m.Attach(filename, gomail.Rename(filename), gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(payload))
			return err
		}))
	}

	d := gomail.NewDialer(host, port, username, password)
	return d.DialAndSend(m)
}

// SendConfirmationEmail mails a confirmed registration, with the badge QR
// attached when one is provided.
func SendConfirmationEmail(to string, data RegistrationEmailData, qrPNG []byte) error {
	attachments := map[string][]byte{}
	if len(qrPNG) > 0 {
		attachments[fmt.Sprintf("Badge_%s.png", data.PublicCode)] = qrPNG
	}
	return sendHTML(to, "Registration confirmed: "+data.EventTitle, confirmationTmpl, data, attachments)
}

func SendWaitlistEmail(to string, data RegistrationEmailData) error {
	return sendHTML(to, "You're on the waitlist for "+data.EventTitle, waitlistTmpl, data, nil)
}

func SendPromotionEmail(to string, data RegistrationEmailData) error {
	return sendHTML(to, "A spot opened up for "+data.EventTitle, promotionTmpl, data, nil)
}

// SendPasswordResetEmail uses the plain-text sender; no templates needed here.
func SendPasswordResetEmail(to, resetLink string) error {
	host := config.Config("SMTP_HOST")
	port := config.Config("SMTP_PORT")
	username := config.Config("SMTP_USERNAME")
	password := config.Config("SMTP_PASSWORD")

	e := email.NewEmail()
	e.From = config.Config("SMTP_FROM")
	e.To = []string{to}
	e.Subject = "Password reset"
	e.Text = []byte(fmt.Sprintf("Click the link to reset your password: %s", resetLink))
	return e.Send(host+":"+port, smtp.PlainAuth("", username, password, host))
}
