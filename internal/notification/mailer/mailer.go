// Package mailer renders the outbound notification messages. It owns the
// subjects and templates; delivery policy lives in the queue.
package mailer

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	contactmodels "msmeclinic/internal/contact/models"
	"msmeclinic/internal/registration/models"
)

const (
	SubjectConfirmation = "Registration Confirmation - MSME Clinic"
	SubjectOpsAlert     = "New Registration Alert - MSME Clinic"
	SubjectStatusUpdate = "Registration Status Update - MSME Clinic"
	SubjectContact      = "New Contact Form Submission - MSME Clinic"
)

// Email is a fully rendered message ready for enqueueing.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer renders notification emails for the clinic.
type Mailer struct {
	fromName string
}

func New(fromName string) *Mailer {
	if fromName == "" {
		fromName = "MSME Clinic"
	}
	return &Mailer{fromName: fromName}
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c5f2d;">Registration Confirmed</h2>
  <p>Dear {{.FullName}},</p>
  <p>Thank you for registering for the MSME Clinic. Your registration has been received.</p>
  <table style="border-collapse: collapse; width: 100%;">
    <tr><td style="padding: 6px; font-weight: bold;">Registration ID</td><td style="padding: 6px;">{{.RegistrationID}}</td></tr>
    <tr><td style="padding: 6px; font-weight: bold;">Participant ID</td><td style="padding: 6px;">{{.ParticipantID}}</td></tr>
    <tr><td style="padding: 6px; font-weight: bold;">Business Name</td><td style="padding: 6px;">{{.BusinessName}}</td></tr>
    <tr><td style="padding: 6px; font-weight: bold;">Business Type</td><td style="padding: 6px;">{{.BusinessType}}</td></tr>
  </table>
  <p>Please keep your registration ID for your records. We will contact you with session details.</p>
  <p>Best regards,<br>{{.FromName}} Team</p>
</div>`))

var opsAlertTmpl = template.Must(template.New("opsAlert").Parse(`
<div style="font-family: Arial, sans-serif;">
  <h2>New Registration</h2>
  <ul>
    <li><b>Registration ID:</b> {{.RegistrationID}}</li>
    <li><b>Name:</b> {{.FullName}}</li>
    <li><b>Email:</b> {{.Email}}</li>
    <li><b>Phone:</b> {{.Phone}}</li>
    <li><b>Business:</b> {{.BusinessName}} ({{.BusinessType}})</li>
    <li><b>Years in business:</b> {{.YearsInBusiness}}</li>
    <li><b>Available from:</b> {{.AvailableFrom}}</li>
  </ul>
</div>`))

var statusUpdateTmpl = template.Must(template.New("statusUpdate").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c5f2d;">Registration Status Update</h2>
  <p>Dear {{.FullName}},</p>
  <p>The status of your registration <b>{{.RegistrationID}}</b> has been updated to <b>{{.Status}}</b>.</p>
  <p>If you have questions, reply to this email.</p>
  <p>Best regards,<br>{{.FromName}} Team</p>
</div>`))

var contactTmpl = template.Must(template.New("contact").Parse(`
<div style="font-family: Arial, sans-serif;">
  <h2>New Contact Form Submission</h2>
  <ul>
    <li><b>From:</b> {{.FullName}} &lt;{{.Email}}&gt;</li>
    <li><b>Subject:</b> {{.Subject}}</li>
  </ul>
  <p style="white-space: pre-wrap;">{{.Body}}</p>
</div>`))

type confirmationData struct {
	FullName       string
	RegistrationID string
	ParticipantID  string
	BusinessName   string
	BusinessType   string
	FromName       string
}

type opsAlertData struct {
	RegistrationID  string
	FullName        string
	Email           string
	Phone           string
	BusinessName    string
	BusinessType    string
	YearsInBusiness string
	AvailableFrom   string
}

type statusUpdateData struct {
	FullName       string
	RegistrationID string
	Status         string
	FromName       string
}

type contactData struct {
	FullName string
	Email    string
	Subject  string
	Body     string
}

// Confirmation renders the applicant-facing confirmation email.
func (m *Mailer) Confirmation(reg *models.Registration) (Email, error) {
	return m.render(reg.Email, SubjectConfirmation, confirmationTmpl, confirmationData{
		FullName:       reg.FullName(),
		RegistrationID: reg.RegistrationID,
		ParticipantID:  reg.ParticipantID,
		BusinessName:   reg.BusinessName,
		BusinessType:   reg.BusinessType,
		FromName:       m.fromName,
	})
}

// OpsAlert renders the internal new-registration alert.
func (m *Mailer) OpsAlert(to string, reg *models.Registration) (Email, error) {
	return m.render(to, SubjectOpsAlert, opsAlertTmpl, opsAlertData{
		RegistrationID:  reg.RegistrationID,
		FullName:        reg.FullName(),
		Email:           reg.Email,
		Phone:           reg.Phone,
		BusinessName:    reg.BusinessName,
		BusinessType:    reg.BusinessType,
		YearsInBusiness: reg.YearsInBusiness,
		AvailableFrom:   reg.AvailableFrom,
	})
}

// StatusUpdate renders the applicant-facing status change email.
func (m *Mailer) StatusUpdate(reg *models.Registration) (Email, error) {
	return m.render(reg.Email, SubjectStatusUpdate, statusUpdateTmpl, statusUpdateData{
		FullName:       reg.FullName(),
		RegistrationID: reg.RegistrationID,
		Status:         string(reg.Status),
		FromName:       m.fromName,
	})
}

// ContactNotification renders the admin-facing contact form alert.
func (m *Mailer) ContactNotification(to string, msg *contactmodels.Message) (Email, error) {
	return m.render(to, SubjectContact, contactTmpl, contactData{
		FullName: msg.FullName(),
		Email:    msg.Email,
		Subject:  msg.Subject,
		Body:     msg.Message,
	})
}

func (m *Mailer) render(to, subject string, tmpl *template.Template, data any) (Email, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return Email{}, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	html := sb.String()
	return Email{To: to, Subject: subject, HTML: html, Text: plainText(html)}, nil
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`[ \t]+`)
	blankRe = regexp.MustCompile(`\n{3,}`)
)

// plainText derives the text alternative by stripping markup, for channels
// and clients that cannot render HTML.
func plainText(html string) string {
	text := strings.ReplaceAll(html, "</li>", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</tr>", "\n")
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = tagRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&#34;", `"`)
	text = spaceRe.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
