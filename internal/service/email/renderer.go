package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/domain"
	"rahmah-exchange/internal/pkg/i18n"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	tmplApplicantStatus  = "applicant_status"
	tmplTreasurerPayment = "treasurer_payment"
	tmplCaseRejected     = "case_rejected"
	tmplIntake           = "intake_confirmation"
	tmplAdminNewCase     = "admin_new_case"
	tmplNewMessage       = "new_message"
	tmplMagicLink        = "magic_link"

	previewRunes = 280
)

var templateNames = []string{
	tmplApplicantStatus, tmplTreasurerPayment, tmplCaseRejected,
	tmplIntake, tmplAdminNewCase, tmplNewMessage, tmplMagicLink,
}

// Renderer turns workflow events into ready-to-send email messages.
type Renderer struct {
	appName string
	baseURL string
	locale  string
	html    map[string]*htmltemplate.Template
	text    map[string]*texttemplate.Template
}

func NewRenderer(cfg *config.Config) (*Renderer, error) {
	r := &Renderer{
		appName: cfg.FromName,
		baseURL: strings.TrimRight(cfg.AppBaseURL, "/"),
		locale:  cfg.DefaultLocale,
		html:    make(map[string]*htmltemplate.Template, len(templateNames)),
		text:    make(map[string]*texttemplate.Template, len(templateNames)),
	}
	if r.locale == "" {
		r.locale = i18n.DefaultLocale
	}

	for _, name := range templateNames {
		h, err := htmltemplate.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse email template %s: %w", name, err)
		}
		t, err := texttemplate.ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", name, err)
		}
		r.html[name] = h
		r.text[name] = t
	}

	return r, nil
}

// CaseURL is the staff dashboard link of a case.
func (r *Renderer) CaseURL(caseID string) string {
	return r.baseURL + "/dashboard/cases/" + url.PathEscape(caseID)
}

// PortalLoginURL is the portal page where applicants request a fresh link.
func (r *Renderer) PortalLoginURL() string {
	return r.baseURL + "/portal"
}

// PortalURL is the applicant magic-link URL for a raw token.
func (r *Renderer) PortalURL(token string) string {
	return r.baseURL + "/portal?token=" + url.QueryEscape(token)
}

type envelope struct {
	Locale    string
	Subject   string
	Heading   string
	Greeting  string
	Signature string
	Data      any
}

func (r *Renderer) render(name, to, subject, heading, recipient string, data any) (domain.EmailMessage, error) {
	env := envelope{
		Locale:    r.locale,
		Subject:   subject,
		Heading:   heading,
		Greeting:  i18n.Translatef(r.locale, "email.greeting", recipient),
		Signature: i18n.Translatef(r.locale, "email.signature", r.appName),
		Data:      data,
	}

	var html bytes.Buffer
	if err := r.html[name].ExecuteTemplate(&html, "layout.html", env); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("failed to execute email template %s: %w", name, err)
	}
	var text bytes.Buffer
	if err := r.text[name].Execute(&text, env); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("failed to execute text template %s: %w", name, err)
	}

	return domain.EmailMessage{
		To:      []string{to},
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func (r *Renderer) t(key string, args ...any) string {
	if len(args) == 0 {
		return i18n.Translate(r.locale, key)
	}
	return i18n.Translatef(r.locale, key, args...)
}

// NoteLine is a case note as shown in an email.
type NoteLine struct {
	Author  string
	Type    string
	Date    string
	Content string
	Amount  string
}

func noteLines(notes []domain.CaseNote) []NoteLine {
	lines := make([]NoteLine, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, NoteLine{
			Author:  n.AuthorName,
			Type:    string(n.NoteType),
			Date:    n.CreatedAt.Format("Jan 2, 2006 15:04"),
			Content: n.Content,
			Amount:  money(n.ApprovalAmount),
		})
	}
	return lines
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

type ApplicantStatusInput struct {
	To        string
	Name      string
	CaseID    string
	Status    domain.CaseStatus
	Amount    *decimal.Decimal
	PortalURL string
}

// ApplicantStatus renders the decision email. The amount block only appears
// when Amount is set.
func (r *Renderer) ApplicantStatus(in ApplicantStatusInput) (domain.EmailMessage, error) {
	label := i18n.StatusLabel(r.locale, string(in.Status))
	body := r.t("email.applicant_rejected_body")
	color := "#ef4444"
	if in.Status == domain.StatusApproved {
		body = r.t("email.applicant_approved_body")
		color = "#10b981"
	}

	data := struct {
		CaseID      string
		StatusLabel string
		Body        string
		Color       string
		Amount      string
		AmountLabel string
		PortalURL   string
		PortalLabel string
	}{
		CaseID:      in.CaseID,
		StatusLabel: label,
		Body:        body,
		Color:       color,
		Amount:      money(in.Amount),
		AmountLabel: r.t("email.approved_amount_label"),
		PortalURL:   in.PortalURL,
		PortalLabel: r.t("email.portal_link_label"),
	}

	return r.render(tmplApplicantStatus, in.To,
		r.t("email.applicant_status_subject", in.CaseID, label),
		r.t("email.applicant_status_heading"),
		in.Name, data)
}

type TreasurerPaymentInput struct {
	To            string
	Name          string
	CaseID        string
	ApplicantName string
	ApproverName  string
	Amount        *decimal.Decimal
	Notes         []domain.CaseNote
}

func (r *Renderer) TreasurerPaymentRequired(in TreasurerPaymentInput) (domain.EmailMessage, error) {
	data := struct {
		CaseID        string
		ApplicantName string
		ApproverName  string
		Amount        string
		AmountLabel   string
		Notes         []NoteLine
		NotesLabel    string
		CaseURL       string
	}{
		CaseID:        in.CaseID,
		ApplicantName: in.ApplicantName,
		ApproverName:  in.ApproverName,
		Amount:        money(in.Amount),
		AmountLabel:   r.t("email.approved_amount_label"),
		Notes:         noteLines(in.Notes),
		NotesLabel:    r.t("email.recent_approval_notes"),
		CaseURL:       r.CaseURL(in.CaseID),
	}

	return r.render(tmplTreasurerPayment, in.To,
		r.t("email.treasurer_payment_subject", in.CaseID),
		r.t("email.treasurer_payment_heading"),
		in.Name, data)
}

type CaseRejectedInput struct {
	To            string
	Name          string
	CaseID        string
	ApplicantName string
	RejectedBy    string
	Notes         []domain.CaseNote
}

func (r *Renderer) CaseRejected(in CaseRejectedInput) (domain.EmailMessage, error) {
	data := struct {
		CaseID        string
		ApplicantName string
		RejectedBy    string
		Notes         []NoteLine
		NotesLabel    string
		CaseURL       string
	}{
		CaseID:        in.CaseID,
		ApplicantName: in.ApplicantName,
		RejectedBy:    in.RejectedBy,
		Notes:         noteLines(in.Notes),
		NotesLabel:    r.t("email.recent_notes"),
		CaseURL:       r.CaseURL(in.CaseID),
	}

	return r.render(tmplCaseRejected, in.To,
		r.t("email.case_rejected_subject", in.CaseID),
		r.t("email.case_rejected_heading"),
		in.Name, data)
}

type IntakeConfirmationInput struct {
	To        string
	Name      string
	CaseID    string
	PortalURL string
}

func (r *Renderer) IntakeConfirmation(in IntakeConfirmationInput) (domain.EmailMessage, error) {
	data := struct {
		CaseID      string
		PortalURL   string
		PortalLabel string
	}{in.CaseID, in.PortalURL, r.t("email.portal_link_label")}

	return r.render(tmplIntake, in.To,
		r.t("email.intake_confirmation_subject", in.CaseID),
		r.t("email.intake_confirmation_heading"),
		in.Name, data)
}

type AdminNewCaseInput struct {
	To            string
	Name          string
	Applicant     *domain.Applicant
	DocumentCount int
}

func (r *Renderer) AdminNewCase(in AdminNewCaseInput) (domain.EmailMessage, error) {
	a := in.Applicant
	requestType := ""
	if a.RequestType != nil {
		requestType = *a.RequestType
	}

	data := struct {
		CaseID         string
		ApplicantName  string
		ApplicantEmail string
		RequestType    string
		RequestAmount  string
		DocumentCount  int
		CaseURL        string
	}{
		CaseID:         a.CaseID,
		ApplicantName:  a.FullName(),
		ApplicantEmail: a.Email,
		RequestType:    requestType,
		RequestAmount:  money(a.RequestAmount),
		DocumentCount:  in.DocumentCount,
		CaseURL:        r.CaseURL(a.CaseID),
	}

	return r.render(tmplAdminNewCase, in.To,
		r.t("email.admin_new_case_subject", a.CaseID),
		r.t("email.admin_new_case_heading"),
		in.Name, data)
}

type NewMessageInput struct {
	To         string
	Name       string
	SenderName string
	CaseID     string
	Subject    string
	Body       string
	Link       string
}

func (r *Renderer) NewMessage(in NewMessageInput) (domain.EmailMessage, error) {
	data := struct {
		SenderName string
		CaseID     string
		Subject    string
		Preview    string
		Link       string
	}{in.SenderName, in.CaseID, in.Subject, preview(in.Body), in.Link}

	return r.render(tmplNewMessage, in.To,
		r.t("email.new_message_subject", in.CaseID),
		r.t("email.new_message_heading"),
		in.Name, data)
}

type MagicLinkInput struct {
	To        string
	Name      string
	CaseID    string
	PortalURL string
}

func (r *Renderer) MagicLink(in MagicLinkInput) (domain.EmailMessage, error) {
	data := struct {
		CaseID      string
		PortalURL   string
		PortalLabel string
	}{in.CaseID, in.PortalURL, r.t("email.portal_link_label")}

	return r.render(tmplMagicLink, in.To,
		r.t("email.magic_link_subject", in.CaseID),
		r.t("email.intake_confirmation_heading"),
		in.Name, data)
}

func preview(body string) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= previewRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewRunes]) + "…"
}
