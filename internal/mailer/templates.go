package mailer

import (
	"bytes"
	"html/template"

	"go.uber.org/zap"
)

// Email is a rendered subject and HTML body.
type Email struct {
	Subject string
	HTML    string
}

const layout = `<!DOCTYPE html>
<html lang="tr">
<body style="margin:0;padding:24px;background:#f4f5f7;font-family:Arial,Helvetica,sans-serif;color:#1f2937">
  <div style="max-width:560px;margin:0 auto;background:#ffffff;border-radius:8px;padding:32px">
    <h2 style="margin-top:0;color:#0f766e">{{.Heading}}</h2>
    {{.Body}}
    {{if .Link}}<p style="margin:28px 0"><a href="{{.Link}}" style="background:#0f766e;color:#ffffff;padding:12px 20px;border-radius:6px;text-decoration:none">{{.LinkText}}</a></p>{{end}}
    <p style="margin-top:32px;font-size:12px;color:#6b7280">Bu e-posta Şikayetim platformu tarafından otomatik olarak gönderildi.</p>
  </div>
</body>
</html>`

var layoutTmpl = template.Must(template.New("layout").Parse(layout))

var bodies = map[string]*template.Template{
	"verification_code": template.Must(template.New("verification_code").Parse(
		`<p>Merhaba {{.Name}},</p><p>E-posta adresinizi doğrulamak için kodunuz:</p>` +
			`<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>` +
			`<p>Kod 15 dakika boyunca geçerlidir.</p>`)),
	"company_approved": template.Must(template.New("company_approved").Parse(
		`<p>Merhaba {{.Name}},</p><p><strong>{{.Company}}</strong> firması onaylandı. Artık firmanız adına şikayetlere yanıt verebilirsiniz.</p>`)),
	"company_revoked": template.Must(template.New("company_revoked").Parse(
		`<p>Merhaba {{.Name}},</p><p><strong>{{.Company}}</strong> firmasının onayı kaldırıldı. Firma hesabınız yeniden onaylanana kadar beklemede kalacaktır.</p>`)),
	"verification_approved": template.Must(template.New("verification_approved").Parse(
		`<p>Merhaba {{.Name}},</p><p><strong>{{.Company}}</strong> firma temsilcisi başvurunuz onaylandı.</p>`)),
	"verification_rejected": template.Must(template.New("verification_rejected").Parse(
		`<p>Merhaba {{.Name}},</p><p><strong>{{.Company}}</strong> firma temsilcisi başvurunuz reddedildi.</p>` +
			`{{if .Note}}<p>Not: {{.Note}}</p>{{end}}`)),
	"company_request_approved": template.Must(template.New("company_request_approved").Parse(
		`<p>Merhaba {{.Name}},</p><p>Eklenmesini istediğiniz <strong>{{.Company}}</strong> firması platforma eklendi.</p>`)),
	"company_request_rejected": template.Must(template.New("company_request_rejected").Parse(
		`<p>Merhaba {{.Name}},</p><p><strong>{{.Company}}</strong> firma ekleme talebiniz reddedildi.</p>` +
			`{{if .Note}}<p>Not: {{.Note}}</p>{{end}}`)),
	"complaint_answered": template.Must(template.New("complaint_answered").Parse(
		`<p>Merhaba {{.Name}},</p><p><strong>{{.Company}}</strong> "{{.Title}}" başlıklı şikayetinize yanıt verdi.</p>`)),
	"rating_received": template.Must(template.New("rating_received").Parse(
		`<p>Merhaba {{.Name}},</p><p><strong>{{.Company}}</strong> firmanız yeni bir değerlendirme aldı: <strong>{{.Rating}}/5</strong></p>` +
			`{{if .Message}}<blockquote style="border-left:3px solid #0f766e;margin:0;padding-left:12px">{{.Message}}</blockquote>{{end}}`)),
	"smtp_test": template.Must(template.New("smtp_test").Parse(
		`<p>SMTP ayarlarınız çalışıyor. Bu bir test e-postasıdır.</p><p>Sunucu: {{.Host}}:{{.Port}}</p>`)),
}

type layoutData struct {
	Heading  string
	Body     template.HTML
	Link     string
	LinkText string
}

func render(name, subject, heading, link, linkText string, data interface{}) Email {
	var body bytes.Buffer
	if err := bodies[name].Execute(&body, data); err != nil {
		zap.L().Error("Failed to render email body", zap.String("template", name), zap.Error(err))
		return Email{Subject: subject, HTML: template.HTMLEscapeString(heading)}
	}

	var out bytes.Buffer
	err := layoutTmpl.Execute(&out, layoutData{
		Heading:  heading,
		Body:     template.HTML(body.String()),
		Link:     link,
		LinkText: linkText,
	})
	if err != nil {
		zap.L().Error("Failed to render email layout", zap.String("template", name), zap.Error(err))
		return Email{Subject: subject, HTML: body.String()}
	}
	return Email{Subject: subject, HTML: out.String()}
}

// Templates renders every transactional email. Links are built from the public base URL.
type Templates struct {
	baseURL string
}

func NewTemplates(baseURL string) *Templates {
	return &Templates{baseURL: baseURL}
}

func (t *Templates) VerificationCode(name, code string) Email {
	return render("verification_code", "E-posta doğrulama kodunuz", "E-posta doğrulama", "", "",
		map[string]string{"Name": name, "Code": code})
}

func (t *Templates) CompanyApproved(name, company, companySlug string) Email {
	return render("company_approved", company+" firması onaylandı", "Firmanız onaylandı",
		t.baseURL+"/firma/"+companySlug, "Firma sayfasına git",
		map[string]string{"Name": name, "Company": company})
}

func (t *Templates) CompanyRevoked(name, company string) Email {
	return render("company_revoked", company+" firma onayı kaldırıldı", "Firma onayı kaldırıldı", "", "",
		map[string]string{"Name": name, "Company": company})
}

func (t *Templates) VerificationApproved(name, company string) Email {
	return render("verification_approved", "Firma temsilcisi başvurunuz onaylandı", "Başvurunuz onaylandı",
		t.baseURL+"/firma-paneli", "Firma paneline git",
		map[string]string{"Name": name, "Company": company})
}

func (t *Templates) VerificationRejected(name, company, note string) Email {
	return render("verification_rejected", "Firma temsilcisi başvurunuz reddedildi", "Başvurunuz reddedildi", "", "",
		map[string]string{"Name": name, "Company": company, "Note": note})
}

func (t *Templates) CompanyRequestApproved(name, company, companySlug string) Email {
	return render("company_request_approved", company+" platforma eklendi", "Firma talebiniz onaylandı",
		t.baseURL+"/firma/"+companySlug, "Firmayı görüntüle",
		map[string]string{"Name": name, "Company": company})
}

func (t *Templates) CompanyRequestRejected(name, company, note string) Email {
	return render("company_request_rejected", "Firma ekleme talebiniz reddedildi", "Firma talebiniz reddedildi", "", "",
		map[string]string{"Name": name, "Company": company, "Note": note})
}

func (t *Templates) ComplaintAnswered(name, company, title, complaintID string) Email {
	return render("complaint_answered", "Şikayetinize yanıt geldi", "Şikayetinize yanıt verildi",
		t.baseURL+"/sikayet/"+complaintID, "Yanıtı görüntüle",
		map[string]string{"Name": name, "Company": company, "Title": title})
}

func (t *Templates) RatingReceived(name, company string, rating int, message string) Email {
	return render("rating_received", company+" yeni bir değerlendirme aldı", "Yeni değerlendirme",
		t.baseURL+"/firma-paneli", "Firma paneline git",
		map[string]interface{}{"Name": name, "Company": company, "Rating": rating, "Message": message})
}

func (t *Templates) SMTPTest(cfg Config) Email {
	return render("smtp_test", "SMTP test e-postası", "SMTP testi başarılı", "", "",
		map[string]interface{}{"Host": cfg.Host, "Port": cfg.Port})
}
