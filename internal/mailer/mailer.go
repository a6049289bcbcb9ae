package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sikayetim/backend/internal/config"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// Result codes
const (
	CodeNoConfig          = "NO_CONFIG"
	CodeTimeout           = "TIMEOUT"
	CodeAuthFailed        = "AUTH_FAILED"
	CodeConnectionRefused = "CONNECTION_REFUSED"
	CodeSenderRejected    = "SENDER_REJECTED"
	CodeUnknown           = "UNKNOWN"
)

// Config is the effective SMTP configuration. It is also the JSON shape of the "smtp" app setting.
type Config struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	User   string `json:"user"`
	Pass   string `json:"pass"`
	From   string `json:"from"`
	Secure bool   `json:"secure"`
}

func (c Config) usable() bool {
	return c.Host != "" && c.sender() != ""
}

func (c Config) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.User
}

// UsesSSL is true for implicit TLS, either requested or implied by port 465.
func (c Config) UsesSSL() bool {
	return c.Secure || c.Port == 465
}

// Result describes one send attempt. Send never fails in any other way.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// Transport delivers one HTML message.
type Transport interface {
	Send(ctx context.Context, cfg Config, to, subject, html string) error
}

// SettingsSource reads admin-saved settings; repository.SettingRepository satisfies it.
type SettingsSource interface {
	Get(key string, dest interface{}) (bool, error)
}

type Mailer struct {
	env       Config
	settings  SettingsSource
	transport Transport
	onResult  func(code string)
}

func New(env config.SMTPConfig, settings SettingsSource) *Mailer {
	return &Mailer{
		env: Config{
			Host:   env.Host,
			Port:   env.Port,
			User:   env.User,
			Pass:   env.Pass,
			From:   env.From,
			Secure: env.Secure,
		},
		settings:  settings,
		transport: goMailTransport{},
	}
}

// WithTransport swaps the delivery mechanism.
func (m *Mailer) WithTransport(t Transport) *Mailer {
	m.transport = t
	return m
}

// OnResult registers a callback invoked with the result code of every attempt.
func (m *Mailer) OnResult(fn func(code string)) {
	m.onResult = fn
}

// ResolveConfig prefers the database setting when it names a host, then the environment.
// source is "database", "env" or "" when nothing is configured.
func (m *Mailer) ResolveConfig() (cfg Config, source string) {
	if m.settings != nil {
		var stored Config
		found, err := m.settings.Get(domain.SettingSMTP, &stored)
		if err != nil {
			zap.L().Warn("Failed to read SMTP setting, falling back to env", zap.Error(err))
		} else if found && stored.Host != "" {
			if stored.Port == 0 {
				stored.Port = 587
			}
			return stored, "database"
		}
	}
	if m.env.Host != "" {
		cfg = m.env
		if cfg.Port == 0 {
			cfg.Port = 587
		}
		return cfg, "env"
	}
	return Config{}, ""
}

// EnvConfig exposes the environment fallback.
func (m *Mailer) EnvConfig() Config {
	return m.env
}

// Send delivers one message and reports the outcome. It never panics and never returns an error.
func (m *Mailer) Send(ctx context.Context, to, subject, html string) (res Result) {
	log := zap.L().With(zap.String("to", to), zap.String("subject", subject))
	defer func() {
		if r := recover(); r != nil {
			log.Error("Email send panicked", zap.Any("panic", r))
			res = Result{Success: false, Error: fmt.Sprint(r), Code: CodeUnknown, Hint: hints[CodeUnknown]}
		}
		if m.onResult != nil {
			m.onResult(res.Code)
		}
	}()

	cfg, source := m.ResolveConfig()
	if !cfg.usable() {
		log.Warn("Email not sent: SMTP is not configured")
		return Result{Success: false, Error: "SMTP yapılandırılmamış", Code: CodeNoConfig, Hint: hints[CodeNoConfig]}
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := m.transport.Send(ctx, cfg, to, subject, html); err != nil {
		code := Classify(err)
		log.Error("Email send failed",
			zap.String("code", code),
			zap.String("hint", hints[code]),
			zap.String("smtp_host", cfg.Host),
			zap.Int("smtp_port", cfg.Port),
			zap.String("config_source", source),
			zap.Error(err),
		)
		return Result{Success: false, Error: err.Error(), Code: code, Hint: hints[code]}
	}

	log.Info("Email sent", zap.String("config_source", source))
	return Result{Success: true}
}

// SendAsync fires Send in the background; the caller never waits on SMTP.
func (m *Mailer) SendAsync(to, subject, html string) {
	go m.Send(context.Background(), to, subject, html)
}

// SendEmail is SendAsync for a rendered template.
func (m *Mailer) SendEmail(to string, email Email) {
	m.SendAsync(to, email.Subject, email.HTML)
}

var hints = map[string]string{
	CodeNoConfig:          "SMTP_HOST ve SMTP_FROM ortam değişkenlerini ya da yönetim panelindeki SMTP ayarlarını doldurun",
	CodeTimeout:           "SMTP sunucusuna ulaşılamadı; host, port ve güvenlik duvarı kurallarını kontrol edin",
	CodeAuthFailed:        "Kullanıcı adı veya şifre reddedildi; uygulama şifresi gerekebilir",
	CodeConnectionRefused: "Bağlantı reddedildi; port ve SSL/STARTTLS seçimini kontrol edin (465 SSL, 587 STARTTLS)",
	CodeSenderRejected:    "Gönderen adresi reddedildi; SMTP_FROM hesabın yetkili olduğu alan adından olmalı",
	CodeUnknown:           "Beklenmeyen SMTP hatası; sunucu günlüklerini kontrol edin",
}

// Classify maps a transport error onto a result code.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timed out"):
		return CodeTimeout
	case strings.Contains(msg, "535"), strings.Contains(msg, "authentication failed"),
		strings.Contains(msg, "auth failed"), strings.Contains(msg, "invalid credentials"),
		strings.Contains(msg, "username and password not accepted"), strings.Contains(msg, "smtp auth"):
		return CodeAuthFailed
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"),
		strings.Contains(msg, "connection reset"), strings.Contains(msg, "network is unreachable"):
		return CodeConnectionRefused
	case strings.Contains(msg, "sender address rejected"), strings.Contains(msg, "553"),
		strings.Contains(msg, "550"), strings.Contains(msg, "not owned by user"),
		strings.Contains(msg, "envelope"), strings.Contains(msg, "mail from"):
		return CodeSenderRejected
	default:
		return CodeUnknown
	}
}

type goMailTransport struct{}

func (goMailTransport) Send(ctx context.Context, cfg Config, to, subject, html string) error {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(sendTimeout),
	}
	if cfg.UsesSSL() {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Pass),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(cfg.sender()); err != nil {
		return fmt.Errorf("invalid envelope sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	return client.DialAndSendWithContext(ctx, msg)
}
