package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sikayetim/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(ctx context.Context, cfg Config, to, subject, html string) error {
	args := m.Called(cfg, to, subject, html)
	return args.Error(0)
}

type fakeSettings struct {
	values map[string]interface{}
	err    error
}

func (f *fakeSettings) Get(key string, dest interface{}) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	v, ok := f.values[key]
	if !ok {
		return false, nil
	}
	raw, _ := json.Marshal(v)
	return true, json.Unmarshal(raw, dest)
}

func TestSend_NoConfigNeverDials(t *testing.T) {
	transport := &mockTransport{}
	m := New(config.SMTPConfig{}, nil).WithTransport(transport)

	res := m.Send(context.Background(), "a@example.com", "Konu", "<p>x</p>")

	assert.False(t, res.Success)
	assert.Equal(t, CodeNoConfig, res.Code)
	assert.NotEmpty(t, res.Hint)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_DatabaseSettingWinsOverEnv(t *testing.T) {
	transport := &mockTransport{}
	settings := &fakeSettings{values: map[string]interface{}{
		"smtp": Config{Host: "db.smtp.test", Port: 465, From: "noreply@db.test"},
	}}
	m := New(config.SMTPConfig{Host: "env.smtp.test", Port: 587, From: "env@env.test"}, settings).WithTransport(transport)

	transport.On("Send", mock.MatchedBy(func(cfg Config) bool {
		return cfg.Host == "db.smtp.test" && cfg.UsesSSL()
	}), "a@example.com", "Konu", "<p>x</p>").Return(nil).Once()

	res := m.Send(context.Background(), "a@example.com", "Konu", "<p>x</p>")

	assert.True(t, res.Success)
	transport.AssertExpectations(t)
}

func TestResolveConfig_FallsBackToEnv(t *testing.T) {
	settings := &fakeSettings{err: errors.New("db down")}
	m := New(config.SMTPConfig{Host: "env.smtp.test", User: "mailer@env.test"}, settings)

	cfg, source := m.ResolveConfig()
	assert.Equal(t, "env", source)
	assert.Equal(t, "env.smtp.test", cfg.Host)
	assert.Equal(t, 587, cfg.Port)
	assert.Equal(t, "mailer@env.test", cfg.sender(), "sender defaults to the SMTP user")
}

func TestSend_TransportErrorIsClassified(t *testing.T) {
	transport := &mockTransport{}
	m := New(config.SMTPConfig{Host: "smtp.test", Port: 587, From: "a@b.test"}, nil).WithTransport(transport)

	var codes []string
	m.OnResult(func(code string) { codes = append(codes, code) })

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("535 5.7.8 Authentication failed")).Once()

	res := m.Send(context.Background(), "a@example.com", "Konu", "<p>x</p>")

	assert.False(t, res.Success)
	assert.Equal(t, CodeAuthFailed, res.Code)
	assert.Contains(t, res.Error, "535")
	assert.Equal(t, []string{CodeAuthFailed}, codes)
}

type panickingTransport struct{}

func (panickingTransport) Send(context.Context, Config, string, string, string) error {
	panic("boom")
}

func TestSend_RecoversFromPanics(t *testing.T) {
	m := New(config.SMTPConfig{Host: "smtp.test", From: "a@b.test"}, nil).WithTransport(panickingTransport{})

	var res Result
	require.NotPanics(t, func() {
		res = m.Send(context.Background(), "a@example.com", "Konu", "<p>x</p>")
	})
	assert.False(t, res.Success)
	assert.Equal(t, CodeUnknown, res.Code)
}

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"dial tcp 10.0.0.1:587: i/o timeout":                        CodeTimeout,
		"context deadline exceeded":                                 CodeTimeout,
		"535 5.7.8 Username and Password not accepted":              CodeAuthFailed,
		"dial tcp 127.0.0.1:25: connect: connection refused":        CodeConnectionRefused,
		"dial tcp: lookup smtp.nowhere: no such host":               CodeConnectionRefused,
		"553 5.7.1 Sender address rejected: not owned by user":      CodeSenderRejected,
		"550 5.7.60 SMTP; Client does not have permissions to send": CodeSenderRejected,
		"something odd happened":                                    CodeUnknown,
	}
	for msg, want := range cases {
		assert.Equal(t, want, Classify(errors.New(msg)), msg)
	}
	assert.Equal(t, "", Classify(nil))
}

func TestTemplates_RenderEscapesUserInput(t *testing.T) {
	tpl := NewTemplates("https://sikayet.example")

	email := tpl.ComplaintAnswered("Ali", "Acme <script>", "Kargo gecikti", "abc")
	assert.Equal(t, "Şikayetinize yanıt geldi", email.Subject)
	assert.Contains(t, email.HTML, "https://sikayet.example/sikayet/abc")
	assert.NotContains(t, email.HTML, "<script>")

	code := tpl.VerificationCode("Ali", "042517")
	assert.Contains(t, code.HTML, "042517")

	rating := tpl.RatingReceived("Veli", "Acme", 4, "")
	assert.Contains(t, rating.HTML, "4/5")
	assert.NotContains(t, rating.HTML, "blockquote")
}
