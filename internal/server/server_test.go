package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/sikayetim/backend/internal/auth"
	"github.com/sikayetim/backend/internal/config"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/mailer"
	"github.com/sikayetim/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeStore struct {
	objects map[string]bool
}

func (f *fakeStore) GetPresignedPutURL(key, _ string, _ time.Duration) (string, error) {
	return "http://minio.test/bucket/" + key + "?sig=1", nil
}
func (f *fakeStore) ObjectExists(key string) (bool, error) { return f.objects[key], nil }
func (f *fakeStore) DeleteObject(key string) error         { delete(f.objects, key); return nil }
func (f *fakeStore) GetPublicURL(key string) string        { return "http://cdn.test/" + key }

type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	srv      *Server
	sessions *auth.SessionService
	store    *fakeStore
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.AllModels()...))

	cfg := &config.Config{
		App:       config.AppConfig{Env: "test", URL: "http://localhost:3000", Timezone: "UTC"},
		Session:   config.SessionConfig{Secret: "test-secret", TTL: time.Hour, CookieName: "session"},
		CORS:      config.CORSConfig{Origins: []string{"http://localhost:3000"}},
		Complaint: config.ComplaintConfig{MaxImages: 5},
	}
	store := &fakeStore{objects: map[string]bool{}}
	srv := New(Deps{
		Config: cfg,
		DB:     db,
		Mailer: mailer.New(config.SMTPConfig{}, nil),
		Store:  store,
	})
	return &testEnv{t: t, db: db, srv: srv, sessions: auth.NewSessionService(cfg), store: store}
}

func (e *testEnv) company(name string, approved bool) *domain.Company {
	sector := &domain.Sector{Name: "Sektör " + name, Slug: "sektor-" + uuid.NewString()[:8]}
	require.NoError(e.t, e.db.Create(sector).Error)
	company := &domain.Company{Name: name, Slug: "firma-" + uuid.NewString()[:8], SectorID: sector.ID}
	require.NoError(e.t, e.db.Create(company).Error)
	if approved {
		require.NoError(e.t, e.db.Model(company).Update("is_approved", true).Error)
		company.IsApproved = true
	}
	return company
}

func (e *testEnv) user(role domain.UserRole, companyID *uuid.UUID) *domain.User {
	id := uuid.NewString()[:8]
	u := &domain.User{
		Email:        id + "@example.com",
		Username:     "u" + id,
		Name:         "Ayşe",
		Surname:      "Yılmaz",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		CompanyID:    companyID,
	}
	require.NoError(e.t, e.db.Create(u).Error)
	return u
}

// token issues a session token carrying role, which may differ from the stored one.
func (e *testEnv) token(userID uuid.UUID, role domain.UserRole) string {
	token, _, _, err := e.sessions.Issue(userID, role)
	require.NoError(e.t, err)
	return token
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *testEnv) do(method, path, token string, body interface{}) (int, apiResponse) {
	resp, out := e.send(method, path, token, body)
	return resp.StatusCode, out
}

// send is do with the raw response kept for header checks.
func (e *testEnv) send(method, path, token string, body interface{}) (*http.Response, apiResponse) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}

	resp, err := e.srv.App.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "session" && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

func (e *testEnv) userWithPassword(email, password string) *domain.User {
	hash, err := auth.HashPassword(password)
	require.NoError(e.t, err)
	u := e.user(domain.RoleUser, nil)
	require.NoError(e.t, e.db.Model(u).Updates(map[string]interface{}{"email": email, "password_hash": hash}).Error)
	u.Email = email
	return u
}

// failQueriesOn makes every SELECT against table fail while *enabled is true.
func (e *testEnv) failQueriesOn(table string, enabled *bool) {
	err := e.db.Callback().Query().Before("gorm:query").Register("test:fail_"+table, func(tx *gorm.DB) {
		if *enabled && tx.Statement.Table == table {
			_ = tx.AddError(errors.New("connection reset by peer"))
		}
	})
	require.NoError(e.t, err)
}

func TestSessionGate(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(http.MethodGet, "/api/me/complaints", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	status, _ = env.do(http.MethodGet, "/api/me/complaints", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// signed token whose user row is gone
	status, _ = env.do(http.MethodGet, "/api/me/complaints", env.token(uuid.New(), domain.RoleUser), nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	user := env.user(domain.RoleUser, nil)
	status, _ = env.do(http.MethodGet, "/api/me/complaints", env.token(user.ID, domain.RoleUser), nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp = env.do(http.MethodGet, "/api/admin/stats", env.token(user.ID, domain.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestSessionGate_RoleComesFromUserRow(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(domain.RoleUser, nil)
	token := env.token(user.ID, domain.RoleUser)

	require.NoError(t, env.db.Model(user).Update("role", domain.RoleAdmin).Error)
	status, _ := env.do(http.MethodGet, "/api/admin/stats", token, nil)
	assert.Equal(t, http.StatusOK, status)

	require.NoError(t, env.db.Model(user).Update("is_active", false).Error)
	status, _ = env.do(http.MethodGet, "/api/admin/stats", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(domain.RoleUser, nil)
	token := env.token(user.ID, domain.RoleUser)

	status, _ := env.do(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodGet, "/api/me/complaints", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreateComplaint_DailyLimit(t *testing.T) {
	env := newTestEnv(t)
	company := env.company("Turkcell", true)
	user := env.user(domain.RoleUser, nil)
	token := env.token(user.ID, domain.RoleUser)

	body := map[string]interface{}{
		"company_id": company.ID,
		"title":      "Faturama habersiz ek ücret",
		"content":    "Bu ay faturama bilgim dışında bir paket ücreti yansıtıldı.",
	}

	status, resp := env.do(http.MethodPost, "/api/complaints", token, body)
	require.Equal(t, http.StatusCreated, status, resp.Error)

	var created struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, "PUBLISHED", created.Status)

	body["title"] = "İkinci şikayetim aynı gün"
	status, resp = env.do(http.MethodPost, "/api/complaints", token, body)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "DAILY_LIMIT", resp.Error.Code)
	assert.Equal(t, "Aynı firmaya bugün zaten bir şikayet oluşturdunuz", resp.Error.Message)
}

func TestCreateComplaint_RolesAndImages(t *testing.T) {
	env := newTestEnv(t)
	company := env.company("Trendyol", true)
	admin := env.user(domain.RoleAdmin, nil)
	user := env.user(domain.RoleUser, nil)
	token := env.token(user.ID, domain.RoleUser)

	body := map[string]interface{}{
		"company_id": company.ID,
		"title":      "Kargo hiç gelmedi",
		"content":    "Siparişim iki haftadır teslim edilmedi ve kimse dönüş yapmıyor.",
		"images":     []string{"complaints/" + uuid.NewString() + "/a.png"},
	}

	status, _ := env.do(http.MethodPost, "/api/complaints", env.token(admin.ID, domain.RoleAdmin), body)
	assert.Equal(t, http.StatusForbidden, status, "only USER accounts complain")

	status, resp := env.do(http.MethodPost, "/api/complaints", token, body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_IMAGE", resp.Error.Code, "key under someone else's prefix")

	body["images"] = []string{"complaints/" + user.ID.String() + "/a.png"}
	status, _ = env.do(http.MethodPost, "/api/complaints", token, body)
	require.Equal(t, http.StatusCreated, status)

	var image domain.ComplaintImage
	require.NoError(t, env.db.First(&image).Error)
	assert.Equal(t, "http://cdn.test/complaints/"+user.ID.String()+"/a.png", image.URL)
}

func TestCompanyStatus_PromotesPendingRepresentatives(t *testing.T) {
	env := newTestEnv(t)
	company := env.company("Vodafone", false)
	admin := env.user(domain.RoleAdmin, nil)
	rep := env.user(domain.RoleCompanyPending, &company.ID)

	status, resp := env.do(http.MethodPatch, "/api/admin/companies/"+company.ID.String()+"/status",
		env.token(admin.ID, domain.RoleAdmin), map[string]interface{}{"is_approved": true})
	require.Equal(t, http.StatusOK, status, resp.Error)

	var out struct {
		AffectedUsers int `json:"affected_users"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, 1, out.AffectedUsers)

	var reloaded domain.User
	require.NoError(t, env.db.First(&reloaded, "id = ?", rep.ID).Error)
	assert.Equal(t, domain.RoleCompany, reloaded.Role)

	// the representative's old token now carries COMPANY rights
	status, _ = env.do(http.MethodGet, "/api/company/complaints", env.token(rep.ID, domain.RoleCompanyPending), nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodPatch, "/api/admin/companies/"+company.ID.String()+"/status",
		env.token(admin.ID, domain.RoleAdmin), map[string]interface{}{"is_approved": false})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, env.db.First(&reloaded, "id = ?", rep.ID).Error)
	assert.Equal(t, domain.RoleCompanyPending, reloaded.Role)
}

func TestRespond_RequiresApprovedCompany(t *testing.T) {
	env := newTestEnv(t)
	company := env.company("Garanti", true)
	owner := env.user(domain.RoleUser, nil)
	rep := env.user(domain.RoleCompany, &company.ID)

	status, resp := env.do(http.MethodPost, "/api/complaints", env.token(owner.ID, domain.RoleUser), map[string]interface{}{
		"company_id": company.ID,
		"title":      "Kart aidatı iadesi",
		"content":    "Kart aidatımın iadesi için üç kez başvurdum, sonuç alamadım.",
	})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	require.NoError(t, env.db.Model(company).Update("is_approved", false).Error)
	reply := map[string]string{"message": "Talebiniz incelenmektedir, bilgi vereceğiz."}
	status, resp = env.do(http.MethodPost, "/api/complaints/"+created.ID.String()+"/response", env.token(rep.ID, domain.RoleCompany), reply)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "COMPANY_NOT_APPROVED", resp.Error.Code)

	require.NoError(t, env.db.Model(company).Update("is_approved", true).Error)
	status, _ = env.do(http.MethodPost, "/api/complaints/"+created.ID.String()+"/response", env.token(rep.ID, domain.RoleCompany), reply)
	assert.Equal(t, http.StatusCreated, status)

	var complaint domain.Complaint
	require.NoError(t, env.db.First(&complaint, "id = ?", created.ID).Error)
	assert.Equal(t, domain.ComplaintAnswered, complaint.Status)
}

func TestUploads_PresignAndConfirmLogo(t *testing.T) {
	env := newTestEnv(t)
	company := env.company("Migros", true)
	rep := env.user(domain.RoleCompany, &company.ID)
	token := env.token(rep.ID, domain.RoleCompany)

	status, resp := env.do(http.MethodPost, "/api/uploads/presign", token, map[string]interface{}{
		"upload_type":  storage.UploadCompanyLogo,
		"filename":     "logo.PNG",
		"content_type": "image/png",
		"file_size":    1024,
	})
	require.Equal(t, http.StatusOK, status, resp.Error)
	var presign struct {
		ObjectKey string `json:"object_key"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &presign))
	assert.True(t, storage.OwnsKey(storage.UploadCompanyLogo, company.ID, presign.ObjectKey))

	status, resp = env.do(http.MethodPost, "/api/uploads/confirm", token, map[string]string{"object_key": presign.ObjectKey})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "OBJECT_NOT_FOUND", resp.Error.Code)

	env.store.objects[presign.ObjectKey] = true
	status, _ = env.do(http.MethodPost, "/api/uploads/confirm", token, map[string]string{"object_key": presign.ObjectKey})
	require.Equal(t, http.StatusOK, status)

	var reloaded domain.Company
	require.NoError(t, env.db.First(&reloaded, "id = ?", company.ID).Error)
	require.NotNil(t, reloaded.LogoURL)
	assert.Equal(t, "http://cdn.test/"+presign.ObjectKey, *reloaded.LogoURL)

	status, resp = env.do(http.MethodPost, "/api/uploads/presign", token, map[string]interface{}{
		"upload_type":  storage.UploadAvatar,
		"filename":     "me.gif",
		"content_type": "image/gif",
		"file_size":    1024,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_CONTENT_TYPE", resp.Error.Code)
}

func TestAdminUsers_CannotDeleteSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(domain.RoleAdmin, nil)
	token := env.token(admin.ID, domain.RoleAdmin)

	status, resp := env.do(http.MethodDelete, "/api/admin/users/"+admin.ID.String(), token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SELF_ACTION", resp.Error.Code)

	status, resp = env.do(http.MethodPatch, "/api/admin/users/"+admin.ID.String()+"/role", token, map[string]string{"role": "COMPANY"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code, "company role without a company")
}

func TestHealthAndUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := env.srv.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, body := env.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, body.Error)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{
		"email":    "Mehmet@Example.com",
		"password": "guclu-parola-1",
		"username": "mehmet_k",
		"name":     "Mehmet",
		"surname":  "Kaya",
	}

	resp, out := env.send(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, out.Error)
	assert.NotEmpty(t, sessionCookie(resp))

	var user domain.User
	require.NoError(t, env.db.First(&user, "email = ?", "mehmet@example.com").Error)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.VerificationCode)
	assert.Len(t, *user.VerificationCode, 6)

	status, out := env.do(http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_EMAIL", out.Error.Code)

	body["email"] = "baska@example.com"
	body["username"] = "MEHMET_K"
	status, out = env.do(http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_USERNAME", out.Error.Code)

	body["username"] = "x"
	status, out = env.do(http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", out.Error.Code)
}

func TestRegister_LookupFailureStopsSignup(t *testing.T) {
	env := newTestEnv(t)
	failing := true
	env.failQueriesOn("users", &failing)

	status, out := env.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "zeynep@example.com",
		"password": "guclu-parola-1",
		"username": "zeynep",
		"name":     "Zeynep",
		"surname":  "Demir",
	})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", out.Error.Code)

	failing = false
	var count int64
	require.NoError(t, env.db.Model(&domain.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.userWithPassword("ali@example.com", "dogru-parola")

	status, out := env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ali@example.com", "password": "yanlis-parola"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", out.Error.Code)

	status, _ = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "yok@example.com", "password": "dogru-parola"})
	assert.Equal(t, http.StatusUnauthorized, status)

	resp, out := env.send(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ALI@example.com", "password": "dogru-parola"})
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)
	token := sessionCookie(resp)
	require.NotEmpty(t, token)

	status, out = env.do(http.MethodGet, "/api/auth/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	var session struct {
		User *struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &session))
	require.NotNil(t, session.User)
	assert.Equal(t, user.ID, session.User.ID)

	require.NoError(t, env.db.Model(user).Update("is_active", false).Error)
	status, out = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ali@example.com", "password": "dogru-parola"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ACCOUNT_DISABLED", out.Error.Code)
}

func TestSession_SignedOutAnswersNullUser(t *testing.T) {
	env := newTestEnv(t)

	status, out := env.do(http.MethodGet, "/api/auth/session", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"user":null}`, string(out.Data))
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(domain.RoleUser, nil)
	token := env.token(user.ID, domain.RoleUser)

	status, _ := env.do(http.MethodPost, "/api/auth/verify-email/send", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, env.db.First(user, "id = ?", user.ID).Error)
	require.NotNil(t, user.VerificationCode)
	code := *user.VerificationCode

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	status, out := env.do(http.MethodPost, "/api/auth/verify-email", token, map[string]string{"code": wrong})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_CODE", out.Error.Code)

	require.NoError(t, env.db.Model(user).Update("verification_expires_at", time.Now().Add(-time.Minute)).Error)
	status, out = env.do(http.MethodPost, "/api/auth/verify-email", token, map[string]string{"code": code})
	assert.Equal(t, http.StatusBadRequest, status, "expired code")
	assert.Equal(t, "INVALID_CODE", out.Error.Code)

	require.NoError(t, env.db.Model(user).Update("verification_expires_at", time.Now().Add(time.Minute)).Error)
	status, _ = env.do(http.MethodPost, "/api/auth/verify-email", token, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, status)

	var reloaded domain.User
	require.NoError(t, env.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.True(t, reloaded.IsVerified)

	status, _ = env.do(http.MethodPost, "/api/auth/verify-email", token, map[string]string{"code": wrong})
	assert.Equal(t, http.StatusOK, status, "already verified")
}

func TestTwoFactorFlow(t *testing.T) {
	env := newTestEnv(t)
	user := env.userWithPassword("elif@example.com", "dogru-parola")
	token := env.token(user.ID, domain.RoleUser)

	status, out := env.do(http.MethodPost, "/api/auth/2fa/enable", token, map[string]string{"code": "123456"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "TWO_FACTOR_NOT_SETUP", out.Error.Code)

	status, out = env.do(http.MethodPost, "/api/auth/2fa/setup", token, nil)
	require.Equal(t, http.StatusOK, status)
	var setup struct {
		Secret string `json:"secret"`
		URL    string `json:"otpauth_url"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &setup))
	require.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.URL, "otpauth://totp/")

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	status, out = env.do(http.MethodPost, "/api/auth/2fa/enable", token, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, status, out.Error)

	credentials := map[string]string{"email": "elif@example.com", "password": "dogru-parola"}
	resp, out := env.send(http.MethodPost, "/api/auth/login", "", credentials)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, sessionCookie(resp), "no session before the second factor")
	var step struct {
		RequiresTwoFactor bool `json:"requires_two_factor"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &step))
	assert.True(t, step.RequiresTwoFactor)

	credentials["code"] = flipDigit(code)
	resp, out = env.send(http.MethodPost, "/api/auth/login", "", credentials)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_2FA_CODE", out.Error.Code)
	assert.Empty(t, sessionCookie(resp))

	credentials["code"] = code
	resp, _ = env.send(http.MethodPost, "/api/auth/login", "", credentials)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, sessionCookie(resp))

	status, out = env.do(http.MethodPost, "/api/auth/2fa/disable", token, map[string]string{"code": flipDigit(code)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_CODE", out.Error.Code)

	status, _ = env.do(http.MethodPost, "/api/auth/2fa/disable", token, map[string]string{"code": code})
	require.Equal(t, http.StatusOK, status)

	var reloaded domain.User
	require.NoError(t, env.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.False(t, reloaded.TwoFactorEnabled)
	assert.Nil(t, reloaded.TwoFactorSecret)
}

// flipDigit returns a code that differs from code in its last digit.
func flipDigit(code string) string {
	last := code[len(code)-1]
	return code[:len(code)-1] + string('0'+(last-'0'+5)%10)
}

func TestSessionGate_BlacklistLookupFailureRejects(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(domain.RoleUser, nil)
	token := env.token(user.ID, domain.RoleUser)

	failing := true
	env.failQueriesOn("token_blacklist", &failing)

	status, _ := env.do(http.MethodGet, "/api/me/complaints", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	failing = false
	status, _ = env.do(http.MethodGet, "/api/me/complaints", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateComplaint_AnonymousIsRejected(t *testing.T) {
	env := newTestEnv(t)
	company := env.company("Türk Telekom", true)

	status, out := env.do(http.MethodPost, "/api/complaints", "", map[string]interface{}{
		"company_id": company.ID,
		"title":      "İnternet sürekli kopuyor",
		"content":    "Son bir haftadır akşam saatlerinde bağlantı sürekli kopuyor.",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", out.Error.Code)

	var count int64
	require.NoError(t, env.db.Model(&domain.Complaint{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompanyRequests_OpenToEveryAccount(t *testing.T) {
	env := newTestEnv(t)
	sector := &domain.Sector{Name: "Kargo", Slug: "kargo"}
	require.NoError(t, env.db.Create(sector).Error)
	user := env.user(domain.RoleUser, nil)
	admin := env.user(domain.RoleAdmin, nil)
	adminToken := env.token(admin.ID, domain.RoleAdmin)

	status, out := env.do(http.MethodPost, "/api/company-requests", env.token(user.ID, domain.RoleUser), map[string]interface{}{
		"name":              "Yeni Firma AS",
		"sector_id":         sector.ID,
		"as_representative": true,
	})
	require.Equal(t, http.StatusCreated, status, out.Error)
	var created struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &created))
	assert.Equal(t, "PENDING", created.Status)

	status, out = env.do(http.MethodPost, "/api/company-requests", env.token(user.ID, domain.RoleUser), map[string]interface{}{
		"name":      "Yeni Firma AS",
		"sector_id": sector.ID,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_REQUEST", out.Error.Code)

	status, _ = env.do(http.MethodPost, "/api/company-requests", adminToken, map[string]interface{}{
		"name":      "Yönetici Önerisi Lojistik",
		"sector_id": sector.ID,
	})
	assert.Equal(t, http.StatusCreated, status)

	status, _ = env.do(http.MethodPost, "/api/company-requests", "", map[string]interface{}{
		"name":      "Anonim Firma",
		"sector_id": sector.ID,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out = env.do(http.MethodPost, "/api/admin/company-requests/"+created.ID.String()+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, status, out.Error)

	var reloaded domain.User
	require.NoError(t, env.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, domain.RoleCompany, reloaded.Role)
	require.NotNil(t, reloaded.CompanyID)

	var company domain.Company
	require.NoError(t, env.db.First(&company, "id = ?", *reloaded.CompanyID).Error)
	assert.True(t, company.IsApproved)
	assert.Equal(t, "Yeni Firma AS", company.Name)

	status, out = env.do(http.MethodPost, "/api/admin/company-requests/"+created.ID.String()+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOT_PENDING", out.Error.Code)
}

func TestVerificationRequests(t *testing.T) {
	env := newTestEnv(t)
	company := env.company("Aras Kargo", false)
	user := env.user(domain.RoleUser, nil)
	admin := env.user(domain.RoleAdmin, nil)
	userToken := env.token(user.ID, domain.RoleUser)
	adminToken := env.token(admin.ID, domain.RoleAdmin)

	status, _ := env.do(http.MethodGet, "/api/company/profile", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	body := map[string]interface{}{"company_id": company.ID, "position": "Müşteri Hizmetleri Müdürü"}
	status, out := env.do(http.MethodPost, "/api/verification-requests", userToken, body)
	require.Equal(t, http.StatusCreated, status, out.Error)
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &created))

	var reloaded domain.User
	require.NoError(t, env.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, domain.RoleCompanyPending, reloaded.Role)

	// pending representatives see their company but cannot file again
	status, _ = env.do(http.MethodGet, "/api/company/profile", userToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(http.MethodPost, "/api/verification-requests", userToken, body)
	assert.Equal(t, http.StatusForbidden, status)

	status, out = env.do(http.MethodGet, "/api/me/verification-requests", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	var mine []struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	status, _ = env.do(http.MethodPost, "/api/admin/verification-requests/"+created.ID.String()+"/approve", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, out = env.do(http.MethodPost, "/api/admin/verification-requests/"+created.ID.String()+"/approve", adminToken,
		map[string]string{"note": "Belgeler uygun"})
	require.Equal(t, http.StatusOK, status, out.Error)

	require.NoError(t, env.db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, domain.RoleCompany, reloaded.Role)
	var approved domain.Company
	require.NoError(t, env.db.First(&approved, "id = ?", company.ID).Error)
	assert.True(t, approved.IsApproved)

	status, out = env.do(http.MethodPost, "/api/admin/verification-requests/"+created.ID.String()+"/reject", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "NOT_PENDING", out.Error.Code)
}

func TestComplaintReviews_UpsertByOwner(t *testing.T) {
	env := newTestEnv(t)
	company := env.company("Yurtiçi Kargo", true)
	owner := env.user(domain.RoleUser, nil)
	stranger := env.user(domain.RoleUser, nil)
	token := env.token(owner.ID, domain.RoleUser)

	status, out := env.do(http.MethodPost, "/api/complaints", token, map[string]interface{}{
		"company_id": company.ID,
		"title":      "Paketim hasarlı geldi",
		"content":    "Teslim edilen koli ezilmiş ve içindeki ürün kırılmıştı.",
	})
	require.Equal(t, http.StatusCreated, status, out.Error)
	var complaint struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &complaint))
	path := "/api/complaints/" + complaint.ID.String() + "/reviews"

	status, out = env.do(http.MethodPost, path, token, map[string]interface{}{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", out.Error.Code)

	status, _ = env.do(http.MethodPost, path, env.token(stranger.ID, domain.RoleUser), map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(http.MethodPost, path, "", map[string]interface{}{"rating": 1})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out = env.do(http.MethodPost, path, token, map[string]interface{}{"rating": 4, "message": "Hızlı ilgilendiler"})
	require.Equal(t, http.StatusOK, status, out.Error)
	status, _ = env.do(http.MethodPost, path, token, map[string]interface{}{"rating": 2})
	require.Equal(t, http.StatusOK, status)

	var reviews []domain.Review
	require.NoError(t, env.db.Where("company_id = ?", company.ID).Find(&reviews).Error)
	require.Len(t, reviews, 1)
	assert.Equal(t, 2, reviews[0].Rating)
}
