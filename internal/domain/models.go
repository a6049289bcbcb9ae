package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Enum types
type UserRole string

const (
	RoleUser           UserRole = "USER"
	RoleCompany        UserRole = "COMPANY"
	RoleCompanyPending UserRole = "COMPANY_PENDING"
	RoleAdmin          UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleCompany, RoleCompanyPending, RoleAdmin:
		return true
	}
	return false
}

// NeedsCompany reports whether a user holding this role must reference exactly one company.
func (r UserRole) NeedsCompany() bool {
	return r == RoleCompany || r == RoleCompanyPending
}

type ComplaintStatus string

const (
	ComplaintPendingModeration ComplaintStatus = "PENDING_MODERATION"
	ComplaintPublished         ComplaintStatus = "PUBLISHED"
	ComplaintAnswered          ComplaintStatus = "ANSWERED"
	ComplaintSolved            ComplaintStatus = "SOLVED"
	ComplaintRejected          ComplaintStatus = "REJECTED"
)

// PublicComplaintStatuses are visible to everyone.
var PublicComplaintStatuses = []ComplaintStatus{ComplaintPublished, ComplaintAnswered, ComplaintSolved}

func (s ComplaintStatus) IsPublic() bool {
	for _, p := range PublicComplaintStatuses {
		if s == p {
			return true
		}
	}
	return false
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

type TicketStatus string

const (
	TicketOpen   TicketStatus = "OPEN"
	TicketClosed TicketStatus = "CLOSED"
)

type NotificationType string

const (
	NotifComplaintAnswered     NotificationType = "complaint_answered"
	NotifComplaintModerated    NotificationType = "complaint_moderated"
	NotifVerificationDecided   NotificationType = "verification_decided"
	NotifCompanyRequestDecided NotificationType = "company_request_decided"
	NotifCompanyStatusChanged  NotificationType = "company_status_changed"
	NotifReviewReceived        NotificationType = "review_received"
	NotifSupportReply          NotificationType = "support_reply"
)

// Base model
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&b.ID)
	return nil
}

func setUUIDIfEmpty(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Sector groups companies (bank, telecom, e-commerce ...)
type Sector struct {
	BaseModel
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug string `gorm:"type:varchar(120);not null;uniqueIndex" json:"slug"`
}

func (Sector) TableName() string { return "sectors" }

type User struct {
	BaseModel
	Email                 string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Username              string     `gorm:"type:varchar(30);not null;uniqueIndex" json:"username"`
	Name                  string     `gorm:"type:varchar(100);not null" json:"name"`
	Surname               string     `gorm:"type:varchar(100);not null" json:"surname"`
	PasswordHash          string     `gorm:"type:varchar(255);not null" json:"-"`
	Role                  UserRole   `gorm:"type:varchar(20);not null;default:'USER';index" json:"role"`
	IsVerified            bool       `gorm:"not null;default:false" json:"is_verified"`
	VerifiedAt            *time.Time `json:"verified_at,omitempty"`
	VerificationCode      *string    `gorm:"type:varchar(6)" json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	TwoFactorSecret       *string    `gorm:"type:varchar(64)" json:"-"`
	TwoFactorEnabled      bool       `gorm:"not null;default:false" json:"two_factor_enabled"`
	CompanyID             *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	IsActive              bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt           *time.Time `json:"last_login_at,omitempty"`
	Company               *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) FullName() string {
	return u.Name + " " + u.Surname
}

type Company struct {
	BaseModel
	Name        string    `gorm:"type:varchar(150);not null" json:"name"`
	Slug        string    `gorm:"type:varchar(170);not null;uniqueIndex" json:"slug"`
	SectorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sector_id"`
	IsApproved  bool      `gorm:"not null;default:false;index" json:"is_approved"`
	LogoURL     *string   `gorm:"type:text" json:"logo_url,omitempty"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Website     *string   `gorm:"type:varchar(255)" json:"website,omitempty"`
	Email       *string   `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone       *string   `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Sector      *Sector   `gorm:"foreignKey:SectorID" json:"sector,omitempty"`
}

func (Company) TableName() string { return "companies" }

type Complaint struct {
	BaseModel
	Title           string              `gorm:"type:varchar(150);not null" json:"title"`
	Content         string              `gorm:"type:text;not null" json:"content"`
	Status          ComplaintStatus     `gorm:"type:varchar(30);not null;index" json:"status"`
	UserID          uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_complaint_daily,priority:1" json:"user_id"`
	CompanyID       uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_complaint_daily,priority:2" json:"company_id"`
	ComplaintDay    string              `gorm:"type:varchar(10);not null;uniqueIndex:idx_complaint_daily,priority:3" json:"-"`
	ViewCount       int64               `gorm:"not null;default:0" json:"view_count"`
	PublishedAt     *time.Time          `json:"published_at,omitempty"`
	RejectionReason *string             `gorm:"type:text" json:"rejection_reason,omitempty"`
	Images          []ComplaintImage    `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Responses       []ComplaintResponse `gorm:"foreignKey:ComplaintID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
	User            *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Company         *Company            `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (Complaint) TableName() string { return "complaints" }

type ComplaintImage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;index" json:"complaint_id"`
	ObjectKey   string    `gorm:"type:text;not null" json:"object_key"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (ComplaintImage) TableName() string { return "complaint_images" }

func (m *ComplaintImage) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&m.ID)
	return nil
}

type ComplaintResponse struct {
	BaseModel
	ComplaintID uuid.UUID `gorm:"type:uuid;not null;index" json:"complaint_id"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Company     *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (ComplaintResponse) TableName() string { return "complaint_responses" }

type Review struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_company,priority:1" json:"user_id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_review_user_company,priority:2" json:"company_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Message   *string   `gorm:"type:text" json:"message,omitempty"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Review) TableName() string { return "reviews" }

// CompanyVerificationRequest - a user applying to represent an existing company
type CompanyVerificationRequest struct {
	BaseModel
	UserID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	CompanyID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"company_id"`
	Position   string        `gorm:"type:varchar(100);not null" json:"position"`
	Phone      *string       `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Message    *string       `gorm:"type:text" json:"message,omitempty"`
	Status     RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AdminNote  *string       `gorm:"type:text" json:"admin_note,omitempty"`
	ReviewedBy *uuid.UUID    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time    `json:"reviewed_at,omitempty"`
	User       *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Company    *Company      `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (CompanyVerificationRequest) TableName() string { return "company_verification_requests" }

// CompanyRequest - a user asking for a company that is not listed yet
type CompanyRequest struct {
	BaseModel
	UserID           uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name             string        `gorm:"type:varchar(150);not null" json:"name"`
	SectorID         uuid.UUID     `gorm:"type:uuid;not null" json:"sector_id"`
	Website          *string       `gorm:"type:varchar(255)" json:"website,omitempty"`
	Description      *string       `gorm:"type:text" json:"description,omitempty"`
	AsRepresentative bool          `gorm:"not null;default:false" json:"as_representative"`
	Status           RequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedCompanyID *uuid.UUID    `gorm:"type:uuid" json:"created_company_id,omitempty"`
	AdminNote        *string       `gorm:"type:text" json:"admin_note,omitempty"`
	ReviewedBy       *uuid.UUID    `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time    `json:"reviewed_at,omitempty"`
	User             *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Sector           *Sector       `gorm:"foreignKey:SectorID" json:"sector,omitempty"`
}

func (CompanyRequest) TableName() string { return "company_requests" }

type SupportTicket struct {
	BaseModel
	CompanyID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"company_id"`
	CreatedBy        uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"`
	Subject          string           `gorm:"type:varchar(200);not null" json:"subject"`
	Status           TicketStatus     `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	UnreadForAdmin   int              `gorm:"not null;default:0" json:"unread_for_admin"`
	UnreadForCompany int              `gorm:"not null;default:0" json:"unread_for_company"`
	LastMessageAt    *time.Time       `json:"last_message_at,omitempty"`
	Company          *Company         `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Messages         []SupportMessage `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

func (SupportTicket) TableName() string { return "support_tickets" }

type SupportMessage struct {
	BaseModel
	TicketID   uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	SenderRole UserRole  `gorm:"type:varchar(20);not null" json:"sender_role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
}

func (SupportMessage) TableName() string { return "support_messages" }

type Notification struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType  `gorm:"type:varchar(40);not null" json:"type"`
	Title     string            `gorm:"type:varchar(200);not null" json:"title"`
	Message   *string           `gorm:"type:text" json:"message,omitempty"`
	Data      datatypes.JSONMap `json:"data,omitempty"`
	IsRead    bool              `gorm:"not null;default:false" json:"is_read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (m *Notification) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&m.ID)
	return nil
}

// AppSetting - admin-editable key/value settings (the "smtp" key overrides SMTP_* env vars)
type AppSetting struct {
	Key       string         `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     datatypes.JSON `json:"value"`
	UpdatedBy *uuid.UUID     `gorm:"type:uuid" json:"updated_by,omitempty"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (AppSetting) TableName() string { return "app_settings" }

const SettingSMTP = "smtp"

// TokenBlacklist holds revoked session token ids until they expire
type TokenBlacklist struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	JTI       string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"jti"`
	UserID    *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (TokenBlacklist) TableName() string { return "token_blacklist" }

func (m *TokenBlacklist) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&m.ID)
	return nil
}

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Sector{},
		&Company{},
		&User{},
		&Complaint{},
		&ComplaintImage{},
		&ComplaintResponse{},
		&Review{},
		&CompanyVerificationRequest{},
		&CompanyRequest{},
		&SupportTicket{},
		&SupportMessage{},
		&Notification{},
		&AppSetting{},
		&TokenBlacklist{},
	}
}
