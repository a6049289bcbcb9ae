package dto

import "time"

// SMTP settings stored under the "smtp" app setting
type SMTPSettingsRequest struct {
	Host   string `json:"host" validate:"required,max=255"`
	Port   int    `json:"port" validate:"required,min=1,max=65535"`
	User   string `json:"user" validate:"max=255"`
	Pass   string `json:"pass,omitempty" validate:"max=255"`
	From   string `json:"from" validate:"required,max=255"`
	Secure bool   `json:"secure"`
}

// SMTPSettingsResponse never carries the password back
type SMTPSettingsResponse struct {
	Host        string     `json:"host"`
	Port        int        `json:"port"`
	User        string     `json:"user"`
	From        string     `json:"from"`
	Secure      bool       `json:"secure"`
	HasPassword bool       `json:"has_password"`
	Source      string     `json:"source"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type SMTPTestRequest struct {
	To string `json:"to" validate:"required,email"`
}

type PublicStatsDTO struct {
	PublishedComplaints int64   `json:"published_complaints"`
	SolvedComplaints    int64   `json:"solved_complaints"`
	ApprovedCompanies   int64   `json:"approved_companies"`
	Users               int64   `json:"users"`
	SolvedRate          float64 `json:"solved_rate"`
}

type AdminStatsDTO struct {
	ComplaintsByStatus          map[string]int64 `json:"complaints_by_status"`
	UsersByRole                 map[string]int64 `json:"users_by_role"`
	PendingVerificationRequests int64            `json:"pending_verification_requests"`
	PendingCompanyRequests      int64            `json:"pending_company_requests"`
	OpenSupportTickets          int64            `json:"open_support_tickets"`
	ComplaintsLast7Days         int64            `json:"complaints_last_7_days"`
}
