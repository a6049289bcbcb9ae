package service

import "errors"

var (
	ErrCompanyNotFound          = errors.New("company not found")
	ErrCompanyNotApproved       = errors.New("company is not approved")
	ErrCompanyExists            = errors.New("company already exists")
	ErrSectorNotFound           = errors.New("sector not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrComplaintNotFound        = errors.New("complaint not found")
	ErrDailyComplaintLimit      = errors.New("daily complaint limit reached for this company")
	ErrTooManyImages            = errors.New("too many images")
	ErrNotComplaintOwner        = errors.New("not the complaint owner")
	ErrNotCompanyRepresentative = errors.New("not a representative of this company")
	ErrComplaintNotAnswerable   = errors.New("complaint cannot be answered in its current status")
	ErrInvalidTransition        = errors.New("invalid complaint status transition")
	ErrRequestNotFound          = errors.New("request not found")
	ErrRequestNotPending        = errors.New("request is not pending")
	ErrPendingRequestExists     = errors.New("a pending request already exists")
	ErrTicketNotFound           = errors.New("ticket not found")
	ErrTicketClosed             = errors.New("ticket is closed")
)
