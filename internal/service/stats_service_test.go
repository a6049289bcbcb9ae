package service

import (
	"context"
	"testing"

	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolvedRate(t *testing.T) {
	assert.Equal(t, 0.0, SolvedRate(0, 0))
	assert.Equal(t, 33.3, SolvedRate(1, 3))
	assert.Equal(t, 100.0, SolvedRate(4, 4))
}

func TestStatsService_Counts(t *testing.T) {
	db := setupTestDB(t)
	complaints := NewComplaintService(db, nil, ComplaintOptions{})
	approvals := NewApprovalService(db, nil)
	stats := NewStatsService(db)

	company := seedCompany(t, db, "Hızlı Kargo", true)
	seedCompany(t, db, "Onaysız", false)
	owner := seedUser(t, db, domain.RoleUser, nil)
	other := seedUser(t, db, domain.RoleUser, nil)

	c1, err := complaints.Create(newComplaintInput(owner, company))
	require.NoError(t, err)
	_, err = complaints.Create(newComplaintInput(other, company))
	require.NoError(t, err)
	_, err = complaints.Solve(owner.ID, c1.ID)
	require.NoError(t, err)

	_, err = approvals.RequestVerification(other.ID, dto.CreateVerificationRequest{CompanyID: company.ID, Position: "Uzman"})
	require.NoError(t, err)

	public, err := stats.Public(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), public.PublishedComplaints)
	assert.Equal(t, int64(1), public.SolvedComplaints)
	assert.Equal(t, int64(1), public.ApprovedCompanies)
	assert.Equal(t, int64(2), public.Users)
	assert.Equal(t, 50.0, public.SolvedRate)

	admin, err := stats.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), admin.ComplaintsByStatus[string(domain.ComplaintSolved)])
	assert.Equal(t, int64(1), admin.ComplaintsByStatus[string(domain.ComplaintPublished)])
	assert.Equal(t, int64(1), admin.PendingVerificationRequests)
	assert.Equal(t, int64(1), admin.UsersByRole[string(domain.RoleCompanyPending)])
	assert.Equal(t, int64(2), admin.ComplaintsLast7Days)
}
