package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func reloadUser(t *testing.T, db *gorm.DB, id uuid.UUID) *domain.User {
	user, err := repository.NewUserRepository(db).FindByID(id)
	require.NoError(t, err)
	return user
}

func reloadCompany(t *testing.T, db *gorm.DB, id uuid.UUID) *domain.Company {
	company, err := repository.NewCompanyRepository(db).FindByID(id)
	require.NoError(t, err)
	return company
}

func TestApprovalService_VerificationApproveIsAtomicAndOnce(t *testing.T) {
	db := setupTestDB(t)
	notifier, sender := newTestNotifier(db)
	svc := NewApprovalService(db, notifier)
	company := seedCompany(t, db, "Mavi Banka", false)
	user := seedUser(t, db, domain.RoleUser, nil)
	admin := seedUser(t, db, domain.RoleAdmin, nil)

	req, err := svc.RequestVerification(user.ID, dto.CreateVerificationRequest{CompanyID: company.ID, Position: "Müşteri İlişkileri"})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, req.Status)

	pending := reloadUser(t, db, user.ID)
	assert.Equal(t, domain.RoleCompanyPending, pending.Role)
	require.NotNil(t, pending.CompanyID)
	assert.Equal(t, company.ID, *pending.CompanyID)

	_, err = svc.RequestVerification(user.ID, dto.CreateVerificationRequest{CompanyID: company.ID, Position: "Tekrar"})
	assert.ErrorIs(t, err, ErrPendingRequestExists)

	decided, err := svc.ApproveVerification(req.ID, admin.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, decided.Status)

	assert.Equal(t, domain.RoleCompany, reloadUser(t, db, user.ID).Role)
	assert.True(t, reloadCompany(t, db, company.ID).IsApproved)
	assert.Equal(t, int64(1), countNotifications(t, db, user.ID, domain.NotifVerificationDecided))
	assert.Contains(t, sender.To(), user.Email)

	_, err = svc.ApproveVerification(req.ID, admin.ID, nil)
	assert.ErrorIs(t, err, ErrRequestNotPending)
	_, err = svc.RejectVerification(req.ID, admin.ID, nil)
	assert.ErrorIs(t, err, ErrRequestNotPending)
	assert.Equal(t, domain.RoleCompany, reloadUser(t, db, user.ID).Role, "a decided request stays decided")
}

func TestApprovalService_VerificationReject(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApprovalService(db, nil)
	company := seedCompany(t, db, "Mavi Banka", false)
	user := seedUser(t, db, domain.RoleUser, nil)
	admin := seedUser(t, db, domain.RoleAdmin, nil)

	req, err := svc.RequestVerification(user.ID, dto.CreateVerificationRequest{CompanyID: company.ID, Position: "Uzman"})
	require.NoError(t, err)

	note := "Belge eksik"
	decided, err := svc.RejectVerification(req.ID, admin.ID, &note)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, decided.Status)

	reloaded := reloadUser(t, db, user.ID)
	assert.Equal(t, domain.RoleUser, reloaded.Role)
	assert.Nil(t, reloaded.CompanyID)
	assert.False(t, reloadCompany(t, db, company.ID).IsApproved)

	_, err = svc.ApproveVerification(uuid.New(), admin.ID, nil)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestApprovalService_CompanyRequestLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApprovalService(db, nil)
	existing := seedCompany(t, db, "Var Olan Firma", true)
	requester := seedUser(t, db, domain.RoleUser, nil)
	admin := seedUser(t, db, domain.RoleAdmin, nil)

	_, err := svc.RequestCompany(requester.ID, dto.CreateCompanyRequest{Name: "Var Olan Firma", SectorID: existing.SectorID})
	assert.ErrorIs(t, err, ErrCompanyExists)

	_, err = svc.RequestCompany(requester.ID, dto.CreateCompanyRequest{Name: "Yeni Firma", SectorID: uuid.New()})
	assert.ErrorIs(t, err, ErrSectorNotFound)

	req, err := svc.RequestCompany(requester.ID, dto.CreateCompanyRequest{Name: "Çiçek Sepeti Şubesi", SectorID: existing.SectorID, AsRepresentative: true})
	require.NoError(t, err)

	_, err = svc.RequestCompany(requester.ID, dto.CreateCompanyRequest{Name: "Çiçek SEPETI Şubesi", SectorID: existing.SectorID})
	assert.ErrorIs(t, err, ErrPendingRequestExists)

	decided, company, err := svc.ApproveCompanyRequest(req.ID, admin.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestApproved, decided.Status)
	assert.True(t, company.IsApproved)
	assert.Equal(t, "cicek-sepeti-subesi", company.Slug)
	require.NotNil(t, decided.CreatedCompanyID)
	assert.Equal(t, company.ID, *decided.CreatedCompanyID)

	linked := reloadUser(t, db, requester.ID)
	assert.Equal(t, domain.RoleCompany, linked.Role)
	require.NotNil(t, linked.CompanyID)
	assert.Equal(t, company.ID, *linked.CompanyID)

	_, _, err = svc.ApproveCompanyRequest(req.ID, admin.ID, nil)
	assert.ErrorIs(t, err, ErrRequestNotPending)
	_, err = svc.RejectCompanyRequest(req.ID, admin.ID, nil)
	assert.ErrorIs(t, err, ErrRequestNotPending)
}

func TestApprovalService_CompanyRequestWithoutRepresentative(t *testing.T) {
	db := setupTestDB(t)
	svc := NewApprovalService(db, nil)
	sectorOwner := seedCompany(t, db, "Sektör Sahibi", true)
	requester := seedUser(t, db, domain.RoleUser, nil)
	admin := seedUser(t, db, domain.RoleAdmin, nil)

	req, err := svc.RequestCompany(requester.ID, dto.CreateCompanyRequest{Name: "Sektör Sahibi", SectorID: sectorOwner.SectorID})
	require.ErrorIs(t, err, ErrCompanyExists)
	assert.Nil(t, req)

	req, err = svc.RequestCompany(requester.ID, dto.CreateCompanyRequest{Name: "Başka Firma", SectorID: sectorOwner.SectorID})
	require.NoError(t, err)

	_, _, err = svc.ApproveCompanyRequest(req.ID, admin.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, reloadUser(t, db, requester.ID).Role)
}

func TestApprovalService_SetCompanyApprovalMovesRepresentatives(t *testing.T) {
	db := setupTestDB(t)
	notifier, sender := newTestNotifier(db)
	svc := NewApprovalService(db, notifier)
	company := seedCompany(t, db, "Mavi Banka", false)
	a := seedUser(t, db, domain.RoleCompanyPending, &company.ID)
	b := seedUser(t, db, domain.RoleCompanyPending, &company.ID)
	outsider := seedUser(t, db, domain.RoleCompanyPending, nil)

	updated, affected, err := svc.SetCompanyApproval(company.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsApproved)
	assert.Len(t, affected, 2)
	assert.Equal(t, domain.RoleCompany, reloadUser(t, db, a.ID).Role)
	assert.Equal(t, domain.RoleCompany, reloadUser(t, db, b.ID).Role)
	assert.Equal(t, domain.RoleCompanyPending, reloadUser(t, db, outsider.ID).Role)
	assert.ElementsMatch(t, []string{a.Email, b.Email}, sender.To())

	_, affected, err = svc.SetCompanyApproval(company.ID, false)
	require.NoError(t, err)
	assert.Len(t, affected, 2)
	assert.Equal(t, domain.RoleCompanyPending, reloadUser(t, db, a.ID).Role)
	assert.False(t, reloadCompany(t, db, company.ID).IsApproved)

	_, _, err = svc.SetCompanyApproval(uuid.New(), true)
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}
