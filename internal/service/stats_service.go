package service

import (
	"context"
	"math"
	"time"

	"github.com/sikayetim/backend/internal/domain"
	"github.com/sikayetim/backend/internal/dto"
	"github.com/sikayetim/backend/internal/repository"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// StatsService runs the independent dashboard counts concurrently.
type StatsService struct {
	complaints *repository.ComplaintRepository
	companies  *repository.CompanyRepository
	users      *repository.UserRepository
	requests   *repository.RequestRepository
	support    *repository.SupportRepository
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		complaints: repository.NewComplaintRepository(db),
		companies:  repository.NewCompanyRepository(db),
		users:      repository.NewUserRepository(db),
		requests:   repository.NewRequestRepository(db),
		support:    repository.NewSupportRepository(db),
	}
}

func (s *StatsService) Public(ctx context.Context) (*dto.PublicStatsDTO, error) {
	var out dto.PublicStatsDTO
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.PublishedComplaints, err = s.complaints.CountStatuses(domain.PublicComplaintStatuses...)
		return
	})
	g.Go(func() (err error) {
		out.SolvedComplaints, err = s.complaints.CountStatuses(domain.ComplaintSolved)
		return
	})
	g.Go(func() (err error) {
		out.ApprovedCompanies, err = s.companies.CountApproved()
		return
	})
	g.Go(func() (err error) {
		out.Users, err = s.users.Count()
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.SolvedRate = SolvedRate(out.SolvedComplaints, out.PublishedComplaints)
	return &out, nil
}

func (s *StatsService) Admin(ctx context.Context) (*dto.AdminStatsDTO, error) {
	var out dto.AdminStatsDTO
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.ComplaintsByStatus, err = s.complaints.CountByStatus()
		return
	})
	g.Go(func() (err error) {
		out.UsersByRole, err = s.users.CountByRole()
		return
	})
	g.Go(func() (err error) {
		out.PendingVerificationRequests, err = s.requests.CountPendingVerifications()
		return
	})
	g.Go(func() (err error) {
		out.PendingCompanyRequests, err = s.requests.CountPendingCompanyRequests()
		return
	})
	g.Go(func() (err error) {
		out.OpenSupportTickets, err = s.support.CountOpen()
		return
	})
	g.Go(func() (err error) {
		out.ComplaintsLast7Days, err = s.complaints.CountSince(time.Now().AddDate(0, 0, -7))
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// SolvedRate is solved/total as a percentage rounded to one decimal; 0 when there is nothing to count.
func SolvedRate(solved, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(solved)/float64(total)*1000) / 10
}
