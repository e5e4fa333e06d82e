// internal/service/report/report.go
package report

import (
	"context"

	"whispr-service/internal/domain/report"
	"whispr-service/internal/pkg/apierror"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, rep *report.Report) error
	List(ctx context.Context, limit, offset int) ([]report.Report, error)
	MarkResolved(ctx context.Context, id int64) error
}

type Service struct {
	reports Store
	logger  *zap.Logger
}

func NewService(reports Store, logger *zap.Logger) *Service {
	return &Service{reports: reports, logger: logger}
}

// Create files a report against a message or a user and hands back a
// reference the reporter can quote to support.
func (s *Service) Create(ctx context.Context, reporterID int64, req *report.CreateRequest) (*report.Report, error) {
	if req.MessageID == 0 && req.UserID == 0 {
		return nil, apierror.BadRequest("A report must target a message or a user.")
	}

	rep := &report.Report{
		Reference:  "RPT-" + ulid.Make().String(),
		ReporterID: reporterID,
		MessageID:  req.MessageID,
		UserID:     req.UserID,
		Reason:     req.Reason,
		Details:    req.Details,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		s.logger.Error("report write failed", zap.Int64("reporterId", reporterID), zap.Error(err))
		return nil, apierror.Internal()
	}
	s.logger.Info("report filed",
		zap.String("reference", rep.Reference),
		zap.Int64("reporterId", reporterID),
	)
	return rep, nil
}

// List pages through reports for the admin surface, unresolved first.
func (s *Service) List(ctx context.Context, page, limit int) ([]report.Report, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, err := s.reports.List(ctx, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("report listing failed", zap.Error(err))
		return nil, apierror.Internal()
	}
	return items, nil
}

func (s *Service) Resolve(ctx context.Context, id int64) error {
	if err := s.reports.MarkResolved(ctx, id); err != nil {
		s.logger.Error("report resolution failed", zap.Int64("reportId", id), zap.Error(err))
		return apierror.Internal()
	}
	return nil
}
