// internal/service/user/user.go
package user

import (
	"context"
	"errors"

	"whispr-service/internal/domain/user"
	"whispr-service/internal/pkg/apierror"

	"go.uber.org/zap"
)

// Store is the account repository slice the profile surface needs.
type Store interface {
	FindByID(ctx context.Context, id int64) (*user.Account, error)
	UpdateProfile(ctx context.Context, id int64, req *user.UpdateProfileRequest) error
	SetStatus(ctx context.Context, id int64, status user.Status) error
	List(ctx context.Context, f *user.ListFilter) ([]*user.Account, error)
	Count(ctx context.Context, f *user.ListFilter) (int64, error)
}

// Page is a paginated account listing for the admin surface.
type Page struct {
	Meta user.Meta       `json:"meta"`
	Data []*user.Profile `json:"data"`
}

type Service struct {
	users  Store
	logger *zap.Logger
}

func NewService(users Store, logger *zap.Logger) *Service {
	return &Service{users: users, logger: logger}
}

func (s *Service) GetProfile(ctx context.Context, id int64) (*user.Profile, error) {
	account, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("User not found.")
		}
		s.logger.Error("profile lookup failed", zap.Int64("authId", id), zap.Error(err))
		return nil, apierror.Internal()
	}
	if account.Status == user.StatusDeleted {
		return nil, apierror.NotFound("User not found.")
	}
	return user.PublicProfile(account), nil
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, req *user.UpdateProfileRequest) (*user.Profile, error) {
	if err := s.users.UpdateProfile(ctx, id, req); err != nil {
		s.logger.Error("profile update failed", zap.Int64("authId", id), zap.Error(err))
		return nil, apierror.Internal()
	}
	return s.GetProfile(ctx, id)
}

// List pages through non-deleted accounts for the admin surface. The
// listing and the total are independent queries and run concurrently.
func (s *Service) List(ctx context.Context, f *user.ListFilter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	var (
		accounts []*user.Account
		total    int64
		listErr  error
		countErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		total, countErr = s.users.Count(ctx, f)
	}()
	accounts, listErr = s.users.List(ctx, f)
	<-done

	if listErr != nil {
		s.logger.Error("account listing failed", zap.Error(listErr))
		return nil, apierror.Internal()
	}
	if countErr != nil {
		s.logger.Error("account counting failed", zap.Error(countErr))
		return nil, apierror.Internal()
	}

	profiles := make([]*user.Profile, 0, len(accounts))
	for _, a := range accounts {
		profiles = append(profiles, user.PublicProfile(a))
	}
	return &Page{Meta: user.NewMeta(f.Page, f.Limit, total), Data: profiles}, nil
}

// ToggleStatus flips an account between active and restricted. Admin only;
// deletion goes through the password-confirmed flow instead.
func (s *Service) ToggleStatus(ctx context.Context, id int64, status user.Status) (*user.Profile, error) {
	if status != user.StatusActive && status != user.StatusRestricted {
		return nil, apierror.BadRequest("Status must be active or restricted.")
	}
	account, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("User not found.")
		}
		s.logger.Error("account lookup failed", zap.Int64("authId", id), zap.Error(err))
		return nil, apierror.Internal()
	}
	if account.Status == user.StatusDeleted {
		return nil, apierror.NotFound("User not found.")
	}

	if err := s.users.SetStatus(ctx, id, status); err != nil {
		s.logger.Error("status update failed", zap.Int64("authId", id), zap.Error(err))
		return nil, apierror.Internal()
	}
	account.Status = status
	s.logger.Info("account status changed", zap.Int64("authId", id), zap.String("status", string(status)))
	return user.PublicProfile(account), nil
}
