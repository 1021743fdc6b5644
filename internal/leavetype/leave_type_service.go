package leavetype

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	leavetypeerrors "go-leave/internal/leavetype/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	ActiveTypesCacheKey = "leave_types:active"
	DefaultCacheTTL     = 10 * time.Minute
)

//go:generate mockgen -source=leave_type_service.go -destination=mock/leave_type_service_mock.go -package=mock
type Service interface {
	GetAll(ctx context.Context) ([]LeaveTypeResponse, error)
	GetByID(ctx context.Context, id string) (LeaveTypeResponse, error)
	Seed(ctx context.Context, names []string) (SeedResult, error)
}

type service struct {
	repo     Repository
	rdb      *redis.Client
	cacheTTL time.Duration
	sf       *singleflight.Group
	logger   *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, cacheTTL time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &service{
		repo:     repo,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		sf:       &singleflight.Group{},
		logger:   l,
	}
}

func (s *service) GetAll(ctx context.Context) ([]LeaveTypeResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, ActiveTypesCacheKey).Result(); err == nil {
			var resp []LeaveTypeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("leave types cache read failed", zap.Error(err))
		}
	}

	v, err, _ := s.sf.Do(ActiveTypesCacheKey, func() (interface{}, error) {
		types, err := s.repo.FindAllActive(ctx)
		if err != nil {
			return nil, err
		}

		resp := mapToListResponse(types)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, ActiveTypesCacheKey, string(jsonData), s.cacheTTL).Err(); err != nil {
					s.logger.Warn("leave types cache write failed", zap.Error(err))
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		s.logger.Error("get leave types failed", zap.Error(err))
		return nil, err
	}

	return v.([]LeaveTypeResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveTypeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveTypeResponse{}, leavetypeerrors.ErrInvalidLeaveTypeID
	}

	lt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveTypeResponse{}, leavetypeerrors.ErrLeaveTypeNotFound
		}
		return LeaveTypeResponse{}, err
	}
	return mapToResponse(*lt), nil
}

// Seed creates every missing leave type by name. Existing names are skipped,
// so running it twice is harmless.
func (s *service) Seed(ctx context.Context, names []string) (SeedResult, error) {
	result := SeedResult{Created: []LeaveTypeResponse{}, Skipped: []string{}}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return result, leavetypeerrors.ErrLeaveTypeNameRequired
		}

		_, err := s.repo.FindByName(ctx, name)
		if err == nil {
			result.Skipped = append(result.Skipped, name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return result, err
		}

		lt := &LeaveType{ID: uuid.New(), Name: name, IsActive: true}
		if err := s.repo.Create(ctx, lt); err != nil {
			s.logger.Error("seed leave type persist failed", zap.String("name", name), zap.Error(err))
			return result, err
		}
		result.Created = append(result.Created, mapToResponse(*lt))
	}

	if len(result.Created) > 0 && s.rdb != nil {
		if err := s.rdb.Del(ctx, ActiveTypesCacheKey).Err(); err != nil {
			s.logger.Error("failed to invalidate leave types cache",
				zap.Error(err),
				zap.String("key", ActiveTypesCacheKey),
			)
		}
	}

	s.logger.Info("seed leave types done",
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func mapToResponse(lt LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:       lt.ID.String(),
		Name:     lt.Name,
		IsActive: lt.IsActive,
	}
}

func mapToListResponse(types []LeaveType) []LeaveTypeResponse {
	resp := make([]LeaveTypeResponse, len(types))
	for i, lt := range types {
		resp[i] = mapToResponse(lt)
	}
	return resp
}
