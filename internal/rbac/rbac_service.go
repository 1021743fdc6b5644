package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

// ADMIN holds the wildcard, every other role only satisfies itself.
const modelText = `[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj)
`

var defaultPolicies = [][]string{
	{string(RoleAdmin), "*"},
	{string(RoleHR), string(RoleHR)},
	{string(RoleEmployee), string(RoleEmployee)},
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	// Authorize reports whether any granted role satisfies required.
	Authorize(granted Roles, required Role) bool
}

type service struct {
	enforcer *casbin.SyncedEnforcer
	logger   *zap.Logger
}

func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("rbac policies: %w", err)
	}
	return e, nil
}

func NewService(enforcer *casbin.SyncedEnforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{enforcer: enforcer, logger: l}
}

func (s *service) Authorize(granted Roles, required Role) bool {
	for _, role := range granted {
		ok, err := s.enforcer.Enforce(string(role), string(required))
		if err != nil {
			s.logger.Error("rbac enforce failed",
				zap.String("role", string(role)),
				zap.String("required", string(required)),
				zap.Error(err),
			)
			return false
		}
		if ok {
			return true
		}
	}
	return false
}
