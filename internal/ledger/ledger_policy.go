package ledger

import "go-leave/internal/shared/config"

// QuotaPolicy decides the initial total quota of a new ledger by leave type name.
type QuotaPolicy struct {
	Default int
	ByType  map[string]int
}

func NewQuotaPolicy(cfg config.LeaveConfig) QuotaPolicy {
	return QuotaPolicy{Default: cfg.DefaultQuota, ByType: cfg.Quotas}
}

func (p QuotaPolicy) For(leaveTypeName string) int {
	if q, ok := p.ByType[leaveTypeName]; ok {
		return q
	}
	return p.Default
}
