package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 一覧の件数（limitが0なら既定値）
const (
	AuditLogDefaultLimit = 50
	AuditLogMaxLimit     = 200
)

//監査ログの絞り込み条件。
type AuditLogFilter struct {
	ActorUserID  *string
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// 監査ログの保存・一覧取得の約束。
type AuditLogRepository interface {
	//監査ログを1件保存（未知のaction/resource_typeはエラー）
	Create(ctx context.Context, log model.AuditLog) error

	//監査ログを条件で一覧取得。
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
