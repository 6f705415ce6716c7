package notification

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

// Repository は通知リポジトリのインターフェース
type Repository interface {
	// Create は新しい通知を作成する（昇格と同一トランザクションで呼ぶ）
	Create(ctx context.Context, tx transaction.Tx, n *Notification) error

	// GetByUserID はユーザーの通知一覧を取得する（新しい順）
	GetByUserID(ctx context.Context, userID int64) ([]*Notification, error)
}
