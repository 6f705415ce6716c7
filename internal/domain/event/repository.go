package event

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する（座席生成と同一トランザクションで呼ぶ）
	Create(ctx context.Context, tx transaction.Tx, event *Event) error

	// GetByID はIDからイベントを取得する（TotalSeats は座席数から導出）
	GetByID(ctx context.Context, id int64) (*Event, error)

	// List はイベント一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// Update はイベントを更新する（楽観的ロック、座席数は変更不可）
	Update(ctx context.Context, event *Event) error

	// Delete はイベントと配下の座席・予約・キャンセル待ちを削除する（トランザクション必須）
	Delete(ctx context.Context, tx transaction.Tx, id int64) error
}
