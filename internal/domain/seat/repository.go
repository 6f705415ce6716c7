package seat

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する（イベント作成と同一トランザクション）
	CreateBulk(ctx context.Context, tx transaction.Tx, seats []*Seat) error

	// GetByEventID はイベントIDから座席一覧を取得する（作成順）
	GetByEventID(ctx context.Context, eventID int64) ([]*Seat, error)

	// GetWithOccupancyByEventID は占有状態（有効な予約の有無）付きの座席一覧を取得する
	GetWithOccupancyByEventID(ctx context.Context, eventID int64) ([]*WithOccupancy, error)

	// CountFreeByEventID は有効な予約のない座席数を返す
	// tx が nil の場合はトランザクション外で読む
	CountFreeByEventID(ctx context.Context, tx transaction.Tx, eventID int64) (int, error)
}
