package booking

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// 同一座席の有効予約と衝突した場合は seat.ErrSeatAlreadyBooked を返す
	Create(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetActiveForUpdate は予約IDと所有ユーザーで有効予約を取得し、行ロックを取る
	// 存在しない・キャンセル済み・他ユーザー所有の場合は ErrBookingNotFound
	GetActiveForUpdate(ctx context.Context, tx transaction.Tx, id, userID int64) (*Booking, error)

	// Update は予約の状態を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetDetailsByUserID はユーザーの有効予約一覧をイベント・座席情報付きで取得する
	GetDetailsByUserID(ctx context.Context, userID int64) ([]*Details, error)

	// HasActiveByUserAndEvent はユーザーがイベントに有効予約を持つかを返す
	HasActiveByUserAndEvent(ctx context.Context, tx transaction.Tx, userID, eventID int64) (bool, error)

	// HasActiveByEventID はイベントに有効予約が存在するかを返す（削除ガード用）
	HasActiveByEventID(ctx context.Context, tx transaction.Tx, eventID int64) (bool, error)
}
