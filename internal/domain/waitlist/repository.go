package waitlist

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

// Repository はキャンセル待ちリポジトリのインターフェース
type Repository interface {
	// Create は新しいエントリを作成する（トランザクション必須）
	// 同一 (user_id, event_id) の重複は ErrAlreadyWaitlisted を返す
	Create(ctx context.Context, tx transaction.Tx, entry *Entry) error

	// ExistsByUserAndEvent はユーザーのエントリが既にあるかを返す
	ExistsByUserAndEvent(ctx context.Context, tx transaction.Tx, userID, eventID int64) (bool, error)

	// NextForPromotion は昇格対象のエントリを取得し行ロックを取る
	// 対象は作成時刻の昇順（同時刻はID昇順）で、そのイベントに有効予約を
	// 持たないユーザーの先頭。該当なしの場合は (nil, nil)
	NextForPromotion(ctx context.Context, tx transaction.Tx, eventID int64) (*Entry, error)

	// Delete はエントリを削除する（昇格時、トランザクション必須）
	Delete(ctx context.Context, tx transaction.Tx, id int64) error

	// DeleteByIDAndUser は所有ユーザー本人のエントリを削除する（自発的な離脱）
	DeleteByIDAndUser(ctx context.Context, id, userID int64) error

	// GetByUserID はユーザーのエントリ一覧を取得する
	GetByUserID(ctx context.Context, userID int64) ([]*Entry, error)

	// ListWaitingEventIDs はエントリが存在するイベントIDの一覧を返す（昇格スイープ用）
	ListWaitingEventIDs(ctx context.Context) ([]int64, error)
}
