package allocation

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/seat"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

// Strategy は座席割り当ての排他制御方式を表す
type Strategy string

const (
	// StrategyPessimistic は座席行・イベント行の行ロックで check-then-insert を直列化する
	StrategyPessimistic Strategy = "pessimistic"
	// StrategyOptimistic は行ロックを使わず、有効予約の部分一意制約の
	// 挿入時違反を衝突として扱うフォールバック方式
	StrategyOptimistic Strategy = "optimistic"
)

// Allocator は予約リクエストに対して座席を1つ解決する
// 実装は起動時に Strategy で選択され、以降は分岐しない
type Allocator interface {
	// Allocate は seatNumber が指定されていればその座席を検証して返し、
	// 空文字なら作成順で最初の空席を返す。返りうるエラーは
	//   seat.ErrSeatNotFound      指定座席が存在しない
	//   seat.ErrSeatAlreadyBooked 指定座席が占有済み（キャンセル待ちへは倒さない）
	//   seat.ErrNoSeatsForEvent   イベントに座席が1つもない
	//   event.ErrEventNotFound    イベントが存在しない
	//   booking.ErrEventFull      自動選択で空席なし（キャンセル待ちへ）
	//   booking.ErrBusy           ロック待ちタイムアウト（リトライ可能）
	Allocate(ctx context.Context, tx transaction.Tx, eventID int64, seatNumber string) (*seat.Seat, error)
}
