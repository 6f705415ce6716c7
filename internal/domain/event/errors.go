package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound          = errors.New("イベントが見つかりません")
	ErrEventNameRequired      = errors.New("イベント名は必須です")
	ErrVenueRequired          = errors.New("会場は必須です")
	ErrInvalidTotalSeats      = errors.New("座席数は0以上である必要があります")
	ErrInvalidEventTime       = errors.New("開始時刻は終了時刻より前である必要があります")
	ErrEventHasActiveBookings = errors.New("有効な予約が残っているイベントは削除できません")
	ErrOptimisticLockConflict = errors.New("楽観的ロックの競合が発生しました")
)
