package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound  = errors.New("有効な予約が見つかりません")
	ErrBookingNotActive = errors.New("予約は既にキャンセルされています")
	ErrEventFull        = errors.New("イベントは満席です")
	ErrUserIDRequired   = errors.New("ユーザーIDは必須です")
	ErrEventIDRequired  = errors.New("イベントIDは必須です")
	ErrSeatIDRequired   = errors.New("座席IDは必須です")

	// ErrBusy はロック待ちタイムアウト等の一時的な失敗
	// リトライ可能であり、成功とも恒久的な失敗とも扱ってはならない
	ErrBusy = errors.New("他のリクエストと競合しています。しばらくしてから再試行してください")

	// ErrExclusivityViolated は同一座席に複数の有効予約を検出した場合の不変条件違反
	// 到達し得ないはずの状態であり、検出時はログに残して処理を中断する（黙って補正しない）
	ErrExclusivityViolated = errors.New("座席の排他性が破られています")
)
