package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound       = errors.New("座席が見つかりません")
	ErrNoSeatsForEvent    = errors.New("このイベントには座席がありません")
	ErrSeatAlreadyBooked  = errors.New("座席は既に予約されています")
	ErrEventIDRequired    = errors.New("イベントIDは必須です")
	ErrSeatNumberRequired = errors.New("座席番号は必須です")
)
