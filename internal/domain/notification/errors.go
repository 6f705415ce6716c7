package notification

import "errors"

// Notification ドメインのエラー定義
var (
	ErrUserIDRequired  = errors.New("ユーザーIDは必須です")
	ErrMessageRequired = errors.New("メッセージは必須です")
)
