package waitlist

import "errors"

// Waitlist ドメインのエラー定義
var (
	ErrEntryNotFound     = errors.New("キャンセル待ちエントリが見つかりません")
	ErrAlreadyWaitlisted = errors.New("既にこのイベントのキャンセル待ちに登録されています")
	ErrUserIDRequired    = errors.New("ユーザーIDは必須です")
	ErrEventIDRequired   = errors.New("イベントIDは必須です")
)
