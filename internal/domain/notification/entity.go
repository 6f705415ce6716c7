package notification

import "time"

// Notification はユーザーへの通知を表す。追記型で削除しない
type Notification struct {
	ID        int64
	UserID    int64
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// NewNotification は新しい未読通知を作成する
func NewNotification(userID int64, message string) *Notification {
	return &Notification{
		UserID:    userID,
		Message:   message,
		IsRead:    false,
		CreatedAt: time.Now(),
	}
}

// Validate は通知の検証を行う
func (n *Notification) Validate() error {
	if n.UserID == 0 {
		return ErrUserIDRequired
	}
	if n.Message == "" {
		return ErrMessageRequired
	}
	return nil
}
