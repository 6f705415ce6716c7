package waitlist

import "time"

// Entry はキャンセル待ちエントリを表す
// (user_id, event_id) ごとに高々1件。昇格または自発的な離脱で削除される
type Entry struct {
	ID        int64
	UserID    int64
	EventID   int64
	CreatedAt time.Time
}

// NewEntry は新しいキャンセル待ちエントリを作成する
func NewEntry(userID, eventID int64) *Entry {
	return &Entry{
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: time.Now(),
	}
}

// Validate はエントリの検証を行う
func (e *Entry) Validate() error {
	if e.UserID == 0 {
		return ErrUserIDRequired
	}
	if e.EventID == 0 {
		return ErrEventIDRequired
	}
	return nil
}
