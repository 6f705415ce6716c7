package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/notification"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
)

type notificationRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Message   string    `db:"message"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *notificationRow) toEntity() *notification.Notification {
	return &notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Message:   r.Message,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

type NotificationRepository struct{ db *sqlx.DB }

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create は新しい通知を作成する（昇格と同一トランザクション）
func (r *NotificationRepository) Create(ctx context.Context, tx transaction.Tx, n *notification.Notification) error {
	sqlxTx := UnwrapTx(tx)
	query := `
		INSERT INTO notifications (user_id, message, is_read, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := sqlxTx.QueryRowContext(ctx, query, n.UserID, n.Message, n.IsRead, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("通知作成に失敗: %w", err)
	}
	return nil
}

// GetByUserID はユーザーの通知一覧を取得する
func (r *NotificationRepository) GetByUserID(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	query := `SELECT id, user_id, message, is_read, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("通知一覧取得に失敗: %w", err)
	}
	result := make([]*notification.Notification, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

var _ notification.Repository = (*NotificationRepository)(nil)
