package application

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/notification"
)

type NotificationService struct {
	notificationRepo notification.Repository
}

func NewNotificationService(nr notification.Repository) *NotificationService {
	return &NotificationService{notificationRepo: nr}
}

// GetUserNotifications はユーザーの通知一覧を新しい順で返す
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID int64) ([]*notification.Notification, error) {
	return s.notificationRepo.GetByUserID(ctx, userID)
}
