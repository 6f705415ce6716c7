package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/event"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/notification"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/transaction"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/waitlist"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/logger"
)

// PromotionPolicy は空席発生時のキャンセル待ち繰り上げを担う。
// 繰り上げは通知のみで、予約の自動作成は行わない。
type PromotionPolicy struct {
	waitlistRepo     waitlist.Repository
	eventRepo        event.Repository
	notificationRepo notification.Repository
}

func NewPromotionPolicy(wr waitlist.Repository, er event.Repository, nr notification.Repository) *PromotionPolicy {
	return &PromotionPolicy{waitlistRepo: wr, eventRepo: er, notificationRepo: nr}
}

// Promote は先頭のキャンセル待ちエントリを1件繰り上げる。
// キャンセルと同一トランザクション内で呼ぶこと。待ちがいなければ何もしない。
// 戻り値は作成した通知（繰り上げなしの場合は nil）。
func (p *PromotionPolicy) Promote(ctx context.Context, tx transaction.Tx, eventID int64) (*notification.Notification, error) {
	entry, err := p.waitlistRepo.NextForPromotion(ctx, tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("キャンセル待ち先頭の取得に失敗: %w", err)
	}
	if entry == nil {
		return nil, nil
	}

	ev, err := p.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("繰り上げ対象イベントの取得に失敗: %w", err)
	}

	if err := p.waitlistRepo.Delete(ctx, tx, entry.ID); err != nil {
		return nil, fmt.Errorf("キャンセル待ちエントリの削除に失敗: %w", err)
	}

	n := notification.NewNotification(entry.UserID,
		fmt.Sprintf("イベント『%s』に空席が出ました。今すぐ予約してください。", ev.Name))
	if err := p.notificationRepo.Create(ctx, tx, n); err != nil {
		return nil, fmt.Errorf("繰り上げ通知の作成に失敗: %w", err)
	}

	logger.Info("キャンセル待ちを繰り上げました",
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", entry.UserID),
		zap.Int64("waitlist_entry_id", entry.ID))

	return n, nil
}
