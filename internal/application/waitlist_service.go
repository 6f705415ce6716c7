package application

import (
	"context"

	"github.com/sanosuguru/go-ticket-inventory/internal/domain/waitlist"
	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/metrics"
)

type WaitlistService struct {
	waitlistRepo waitlist.Repository
	metrics      *metrics.Metrics
}

func NewWaitlistService(wr waitlist.Repository, m *metrics.Metrics) *WaitlistService {
	return &WaitlistService{waitlistRepo: wr, metrics: m}
}

// GetUserEntries はユーザーのキャンセル待ち一覧を返す
func (s *WaitlistService) GetUserEntries(ctx context.Context, userID int64) ([]*waitlist.Entry, error) {
	return s.waitlistRepo.GetByUserID(ctx, userID)
}

// LeaveWaitlist は本人のキャンセル待ちエントリを削除する
func (s *WaitlistService) LeaveWaitlist(ctx context.Context, entryID, userID int64) error {
	if err := s.waitlistRepo.DeleteByIDAndUser(ctx, entryID, userID); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.WaitlistTotal.WithLabelValues("left").Inc()
	}
	return nil
}
