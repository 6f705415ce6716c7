package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-inventory/internal/pkg/logger"
)

// PromotionSweeper はキャンセル待ちの繰り上げスイープを実行するインターフェース
type PromotionSweeper interface {
	SweepPromotions(ctx context.Context) error
}

// WaitlistSweeper はキャンセル待ちの繰り上げを定期実行するワーカー。
// キャンセル時の繰り上げが取りこぼされた場合（クラッシュ等）の補完として動く
type WaitlistSweeper struct {
	bookingService PromotionSweeper
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewWaitlistSweeper は新しいスイーパーを作成
func NewWaitlistSweeper(bs PromotionSweeper, interval time.Duration) *WaitlistSweeper {
	return &WaitlistSweeper{
		bookingService: bs,
		interval:       interval,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (w *WaitlistSweeper) Start(ctx context.Context) {
	logger.Info("キャンセル待ちスイーパー開始",
		zap.Duration("interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("キャンセル待ちスイーパー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("キャンセル待ちスイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (w *WaitlistSweeper) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// sweep は繰り上げスイープを1回実行
func (w *WaitlistSweeper) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("キャンセル待ちスイープ開始")

	if err := w.bookingService.SweepPromotions(ctx); err != nil {
		log.Error("キャンセル待ちスイープ失敗", zap.Error(err))
	}
}
