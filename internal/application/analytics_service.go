package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/sanosuguru/go-ticket-inventory/internal/infrastructure/postgres"
)

// AnalyticsReader は統計に必要な読み取りクエリを抽象化する
type AnalyticsReader interface {
	CountBookings(ctx context.Context) (int, error)
	CountCancelledBookings(ctx context.Context) (int, error)
	DailyBookingCounts(ctx context.Context) ([]postgres.DailyCount, error)
	EventOccupancies(ctx context.Context) ([]postgres.EventOccupancy, error)
}

// PopularEvent はイベントごとの稼働状況
type PopularEvent struct {
	EventID         int64   `json:"event_id"`
	EventName       string  `json:"event_name"`
	TotalSeats      int     `json:"total_seats"`
	BookedSeats     int     `json:"booked_seats"`
	UtilizationRate float64 `json:"utilization_rate"`
}

// AnalyticsReport は予約台帳から導出される統計レポート
type AnalyticsReport struct {
	TotalBookings       int                   `json:"total_bookings"`
	CancelledBookings   int                   `json:"cancelled_bookings"`
	CancellationRate    float64               `json:"cancellation_rate"`
	DailyBookings       []postgres.DailyCount `json:"daily_bookings"`
	CapacityUtilization []PopularEvent        `json:"capacity_utilization_per_event"`
	MostPopularEvents   []PopularEvent        `json:"most_popular_events"`
}

type AnalyticsService struct {
	reader AnalyticsReader
}

func NewAnalyticsService(reader AnalyticsReader) *AnalyticsService {
	return &AnalyticsService{reader: reader}
}

// Report は統計レポートを生成する。分母が0の比率は0として扱う
func (s *AnalyticsService) Report(ctx context.Context) (*AnalyticsReport, error) {
	total, err := s.reader.CountBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("予約総数の取得に失敗: %w", err)
	}
	cancelled, err := s.reader.CountCancelledBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("キャンセル数の取得に失敗: %w", err)
	}
	daily, err := s.reader.DailyBookingCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("日別件数の取得に失敗: %w", err)
	}
	occupancies, err := s.reader.EventOccupancies(ctx)
	if err != nil {
		return nil, fmt.Errorf("稼働状況の取得に失敗: %w", err)
	}

	var cancellationRate float64
	if total > 0 {
		cancellationRate = float64(cancelled) / float64(total)
	}

	// 稼働状況はイベントID順のまま保持し、人気順はそのコピーを並べ替える
	utilization := make([]PopularEvent, 0, len(occupancies))
	for _, o := range occupancies {
		var rate float64
		if o.TotalSeats > 0 {
			rate = float64(o.BookedSeats) / float64(o.TotalSeats)
		}
		utilization = append(utilization, PopularEvent{
			EventID:         o.EventID,
			EventName:       o.EventName,
			TotalSeats:      o.TotalSeats,
			BookedSeats:     o.BookedSeats,
			UtilizationRate: rate,
		})
	}

	popular := make([]PopularEvent, len(utilization))
	copy(popular, utilization)
	// 予約数の多い順、同数はID昇順
	sort.SliceStable(popular, func(i, j int) bool {
		if popular[i].BookedSeats != popular[j].BookedSeats {
			return popular[i].BookedSeats > popular[j].BookedSeats
		}
		return popular[i].EventID < popular[j].EventID
	})

	if daily == nil {
		daily = []postgres.DailyCount{}
	}

	return &AnalyticsReport{
		TotalBookings:       total,
		CancelledBookings:   cancelled,
		CancellationRate:    cancellationRate,
		DailyBookings:       daily,
		CapacityUtilization: utilization,
		MostPopularEvents:   popular,
	}, nil
}
