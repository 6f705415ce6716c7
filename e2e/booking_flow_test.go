package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventPayload struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TotalSeats int    `json:"total_seats"`
}

type bookingPayload struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	SeatID int64  `json:"seat_id"`
	Status string `json:"status"`
}

func createEvent(t *testing.T, s *TestServer, name string, totalSeats int) eventPayload {
	t.Helper()
	rec := s.Request(http.MethodPost, "/api/v1/admin/events", map[string]interface{}{
		"name":        name,
		"venue":       "テスト会場",
		"start_at":    "2026-12-31T18:00:00+09:00",
		"end_at":      "2026-12-31T21:00:00+09:00",
		"total_seats": totalSeats,
	}, adminHeaders())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ev eventPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	return ev
}

func TestE2E_HealthCheck(t *testing.T) {
	s := getTestServer(t)

	rec := s.Request(http.MethodGet, "/api/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestE2E_AdminAuth(t *testing.T) {
	s := getTestServer(t)

	rec := s.Request(http.MethodPost, "/api/v1/admin/events", map[string]interface{}{
		"name": "権限なし",
	}, userHeaders("1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestE2E_BookingFlow(t *testing.T) {
	s := getTestServer(t)
	ev := createEvent(t, s, "ライブ2026", 2)

	// ユーザー1が座席を指定して予約
	rec := s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"event_id":    ev.ID,
		"seat_number": "Seat-1",
	}, userHeaders("1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b1 bookingPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b1))
	assert.Equal(t, int64(1), b1.UserID)
	assert.Equal(t, "active", b1.Status)

	// 同じ座席は重複予約できない
	rec = s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"event_id":    ev.ID,
		"seat_number": "Seat-1",
	}, userHeaders("2"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// ユーザー2は自動割り当てで残席を確保
	rec = s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"event_id": ev.ID,
	}, userHeaders("2"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// 空席数は0
	rec = s.Request(http.MethodGet, fmt.Sprintf("/api/v1/events/%d/availability", ev.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"free_seats":0`)

	// 満席なのでユーザー3はキャンセル待ちに登録される
	rec = s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"event_id": ev.ID,
	}, userHeaders("3"))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "キャンセル待ち")

	// 二重登録は拒否される
	rec = s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"event_id": ev.ID,
	}, userHeaders("3"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// キャンセル待ち一覧に表示される
	rec = s.Request(http.MethodGet, "/api/v1/waitlists/me", nil, userHeaders("3"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"event_id":%d`, ev.ID))
}

func TestE2E_CancelPromotesWaitlist(t *testing.T) {
	s := getTestServer(t)
	ev := createEvent(t, s, "繰り上げテスト公演", 1)

	// ユーザー1が唯一の座席を予約
	rec := s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"event_id": ev.ID,
	}, userHeaders("1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b bookingPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	// ユーザー2と3がキャンセル待ちに登録
	for _, uid := range []string{"2", "3"} {
		rec = s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
			"event_id": ev.ID,
		}, userHeaders(uid))
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	}

	// キャンセルすると先頭のユーザー2が繰り上げ対象になる
	rec = s.Request(http.MethodDelete, fmt.Sprintf("/api/v1/bookings/%d", b.ID), nil, userHeaders("1"))
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// ユーザー2に通知が届いている
	rec = s.Request(http.MethodGet, "/api/v1/users/me/notifications", nil, userHeaders("2"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "繰り上げテスト公演")
	assert.Contains(t, rec.Body.String(), "空席が出ました")

	// ユーザー3はまだキャンセル待ちのまま
	rec = s.Request(http.MethodGet, "/api/v1/waitlists/me", nil, userHeaders("3"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(`"event_id":%d`, ev.ID))

	// ユーザー2はキャンセル待ちから外れている
	rec = s.Request(http.MethodGet, "/api/v1/waitlists/me", nil, userHeaders("2"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), fmt.Sprintf(`"event_id":%d`, ev.ID))

	// 繰り上げは通知のみで座席は確保されない。ユーザー2が改めて予約する
	rec = s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"event_id": ev.ID,
	}, userHeaders("2"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// 二重キャンセルは404
	rec = s.Request(http.MethodDelete, fmt.Sprintf("/api/v1/bookings/%d", b.ID), nil, userHeaders("1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestE2E_EventDeleteGuard(t *testing.T) {
	s := getTestServer(t)
	ev := createEvent(t, s, "削除ガード公演", 1)

	rec := s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"event_id": ev.ID,
	}, userHeaders("1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var b bookingPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	// 有効な予約があるうちは削除できない
	rec = s.Request(http.MethodDelete, fmt.Sprintf("/api/v1/admin/events/%d", ev.ID), nil, adminHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.Request(http.MethodDelete, fmt.Sprintf("/api/v1/bookings/%d", b.ID), nil, userHeaders("1"))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// キャンセル済みなら削除できる
	rec = s.Request(http.MethodDelete, fmt.Sprintf("/api/v1/admin/events/%d", ev.ID), nil, adminHeaders())
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func TestE2E_ConcurrentBookingLastSeat(t *testing.T) {
	s := getTestServer(t)
	ev := createEvent(t, s, "最後の1席争奪戦", 1)

	const workers = 10
	var wg sync.WaitGroup
	codes := make([]int, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rec := s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
				"event_id": ev.ID,
			}, userHeaders(fmt.Sprintf("%d", idx+1)))
			codes[idx] = rec.Code
		}(i)
	}
	wg.Wait()

	booked := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			booked++
		case http.StatusAccepted, http.StatusBadRequest, http.StatusServiceUnavailable:
			// 満席・競合・混雑はいずれも正常系
		default:
			t.Fatalf("予期しないステータスコード: %d", code)
		}
	}
	assert.Equal(t, 1, booked, "座席は1人だけが確保できる")

	rec := s.Request(http.MethodGet, fmt.Sprintf("/api/v1/events/%d/availability", ev.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"free_seats":0`)
}

func TestE2E_Analytics(t *testing.T) {
	s := getTestServer(t)
	ev := createEvent(t, s, "分析対象公演", 3)

	for _, uid := range []string{"1", "2"} {
		rec := s.Request(http.MethodPost, "/api/v1/bookings", map[string]interface{}{
			"event_id": ev.ID,
		}, userHeaders(uid))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.Request(http.MethodGet, "/api/v1/admin/analytics", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_bookings":2`)
	assert.Contains(t, rec.Body.String(), "分析対象公演")
	assert.Contains(t, rec.Body.String(), `"capacity_utilization_per_event"`)
	assert.Contains(t, rec.Body.String(), `"most_popular_events"`)
}
