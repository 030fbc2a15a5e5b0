package intel

import (
	"context"
	"testing"
	"time"
)

func TestWaitIntervalSpacesConsecutiveCalls(t *testing.T) {
	const minInterval = 60 * time.Millisecond
	c := NewURLEngineClient("http://127.0.0.1:1", "", time.Second, minInterval)

	// 첫 호출은 대기 없이 통과한다.
	if err := c.waitInterval(context.Background()); err != nil {
		t.Fatalf("waitInterval: %v", err)
	}

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := c.waitInterval(context.Background()); err != nil {
			t.Fatalf("waitInterval %d회차: %v", i+2, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*minInterval-10*time.Millisecond {
		t.Errorf("연속 호출 간격 = %v, want >= %v", elapsed, 2*minInterval)
	}
}

func TestWaitIntervalAfterIdleGap(t *testing.T) {
	const minInterval = 60 * time.Millisecond
	c := NewURLEngineClient("http://127.0.0.1:1", "", time.Second, minInterval)

	if err := c.waitInterval(context.Background()); err != nil {
		t.Fatalf("waitInterval: %v", err)
	}
	// 유휴 시간이 지나도 예약이 과거에 남으면 이후 호출이 몰아서 통과한다.
	time.Sleep(3 * minInterval)

	if err := c.waitInterval(context.Background()); err != nil {
		t.Fatalf("waitInterval: %v", err)
	}
	start := time.Now()
	if err := c.waitInterval(context.Background()); err != nil {
		t.Fatalf("waitInterval: %v", err)
	}
	if elapsed := time.Since(start); elapsed < minInterval-10*time.Millisecond {
		t.Errorf("유휴 후 연속 호출 간격 = %v, want >= %v", elapsed, minInterval)
	}
}

func TestWaitIntervalHonorsContext(t *testing.T) {
	c := NewURLEngineClient("http://127.0.0.1:1", "", time.Second, time.Minute)
	if err := c.waitInterval(context.Background()); err != nil {
		t.Fatalf("waitInterval: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.waitInterval(ctx); err == nil {
		t.Error("컨텍스트 만료에도 대기가 끝나지 않음")
	}
}
