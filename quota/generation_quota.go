package quota

import (
	"context"
	"sync"
	"time"

	"social-pilot/config"
)

// GenerationQuotaLimiter 는 텍스트 생성 LLM 호출에 대한 분당/일일 한도를 관리한다.
// 인메모리로 동작하며 프로세스가 재시작되면 카운터가 초기화된다.
// API 와 worker 가 각자 인스턴스를 가지므로 한도도 프로세스별로 적용된다.
type GenerationQuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time

	now func() time.Time
}

// NewGenerationQuotaLimiter 는 분당/일일 한도로 limiter 를 만든다.
// 값이 0 이하인 경우에는 해당 방향의 제한을 두지 않는다.
func NewGenerationQuotaLimiter(requestsPerMinute, requestsPerDay int) *GenerationQuotaLimiter {
	if requestsPerDay < 0 {
		requestsPerDay = 0
	}
	var interval time.Duration
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}
	return &GenerationQuotaLimiter{
		dailyLimit: requestsPerDay,
		interval:   interval,
		now:        time.Now,
	}
}

// NewGenerationQuotaLimiterFromConfig 는 config.yaml 의 generation_quota 설정을 사용한다.
func NewGenerationQuotaLimiterFromConfig(cfg config.AppConfig) *GenerationQuotaLimiter {
	q := cfg.GenerationQuota
	return NewGenerationQuotaLimiter(q.RequestsPerMinute, q.RequestsPerDay)
}

// WaitAndReserve 는 호출 전에 분당/일일 한도를 적용한다.
// - 일일 한도를 초과한 경우: (false, nil) 을 반환하고 호출자는 LLM 호출을 스킵해야 한다.
// - 컨텍스트 취소 시: (false, ctx.Err()) 를 반환한다.
func (l *GenerationQuotaLimiter) WaitAndReserve(ctx context.Context) (bool, error) {
	if l == nil {
		return true, nil
	}
	for {
		l.mu.Lock()

		now := l.now().UTC()
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return false, nil
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = l.lastCall.Add(l.interval).Sub(now)
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return true, nil
		}

		// 락을 풀고 대기 후 상태를 다시 평가한다.
		l.mu.Unlock()
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		}
	}
}
