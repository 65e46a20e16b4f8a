package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/internal/logger"
	"social-pilot/models"
)

// AILogStore persists one record per text-backend call.
type AILogStore interface {
	Insert(ctx context.Context, log *models.AILog) error
}

// Limiter spaces out calls. ok=false means the daily budget is spent.
type Limiter interface {
	WaitAndReserve(ctx context.Context) (bool, error)
}

var ErrQuotaExhausted = errors.New("daily generation quota exhausted")

// Auditor wraps providers so every call waits on the limiter and is
// recorded in ai_logs. A nil Auditor wraps nothing.
type Auditor struct {
	logs    AILogStore
	limiter Limiter
	now     func() time.Time
}

func NewAuditor(logs AILogStore, limiter Limiter) *Auditor {
	return &Auditor{logs: logs, limiter: limiter, now: time.Now}
}

// Wrap returns p decorated for one purpose and product.
func (a *Auditor) Wrap(p TextProvider, purpose models.AIPurpose, productID primitive.ObjectID) TextProvider {
	if a == nil || p == nil {
		return p
	}
	return &auditedProvider{inner: p, auditor: a, purpose: purpose, productID: productID}
}

type auditedProvider struct {
	inner     TextProvider
	auditor   *Auditor
	purpose   models.AIPurpose
	productID primitive.ObjectID
}

func (p *auditedProvider) Name() string { return p.inner.Name() }

func (p *auditedProvider) Generate(ctx context.Context, req TextRequest) (*TextResponse, error) {
	a := p.auditor
	if a.limiter != nil {
		ok, err := a.limiter.WaitAndReserve(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Upstream("AI provider rate limit or quota exceeded. Try again tomorrow or raise generation_quota.", ErrQuotaExhausted)
		}
	}

	start := a.now()
	resp, err := p.inner.Generate(ctx, req)
	end := a.now()

	if a.logs != nil {
		entry := &models.AILog{
			Provider:    p.inner.Name(),
			Purpose:     p.purpose,
			InputPrompt: fmt.Sprintf("%s\n\n%s", req.System, req.User),
			ImageCount:  len(req.Images),
			DurationMs:  end.Sub(start).Milliseconds(),
			RequestedAt: start,
			CompletedAt: end,
		}
		if !p.productID.IsZero() {
			id := p.productID
			entry.ProductID = &id
		}
		if resp != nil {
			entry.ModelName = resp.Model
			entry.ModelVersion = resp.ModelVersion
			entry.OutputResponse = resp.Text
			if resp.Usage != nil {
				entry.InputTokens = resp.Usage.InputTokens
				entry.OutputTokens = resp.Usage.OutputTokens
				entry.TotalTokens = resp.Usage.TotalTokens
			}
		}
		if err != nil {
			msg := err.Error()
			entry.ErrorMessage = &msg
		}
		// 로그 저장 실패는 생성 결과에 영향을 주지 않는다.
		if logErr := a.logs.Insert(context.WithoutCancel(ctx), entry); logErr != nil {
			logger.Log.Warnf("store ai log failed: %v", logErr)
		}
	}
	return resp, err
}
