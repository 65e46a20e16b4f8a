package providers

import (
	"errors"
	"net/http"
	"strings"

	"social-pilot/apperr"
	"social-pilot/internal/httpclient"
)

const rateLimitReason = "AI provider rate limit or quota exceeded. Try switching text providers in product settings."

// FriendlyError classifies a provider failure. Rate limit and quota errors
// get a reason that tells the user what to do; already classified errors
// pass through.
func FriendlyError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if isRateLimited(err) {
		return apperr.Upstream(rateLimitReason, err)
	}
	return apperr.Upstream("Text provider request failed", err)
}

func isRateLimited(err error) bool {
	var se *httpclient.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted")
}
