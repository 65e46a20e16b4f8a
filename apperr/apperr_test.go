package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"social-pilot/apperr"
)

func TestKindOfAndReason(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("publish: %w", apperr.Upstream("Instagram request failed", cause))

	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, "Instagram request failed", apperr.Reason(err))
	assert.True(t, errors.Is(err, cause))

	plain := errors.New("boom")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(plain))
	assert.Equal(t, "boom", apperr.Reason(plain))
	assert.Equal(t, "", apperr.Reason(nil))
}
