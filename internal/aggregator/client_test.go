package aggregator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresRelink(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ITEM_LOGIN_REQUIRED", true},
		{"INVALID_CREDENTIALS", true},
		{"ITEM_NOT_SUPPORTED", true},
		{"USER_SETUP_REQUIRED", true},
		{"INTERNAL_SERVER_ERROR", true},
		{"PRODUCT_NOT_READY", false},
		{"RATE_LIMIT_EXCEEDED", false},
		{"", false},
	}
	for _, tt := range tests {
		err := &ProviderError{Code: tt.code, Message: "m"}
		assert.Equal(t, tt.want, RequiresRelink(err), "code %q", tt.code)
	}
}

func TestRequiresRelinkUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("fetching page: %w", &ProviderError{Code: "ITEM_LOCKED", Message: "locked"})
	assert.True(t, RequiresRelink(wrapped))

	assert.False(t, RequiresRelink(errors.New("connection reset")))
	assert.False(t, RequiresRelink(nil))
}
