package api_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-udp/api"
)

func TestErrorUnwrapsToSentinel(t *testing.T) {
	err := api.NewError(api.ErrCodeLockTimeout, "cache lock could not be acquired").
		WithContext("wait", "5s")

	assert.True(t, errors.Is(err, api.ErrLockTimeout))
	assert.False(t, errors.Is(err, api.ErrKeyNotFound))
	assert.Contains(t, err.Error(), "wait:5s")

	wrapped := fmt.Errorf("add: %w", err)
	var apiErr *api.Error
	assert.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, api.ErrCodeLockTimeout, apiErr.Code)
}

func TestErrorWithoutSentinel(t *testing.T) {
	err := api.NewError(api.ErrCodeInternal, "boom")
	assert.Nil(t, errors.Unwrap(err))
	assert.Equal(t, "boom", err.Error())
}
