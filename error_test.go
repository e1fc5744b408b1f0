package sitecrawl_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := sitecrawl.Errorf(sitecrawl.ENOTFOUND, "source %q not found", "test")

	assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
	assert.Equal(t, "source \"test\" not found", sitecrawl.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, sitecrawl.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, sitecrawl.ErrorMessage(nil))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("loading state: %w", sitecrawl.Errorf(sitecrawl.ENOTCRAWLED, "no crawl yet"))

	assert.Equal(t, sitecrawl.ENOTCRAWLED, sitecrawl.ErrorCode(err))
	assert.Equal(t, "no crawl yet", sitecrawl.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("disk full")

	assert.Equal(t, sitecrawl.EINTERNAL, sitecrawl.ErrorCode(err))
	assert.Equal(t, "Internal error", sitecrawl.ErrorMessage(err))
}
