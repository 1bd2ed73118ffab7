package payouts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/domain/shared/money"
)

func TestNewRecord(t *testing.T) {
	rec, err := NewRecord("po-1", "host-1", money.Must(40500, "DZD"), time.Now(), "ccp", "", "ref")
	require.NoError(t, err)
	assert.Equal(t, MethodCCP, rec.Method)
	assert.Equal(t, StatusProcessing, rec.Status)

	_, err = NewRecord("po-2", "host-1", money.Must(1, "DZD"), time.Now(), "cash", "", "")
	assert.ErrorIs(t, err, ErrInvalidMethod)
	_, err = NewRecord("po-3", "", money.Must(1, "DZD"), time.Now(), "RIB", "", "")
	assert.ErrorIs(t, err, ErrHostRequired)
	_, err = NewRecord("po-4", "host-1", money.Must(0, "DZD"), time.Now(), "RIB", "", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = NewRecord("po-5", "host-1", money.Must(1, "DZD"), time.Now(), "RIB", "LOST", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
