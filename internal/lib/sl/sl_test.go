package sl_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/household-ledger/internal/lib/sl"
)

func TestErr(t *testing.T) {
	attr := sl.Err(errors.New("sync server unavailable"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("sync server unavailable"), attr.Value)
}

func TestErr_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		attr := sl.Err(nil)
		assert.Equal(t, "", attr.Value.String())
	})
}

func TestDiscard(t *testing.T) {
	log := sl.Discard()
	assert.False(t, log.Enabled(t.Context(), slog.LevelError))
}
