package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := DuplicateRule("coupon")
	assert.Equal(t, "[DUPLICATE_RULE] duplicate rule key: coupon", err.Error())
	assert.Equal(t, "coupon", err.Context["key"])

	wrapped := Parsing("bad rule file", stderrors.New("unexpected token"))
	assert.Equal(t, "[PARSING_ERROR] bad rule file: unexpected token", wrapped.Error())
}

func TestIsTypeFollowsWrapping(t *testing.T) {
	t.Run("fmt wrapped", func(t *testing.T) {
		err := fmt.Errorf("register tier: %w", DuplicateRule("tier"))
		assert.True(t, IsDuplicateRule(err))
		assert.False(t, IsRuleNotFound(err))
	})

	t.Run("typed cause", func(t *testing.T) {
		err := Wrap(TypeConfig, "build market table", RuleNotFound("bulk_kr"))
		assert.True(t, IsType(err, TypeConfig))
		assert.True(t, IsRuleNotFound(err))
	})

	t.Run("foreign error", func(t *testing.T) {
		assert.False(t, IsDuplicateRule(stderrors.New("boom")))
		assert.False(t, IsType(nil, TypeInput))
	})
}
