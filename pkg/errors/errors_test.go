package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsUnwrapsChains(t *testing.T) {
	base := New(CodeIllegalTransition, "cannot move ready to new").WithDetails(map[string]any{"from": "ready", "to": "new"})
	wrapped := fmt.Errorf("advance: %w", base)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeIllegalTransition, typed.Code())
	assert.True(t, HasCode(wrapped, CodeIllegalTransition))
	assert.False(t, HasCode(wrapped, CodeValidation))
	assert.Nil(t, As(fmt.Errorf("plain")))
}

func TestMetadataForDomainCodes(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeInvalidOrder).HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeIllegalTransition).HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeUnknownOption).HTTPStatus)
	assert.Equal(t, http.StatusConflict, MetadataFor(CodeIdempotency).HTTPStatus)
	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor(Code("SOMETHING_ELSE")))
}

func TestDumpCollectsChain(t *testing.T) {
	root := fmt.Errorf("disk full")
	err := Wrap(CodeDependency, root, "persist order")

	dump := Dump(err)
	assert.Equal(t, CodeDependency, dump.Code)
	assert.Len(t, dump.Chain, 2)
	assert.Empty(t, dump.PGCode)
}
