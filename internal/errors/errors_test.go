package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"godea/domain/core"
)

func TestWrap_DerivesCodeFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"empty selection", core.ErrEmptySelection, CodeValidationError, http.StatusBadRequest},
		{"overlap", core.ErrOverlappingSelection, CodeValidationError, http.StatusBadRequest},
		{"bad cell", core.NewDataFormatError("Cost", 2, "abc", "not a number"), CodeInvalidInput, http.StatusBadRequest},
		{"no rows", core.ErrInsufficientData, CodeInvalidInput, http.StatusBadRequest},
		{"format", fmt.Errorf("%w: .xls", core.ErrUnsupportedFormat), CodeInvalidInput, http.StatusBadRequest},
		{"solve", core.NewSolveError(0, "A", core.ErrInfeasible), CodeSolveError, http.StatusInternalServerError},
		{"other", stderrors.New("disk full"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, "analysis failed")
			assert.Equal(t, tt.code, GetCode(wrapped))
			assert.Equal(t, tt.status, HTTPStatus(wrapped))
			assert.ErrorIs(t, wrapped, tt.err)
			assert.Contains(t, wrapped.Error(), "analysis failed: ")
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "x"))
	assert.NoError(t, Wrapf(nil, "x %d", 1))
	assert.NoError(t, WithCode(CodeNotFound, nil))
}

func TestWrap_KeepsInnerCode(t *testing.T) {
	inner := PayloadTooLarge(20)
	outer := Wrapf(inner, "upload %q", "big.xlsx")

	assert.True(t, IsAppError(outer))
	assert.Equal(t, CodePayloadTooLarge, GetCode(outer))
	assert.Equal(t, http.StatusRequestEntityTooLarge, HTTPStatus(outer))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNotFound, stderrors.New("analysis 123"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))

	recoded := WithCode(CodeInvalidInput, ConfigInvalid("bad"))
	assert.Equal(t, CodeInvalidInput, GetCode(recoded))
	assert.Equal(t, "bad", recoded.Error())
}

func TestGetCode_Nil(t *testing.T) {
	assert.Equal(t, "", GetCode(nil))
}
