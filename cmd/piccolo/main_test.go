package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cheezgi/piccolo/internal/perr"
)

func TestIsIncompleteDetectsUnexpectedEOF(t *testing.T) {
	errs := []*perr.Error{perr.New(perr.SyntaxError, 3, "expected expression, found end of file")}
	assert.True(t, isIncomplete(errs))
}

func TestIsIncompleteFalseForRealErrors(t *testing.T) {
	errs := []*perr.Error{perr.New(perr.SyntaxError, 1, "expected ) after expression, found +")}
	assert.False(t, isIncomplete(errs))
}
