package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	cause := errors.New("disk full")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "not found", err: NotFound("blob"), check: IsNotFound},
		{name: "validation", err: Validation("bad %s", "file"), check: IsValidation},
		{name: "io", err: IO("put blob", cause), check: IsIO},
		{name: "render", err: Render("add decoration", cause), check: IsTransientRender},
		{name: "wrapped twice", err: fmt.Errorf("ingest: %w", NotFound("record")), check: IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestIOKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := IO("put blob", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrIO)
	assert.False(t, IsValidation(err))
	assert.Equal(t, "put blob: disk full", err.Error())
}

func TestNilWrappers(t *testing.T) {
	assert.NoError(t, IO("op", nil))
	assert.NoError(t, Render("op", nil))
	assert.NoError(t, ValidationFrom("op", nil))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "not found: blob not found", NotFound("blob").Error())
	assert.Equal(t, "validation failed: Please upload a valid .epub file",
		Validation("Please upload a valid .epub file").Error())
}
