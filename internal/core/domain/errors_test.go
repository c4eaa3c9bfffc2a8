package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrSerialization", ErrSerialization},
		{"ErrValidation", ErrValidation},
		{"ErrStaleDiff", ErrStaleDiff},
		{"ErrRepositoryNotFound", ErrRepositoryNotFound},
		{"ErrArchiveReorder", ErrArchiveReorder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrNotFound tests ErrNotFound error
func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}

func TestErrSerialization_Wrapped(t *testing.T) {
	err := fmt.Errorf("apply diff for org.example: %w", ErrSerialization)
	assert.True(t, errors.Is(err, ErrSerialization))
	assert.False(t, errors.Is(err, ErrValidation))
}

func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrSerialization,
		ErrValidation, ErrStaleDiff, ErrRepositoryNotFound, ErrArchiveReorder,
	}
	for i := range all {
		for j := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(all[i], all[j]), "%v should not match %v", all[i], all[j])
		}
	}
}
