package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckFailureError(t *testing.T) {
	err := &CheckFailureError{Message: "game.yaml failed validation"}
	assert.Equal(t, "game.yaml failed validation", err.Error())
}

func TestErrorTypeDetection(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		isCheckFailure bool
	}{
		{
			name:           "CheckFailureError",
			err:            &CheckFailureError{Message: "check failure"},
			isCheckFailure: true,
		},
		{
			name:           "regular error",
			err:            errors.New("config error"),
			isCheckFailure: false,
		},
		{
			name:           "wrapped CheckFailureError",
			err:            errors.Join(&CheckFailureError{Message: "check failure"}, errors.New("additional context")),
			isCheckFailure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checkErr *CheckFailureError
			assert.Equal(t, tt.isCheckFailure, errors.As(tt.err, &checkErr))
		})
	}
}
