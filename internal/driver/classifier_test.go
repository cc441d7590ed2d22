package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatalClassifier(t *testing.T) {
	relaxed := NewFatalClassifier(false)
	strict := NewFatalClassifier(true)

	tests := []struct {
		name    string
		code    int
		relaxed bool
		strict  bool
	}{
		{"connectivity lost", 1100, true, true},
		{"warning band lower bound", 2000, false, false},
		{"farm connection notice", 2104, false, false},
		{"warning band upper bound", 9999, false, false},
		{"just past warning band", 10000, true, true},
		{"delayed data substituted", 10167, false, true},
		{"unknown high code", 10500, true, true},
		{"rejected request", 162, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.relaxed, relaxed(tt.code))
			assert.Equal(t, tt.strict, strict(tt.code))
		})
	}
}
