package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateLowStock(t *testing.T) {
	tests := []struct {
		name      string
		newQty    int
		min       int
		wantAlert bool
	}{
		{name: "inside band", newQty: 4, min: 5, wantAlert: true},
		{name: "at threshold", newQty: 5, min: 5, wantAlert: true},
		{name: "one unit left", newQty: 1, min: 5, wantAlert: true},
		{name: "above threshold", newQty: 6, min: 5, wantAlert: false},
		{name: "sold out", newQty: 0, min: 5, wantAlert: false},
		{name: "threshold disabled", newQty: 1, min: 0, wantAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := EvaluateLowStock("A", tt.newQty, tt.min)
			assert.Equal(t, tt.wantAlert, ok)
			if tt.wantAlert {
				assert.NotEmpty(t, msg)
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}

func TestEvaluateLowStock_Message(t *testing.T) {
	msg, ok := EvaluateLowStock("Arroz Diana", 4, 5)
	assert.True(t, ok)
	assert.Equal(t, "'Arroz Diana' reached its minimum stock threshold (4/5).", msg)
}
