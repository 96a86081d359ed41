package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"development", "AlwaysOnSampler"},
		{"", "AlwaysOnSampler"},
		{"production", "ParentBased{root:TraceIDRatioBased{0.1},"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Contains(t, samplerFor(tt.env).Description(), tt.want)
		})
	}
}
