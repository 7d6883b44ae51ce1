package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderJob_IsOrphaned(t *testing.T) {
	now := time.Now()
	stale := now.Add(-OrphanAfter - time.Second)
	fresh := now.Add(-time.Second)

	tests := []struct {
		name string
		job  RenderJob
		want bool
	}{
		{"stale in progress", RenderJob{Status: StatusInProgress, UpdatedAt: &stale}, true},
		{"stale created", RenderJob{Status: StatusCreated, UpdatedAt: &stale}, true},
		{"fresh in progress", RenderJob{Status: StatusInProgress, UpdatedAt: &fresh}, false},
		{"no timestamp", RenderJob{Status: StatusInProgress}, false},
		{"stale done", RenderJob{Status: StatusDone, UpdatedAt: &stale}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.job.IsOrphaned(now))
		})
	}
}
