package postgresql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/convopilot/convopilot/pkg/store"
)

func TestTranslateConflict(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		isConflict bool
	}{
		{
			name:       "unique violation",
			err:        &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"},
			isConflict: true,
		},
		{
			name:       "serialization failure",
			err:        &pq.Error{Code: "40001", Message: "could not serialize access"},
			isConflict: true,
		},
		{
			name:       "wrapped unique violation",
			err:        fmt.Errorf("failed to promote version: %w", &pq.Error{Code: "23505"}),
			isConflict: true,
		},
		{
			name:       "other postgres error",
			err:        &pq.Error{Code: "42P01", Message: "relation does not exist"},
			isConflict: false,
		},
		{
			name:       "non postgres error",
			err:        errors.New("connection reset"),
			isConflict: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translated := translateConflict(tt.err)

			assert.Equal(t, tt.isConflict, store.IsConcurrentModification(translated))

			if !tt.isConflict {
				assert.Equal(t, tt.err, translated, "non-conflict errors pass through untouched")
			}
		})
	}
}
