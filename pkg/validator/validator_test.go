package validator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name   string    `validate:"required,max=10"`
	Email  string    `validate:"omitempty,email"`
	Kind   string    `validate:"omitempty,oneof=Normal Merchandise"`
	Starts time.Time `validate:"omitempty,future"`
	Count  int       `validate:"omitempty,gte=1"`
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, Validate(ctx, sample{Name: "ok", Email: "a@b.se", Kind: "Normal", Count: 2}))

	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"missing required", sample{}, ErrFieldRequired},
		{"too long", sample{Name: "0123456789ab"}, ErrFieldExceedsMaxLen},
		{"bad email", sample{Name: "x", Email: "nope"}, ErrFieldBadEmail},
		{"outside enum", sample{Name: "x", Kind: "Weird"}, ErrFieldNotAllowed},
		{"past date", sample{Name: "x", Starts: time.Now().Add(-time.Hour)}, "Date must be in the future"},
		{"below minimum", sample{Name: "x", Count: -1}, ErrFieldBelowMinVal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(ctx, tt.in)
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}
