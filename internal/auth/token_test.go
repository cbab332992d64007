package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "canonical", header: "Bearer abc123", want: "abc123"},
		{name: "lowercase scheme", header: "bearer abc123", want: "abc123"},
		{name: "mixed case scheme", header: "BeArEr tok", want: "tok"},
		{name: "extra whitespace", header: "  Bearer   tok  ", want: "tok"},
		{name: "empty", header: "", wantErr: ErrMissingAuthorization},
		{name: "scheme only", header: "Bearer", wantErr: ErrMalformedAuthorization},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrMalformedAuthorization},
		{name: "too many parts", header: "Bearer a b", wantErr: ErrMalformedAuthorization},
		{name: "whitespace only", header: "   ", wantErr: ErrMalformedAuthorization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoopTokenValidator(t *testing.T) {
	var v TokenValidator = NoopTokenValidator{}
	assert.NoError(t, v.Validate(context.Background(), "anything"))
}
