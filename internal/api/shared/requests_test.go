package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"  validate:"required"`
	Count int    `json:"count" validate:"gte=0,lte=10"`
}

type selfValidating struct {
	OK bool `json:"ok"`
}

func (s selfValidating) Validate() error {
	if !s.OK {
		return assert.AnError
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel() // Enable parallel execution

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid json", `{"name":"test","count":3}`, false},
		{"invalid json", `{"name":"test",}`, true},
		{"empty body", ``, true},
		{"unknown field", `{"name":"test","extra":1}`, true},
		{"trailing object", `{"name":"a"}{"name":"b"}`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))
			var got sample
			err := DecodeJSON(req, &got)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, sample{Name: "test", Count: 3}, got)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel() // Enable parallel execution

	assert.NoError(t, ValidateRequest(&sample{Name: "ok", Count: 1}))
	assert.Error(t, ValidateRequest(&sample{Count: 1}))
	assert.Error(t, ValidateRequest(&sample{Name: "ok", Count: 11}))

	assert.NoError(t, ValidateRequest(selfValidating{OK: true}))
	assert.ErrorIs(t, ValidateRequest(selfValidating{}), assert.AnError)
}
