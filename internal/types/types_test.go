package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "2.50", AmountFromCents(250).String())
	assert.Equal(t, "0.00", AmountFromCents(0).String())
	assert.Equal(t, "1234.05", AmountFromCents(123405).String())
	assert.Equal(t, "-0.75", AmountFromCents(-75).String())
}

func TestAmount_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Price Amount `json:"price"`
	}{AmountFromCents(1050)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price": 10.50}`, string(data))
	assert.Contains(t, string(data), "10.50")

	var decoded struct {
		Price Amount `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price": 19.9}`), &decoded))
	assert.Equal(t, AmountFromCents(1990), decoded.Price)

	assert.Error(t, json.Unmarshal([]byte(`{"price": "abc"}`), &decoded))
}

func TestAmount_UnmarshalJSONRange(t *testing.T) {
	var a Amount
	require.NoError(t, json.Unmarshal([]byte("1000000000000.25"), &a))
	assert.Equal(t, AmountFromCents(100000000000025), a)

	for _, raw := range []string{"93000000000000000", "-93000000000000000", "1e300"} {
		err := json.Unmarshal([]byte(raw), &a)
		assert.Error(t, err, raw)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "SESSION", config.CookieName)
	assert.True(t, config.Headless)
	assert.Equal(t, 0, config.PageRetries)
	assert.Equal(t, "TL", config.Currency)
	assert.Equal(t, DefaultSelectors(), config.Selectors)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{&StartupConfigError{Field: "URL", Err: errors.New("missing")}, "startup_config"},
		{&NavigationError{Op: "discover page count", Err: errors.New("no param")}, "navigation"},
		{&SelectorTimeoutError{Selector: "mat-card", Err: context.DeadlineExceeded}, "selector_timeout"},
		{&ParseError{Field: "basePrice", Input: "TL"}, "parse"},
		{fmt.Errorf("page 2: %w", &ParseError{Field: "title"}), "parse"},
		{&PartialFailureError{Err: &NavigationError{Op: "previous page", Err: errors.New("x")}}, "navigation"},
		{errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestPartialFailureError_Unwrap(t *testing.T) {
	cause := &SelectorTimeoutError{Selector: "mat-card", Err: context.DeadlineExceeded}
	err := error(&PartialFailureError{PagesCompleted: 2, TotalPages: 5, RecordsCollected: 40, Err: cause})

	var timeout *SelectorTimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "mat-card", timeout.Selector)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "2/5 pages")
}

func TestDiscountRecord_HasImage(t *testing.T) {
	assert.False(t, DiscountRecord{}.HasImage())
	assert.True(t, DiscountRecord{ImageURL: "https://img.example/a.jpg"}.HasImage())
}
