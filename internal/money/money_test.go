package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cartera/internal/money"
)

func TestFormatCOP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "zero", in: "0", want: "$0"},
		{name: "hundreds", in: "950", want: "$950"},
		{name: "thousands", in: "90000", want: "$90.000"},
		{name: "millions", in: "1234567", want: "$1.234.567"},
		{name: "rounds cents", in: "49999.5", want: "$50.000"},
		{name: "negative", in: "-1500", want: "-$1.500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, money.FormatCOP(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "1234.50", want: "1234.5"},
		{name: "colombian decimals", in: "1.234,50", want: "1234.5"},
		{name: "grouped thousands", in: "90.000", want: "90000"},
		{name: "currency prefix", in: "$ 1.250.000", want: "1250000"},
		{name: "integer", in: "40000", want: "40000"},
		{name: "empty", in: "  ", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCovers(t *testing.T) {
	total := decimal.RequireFromString("90000")

	assert.True(t, money.Covers(decimal.RequireFromString("90000"), total))
	assert.True(t, money.Covers(decimal.RequireFromString("89999.9999995"), total))
	assert.False(t, money.Covers(decimal.RequireFromString("89999.99"), total))
}

func TestGreaterThan(t *testing.T) {
	assert.True(t, money.GreaterThan(decimal.RequireFromString("100001"), decimal.RequireFromString("100000")))
	assert.False(t, money.GreaterThan(decimal.RequireFromString("100000.0000005"), decimal.RequireFromString("100000")))
	assert.False(t, money.GreaterThan(decimal.RequireFromString("5"), decimal.RequireFromString("10")))
}

func TestNonNegative(t *testing.T) {
	assert.True(t, money.NonNegative(decimal.NewFromInt(-3)).IsZero())
	assert.True(t, money.NonNegative(decimal.NewFromInt(3)).Equal(decimal.NewFromInt(3)))
}
