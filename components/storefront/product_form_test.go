package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{in: "450", want: ptr(450)},
		{in: " 12.5 ", want: ptr(12.5)},
		{in: "12.5abc", want: ptr(12.5)},
		{in: "99 EUR", want: ptr(99)},
		{in: ".5", want: ptr(0.5)},
		{in: "-3", want: ptr(-3)},
		{in: "1e3x", want: ptr(1000)},
		{in: "abc", want: nil},
		{in: "", want: nil},
		{in: "Inf", want: nil},
		{in: "NaN", want: nil},
		{in: "1e999", want: nil},
		{in: "1e999abc", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := parsePrice(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tc.want, *got, 1e-9)
		})
	}
}

func ptr(v float64) *float64 { return &v }
