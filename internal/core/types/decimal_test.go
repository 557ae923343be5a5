package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMoney_HalfUp(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"1.004":  "1",
		"115":    "115",
		"2.345":  "2.35",
		"0.0049": "0",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got := RoundMoney(MustMoney(in))
			assert.True(t, got.Equal(MustMoney(want)), "RoundMoney(%s) = %s, want %s", in, got, want)
		})
	}
}

func TestNewMoneyFromString_RejectsGarbage(t *testing.T) {
	_, err := NewMoneyFromString("12,50")
	assert.Error(t, err)

	m, err := NewMoneyFromString("12.50")
	assert.NoError(t, err)
	assert.True(t, m.Equal(NewMoneyFromInt(25).Div(NewMoneyFromInt(2))))
}
