package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrongPassword(t *testing.T) {
	v := NewValidator()

	cases := map[string]bool{
		"Secret123":  true,
		"ABCDEFG1":   true,
		"secret123":  false,
		"SecretPass": false,
		"Sec1":       false,
		"":           false,
	}
	for password, want := range cases {
		assert.Equal(t, want, v.IsStrongPassword(password), password)
	}
}

func TestPlanUpgrade(t *testing.T) {
	v := NewValidator()

	type req struct {
		Plan string `validate:"required,plan_upgrade"`
	}
	assert.NoError(t, v.Struct(req{Plan: "pro"}))
	assert.NoError(t, v.Struct(req{Plan: "Enterprise"}))
	assert.Error(t, v.Struct(req{Plan: "free"}))
	assert.Error(t, v.Struct(req{Plan: "platinum"}))
	assert.Error(t, v.Struct(req{}))
}

func TestIsEmail(t *testing.T) {
	v := NewValidator()
	assert.True(t, v.IsEmail("ada@example.com"))
	assert.False(t, v.IsEmail("ada@"))
	assert.False(t, v.IsEmail(""))
}

func TestMessage(t *testing.T) {
	v := NewValidator()

	type req struct {
		Width int    `json:"width" validate:"omitempty,min=256,max=2048"`
		Plan  string `json:"plan" validate:"omitempty,plan_upgrade"`
	}
	assert.Equal(t, "width is out of range", Message(v.Struct(req{Width: 10})))
	assert.Equal(t, "Invalid plan", Message(v.Struct(req{Plan: "free"})))
	assert.Equal(t, "Invalid request", Message(assert.AnError))
}
