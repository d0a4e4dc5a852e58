package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type usernameInput struct {
	Username string `validate:"required,username"`
	Email    string `validate:"omitempty,email"`
}

func TestValidateStruct_Username(t *testing.T) {
	valid := []string{"alice", "a", "first.last", "user+tag", "me@host", "snake_case-1", "józef", "用户名", strings.Repeat("ж", 150)}
	for _, name := range valid {
		assert.NoError(t, ValidateStruct(usernameInput{Username: name}), name)
	}

	invalid := []string{"", "has space", "semi;colon", "emoji😀", strings.Repeat("a", 151), strings.Repeat("ж", 151)}
	for _, name := range invalid {
		assert.Error(t, ValidateStruct(usernameInput{Username: name}), name)
	}
}

func TestValidateStruct_Messages(t *testing.T) {
	err := ValidateStruct(usernameInput{Username: "", Email: "nope"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "username: this field is required")
		assert.Contains(t, err.Error(), "email: enter a valid email address")
	}
}

type passwordInput struct {
	Password string `validate:"required,password"`
}

func TestValidateStruct_PasswordBytes(t *testing.T) {
	assert.NoError(t, ValidateStruct(passwordInput{Password: strings.Repeat("a", MaxPasswordBytes)}))

	err := ValidateStruct(passwordInput{Password: strings.Repeat("a", MaxPasswordBytes+1)})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "password: must be at most 72 bytes")
	}

	// 40个字符，但是80字节
	assert.Error(t, ValidateStruct(passwordInput{Password: strings.Repeat("é", 40)}))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 100))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("pw123")
	assert.NoError(t, err)
	assert.True(t, IsBcryptHash(hash))
	assert.NoError(t, CheckPassword("pw123", hash))
	assert.Error(t, CheckPassword("wrong", hash))
	assert.False(t, IsBcryptHash("pw123"))
}
