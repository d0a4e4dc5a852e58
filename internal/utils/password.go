package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes bcrypt只接受不超过72字节的密码
const MaxPasswordBytes = 72

// ErrPasswordTooLong 密码超过 MaxPasswordBytes
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// dummyHash 用户不存在时用于比较，使耗时与密码错误一致
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("labelhub-dummy-password"), bcrypt.DefaultCost)

// HashPassword 哈希密码
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// CheckPasswordDummy 与固定哈希比较，结果总是失败
func CheckPasswordDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// IsBcryptHash 判断字符串是否已经是bcrypt哈希
func IsBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
