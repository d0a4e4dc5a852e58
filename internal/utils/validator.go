package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
)

// GetValidator 获取验证器实例
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// 注册自定义验证函数
		_ = validate.RegisterValidation("username", validateUsername)
		_ = validate.RegisterValidation("password", validatePassword)
	})
	return validate
}

// validateUsername 验证用户名：1-150个字符，字母、数字和 @.+-_
func validateUsername(fl validator.FieldLevel) bool {
	username := fl.Field().String()
	if n := utf8.RuneCountInString(username); n < 1 || n > 150 {
		return false
	}
	return usernamePattern.MatchString(username)
}

// validatePassword 验证密码字节长度，多字节字符按UTF-8字节计算
func validatePassword(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

// ValidateStruct 验证结构体
func ValidateStruct(s interface{}) error {
	if err := GetValidator().Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError 格式化验证错误
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s: this field is required", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s: must be at least %s characters", field, e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s: must be at most %s characters", field, e.Param()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s: enter a valid email address", field))
		case "username":
			messages = append(messages, fmt.Sprintf("%s: letters, digits and @/./+/-/_ only, up to 150 characters", field))
		case "password":
			messages = append(messages, fmt.Sprintf("%s: must be at most %d bytes", field, MaxPasswordBytes))
		default:
			messages = append(messages, fmt.Sprintf("%s: failed on %s", field, e.Tag()))
		}
	}

	return errors.New(strings.Join(messages, "; "))
}
