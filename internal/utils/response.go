package utils

import (
	"net/http"

	"labelhub/internal/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorBody 统一错误响应格式
type ErrorBody struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// Created 201响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// OK 200响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorBody{
		Code:  code,
		Error: message,
	})
}

// Error 根据错误类别写入响应，5xx错误记录到上下文供日志和上报使用
func Error(c *gin.Context, err error) {
	ErrorWithStatus(c, apperr.HTTPStatus(err), err)
}

// ErrorWithStatus 使用指定状态码写入错误
func ErrorWithStatus(c *gin.Context, code int, err error) {
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	ErrorResponse(c, code, apperr.MessageOf(err))
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

// Forbidden 403错误
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, message)
}

// NotFound 404错误
func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

// InternalError 500错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}
