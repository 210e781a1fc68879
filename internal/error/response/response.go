package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hoa-vote-service/internal/error/code"
)

// Response 定义统一的响应格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页数据
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code.ErrSuccess,
		Message: code.GetMessage(code.ErrSuccess),
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    code.ErrSuccess,
		Message: code.GetMessage(code.ErrSuccess),
		Data:    data,
	})
}

// Page 分页响应
func Page(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, PageData{List: list, Total: total, Page: page, PageSize: pageSize})
}

// Fail 失败响应
func Fail(c *gin.Context, errorCode int) {
	c.AbortWithStatusJSON(code.GetStatus(errorCode), Response{
		Code:    errorCode,
		Message: code.GetMessage(errorCode),
	})
}

// FailWithMessage 失败响应（自定义消息）
func FailWithMessage(c *gin.Context, errorCode int, message string) {
	c.AbortWithStatusJSON(code.GetStatus(errorCode), Response{
		Code:    errorCode,
		Message: message,
	})
}

// ParamError 参数错误响应
func ParamError(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.ErrValidation)
	}
	FailWithMessage(c, code.ErrValidation, message)
}

// ServerError 服务器错误响应，原始错误只记录在服务端
func ServerError(c *gin.Context) {
	Fail(c, code.ErrUnknown)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.ErrNotFound)
	}
	FailWithMessage(c, code.ErrNotFound, message)
}

// Forbidden 无权限响应
func Forbidden(c *gin.Context) {
	Fail(c, code.ErrForbidden)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.ErrTokenInvalid)
	}
	FailWithMessage(c, code.ErrTokenInvalid, message)
}
