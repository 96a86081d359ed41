package response

import (
	"net/http"

	"go-jewelry/pkg/errx"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构体
type Response struct {
	Code int         `json:"code"`           // 业务码
	Msg  string      `json:"msg"`            // 提示信息
	Data interface{} `json:"data,omitempty"` // 数据
}

// Success 成功响应 (Code=200)
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Response{
		Code: 200,
		Msg:  "success",
		Data: data,
	})
}

// Created 创建成功 (Code=201)
func Created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, Response{
		Code: http.StatusCreated,
		Msg:  "created",
		Data: data,
	})
}

// Error 失败响应
func Error(ctx *gin.Context, httpStatus int, msg string) {
	ctx.JSON(httpStatus, Response{
		Code: httpStatus, // 这里简单将 HTTP 状态码作为业务码，也可以自定义
		Msg:  msg,
		Data: nil,
	})
}

// FromError 根据错误分类决定状态码，内部错误只返回通用信息
func FromError(ctx *gin.Context, err error) {
	kind := errx.KindOf(err)
	if kind == errx.KindInternal {
		_ = ctx.Error(err)
	}
	Error(ctx, errx.HTTPStatus(kind), errx.MessageOf(err))
}
