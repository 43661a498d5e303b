package handler

import (
	"errors"
	"net/http"

	"social_connect_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ResponseData 统一响应结构体
// success 冗余一份布尔结果，客户端无需对照错误码表即可分支
type ResponseData struct {
	Success bool              `json:"success"`
	Code    int               `json:"code"`              // 业务响应状态码
	Message string            `json:"message"`           // 提示信息
	Data    any               `json:"data,omitempty"`    // 数据
	Errors  map[string]string `json:"errors,omitempty"`  // 字段级校验错误
}

// HandleSuccess 返回成功响应 (200)
func HandleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, ResponseData{
		Success: true,
		Code:    errorx.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// HandleCreated 返回资源创建成功响应 (201)
func HandleCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, ResponseData{
		Success: true,
		Code:    errorx.CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// httpStatusOf 业务错误码到 HTTP 状态码的映射
func httpStatusOf(code int) int {
	switch code {
	case errorx.CodeInvalidParam:
		return http.StatusBadRequest
	case errorx.CodeUnauthorized:
		return http.StatusUnauthorized
	case errorx.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 通用错误处理方法
// 自动识别 errorx.CodeError 类型的业务错误，或者将系统错误转换为 CodeServerBusy
// 使用示例：
//
//	if err := svc.DoSomething(); err != nil {
//	    HandleError(c, err)
//	    return
//	}
func HandleError(c *gin.Context, err error) {
	// 1. 尝试断言为 *errorx.CodeError 类型
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		// 业务错误：返回携带的错误码和消息，HTTP 状态码按错误码映射
		c.JSON(httpStatusOf(codeErr.Code), ResponseData{
			Success: false,
			Code:    codeErr.Code,
			Message: codeErr.Msg,
		})
		return
	}

	// 2. 系统错误或未知错误：记录日志并返回服务繁忙
	zap.L().Error("system error",
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, ResponseData{
		Success: false,
		Code:    errorx.ErrServerBusy.Code,
		Message: errorx.ErrServerBusy.Msg,
	})
}

// HandleParamError 处理参数绑定错误（带 validator 翻译支持）(400)
// 自动识别 validator.ValidationErrors 类型并进行翻译
func HandleParamError(c *gin.Context, err error) {
	// 尝试断言为 validator.ValidationErrors 类型
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		// validator.ValidationErrors 类型错误则进行翻译
		// 翻译后去除结构体名前缀，提升用户体验
		translatedErrs := RemoveTopStruct(validationErrs.Translate(Trans))
		c.JSON(http.StatusBadRequest, ResponseData{
			Success: false,
			Code:    errorx.ErrInvalidParam.Code,
			Message: errorx.ErrInvalidParam.Msg,
			Errors:  translatedErrs,
		})
		return
	}

	// 非 validator 错误（如 JSON 格式错误）
	zap.L().Error("param bind error", zap.Error(err))
	c.JSON(http.StatusBadRequest, ResponseData{
		Success: false,
		Code:    errorx.ErrInvalidParam.Code,
		Message: errorx.ErrInvalidParam.Msg,
	})
}
