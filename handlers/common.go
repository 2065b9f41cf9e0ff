// Package handlers 提供HTTP请求处理函数
package handlers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"go_commission/logger"
	"go_commission/middleware"
	"go_commission/progression"
	"go_commission/services"
)

// validate 请求参数校验器，校验错误中使用json字段名
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate 解析请求体并校验
// 返回 false 时响应已写入，调用方应直接返回第二个返回值
func bindAndValidate(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败，请检查输入格式",
		})
	}
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationMessage(err),
		})
	}
	return true, nil
}

// validationMessage 把校验错误转换为提示信息，只返回第一个字段
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return "参数校验失败"
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " 不能为空"
	case "email":
		return fe.Field() + " 不是有效的邮箱地址"
	case "gt":
		return fe.Field() + " 必须大于 " + fe.Param()
	case "gte", "min":
		return fe.Field() + " 不能小于 " + fe.Param()
	case "max", "lte":
		return fe.Field() + " 不能大于 " + fe.Param()
	case "oneof":
		return fe.Field() + " 必须是以下值之一: " + fe.Param()
	default:
		return fe.Field() + " 格式不正确"
	}
}

// paramID 读取路径参数中的ID
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// unauthorized 未通过认证中间件时的统一响应
func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "未登录或登录已失效",
	})
}

// serviceError 将服务层错误映射为HTTP响应
func serviceError(c *fiber.Ctx, log *logger.Logger, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInactiveMember):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvitationInvalid):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvitationConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvitationExpired),
		errors.Is(err, services.ErrAlreadyInTeam),
		errors.Is(err, services.ErrCircularTeam),
		errors.Is(err, services.ErrTeamDepthExceeded):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, progression.ErrInvalidInput):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	log.Errorw(action+"失败", "error", err, "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": action + "失败，请稍后重试",
	})
}

// pageResult 分页结果
func pageResult(total int64, page, size int, data interface{}) fiber.Map {
	return fiber.Map{
		"total": total,
		"page":  page,
		"size":  size,
		"data":  data,
	}
}
