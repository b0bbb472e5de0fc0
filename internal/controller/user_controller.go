package controller

import (
	"errors"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/service"
	"forex_edu_backend/internal/util"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// UserController 管理员维护用户
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// parseTimeParam 支持 RFC3339 与 yyyy-mm-dd 两种格式
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(util.DateFormat, value, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetUsers godoc
// @Summary 获取用户列表
// @Description 获取用户列表，支持分页和筛选
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(50)
// @Param   role query string false "角色筛选"
// @Param   isActive query bool false "是否激活"
// @Param   search query string false "搜索关键词"
// @Param   startDate query string false "开始日期"
// @Param   endDate query string false "结束日期"
// @Success 200 {object} util.Response{data=service.UserListResult} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Failure 403 {object} util.Response "需要管理员权限"
// @Router /api/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	filter := repository.UserFilter{
		Role:   ctx.Query("role"),
		Search: ctx.Query("search"),
		Page:   util.ParseIntDefault(ctx.Query("page"), 1),
		Limit:  util.ParseIntDefault(ctx.Query("limit"), 50),
	}
	if v := ctx.Query("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			util.BadRequest(ctx, "Invalid isActive value")
			return
		}
		filter.IsActive = &active
	}

	var err error
	if filter.CreatedAfter, err = parseTimeParam(ctx.Query("startDate")); err != nil {
		util.BadRequest(ctx, "Invalid startDate")
		return
	}
	if filter.CreatedBefore, err = parseTimeParam(ctx.Query("endDate")); err != nil {
		util.BadRequest(ctx, "Invalid endDate")
		return
	}

	result, err := c.UserService.List(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// CreateUser godoc
// @Summary 创建用户
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateUserInput true "用户信息"
// @Success 201 {object} util.Response{data=model.User} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "用户名或邮箱已存在"
// @Router /api/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req service.CreateUserInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Username, email and password are required")
		return
	}

	user, err := c.UserService.Create(req)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Created(ctx, user)
}

// UpdateUser godoc
// @Summary 更新用户
// @Tags 用户管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Param   body body service.UpdateUserInput true "更新字段"
// @Success 200 {object} util.Response{data=model.User} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Failure 409 {object} util.Response "用户名或邮箱已存在"
// @Router /api/users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "Invalid user ID")
		return
	}

	var req service.UpdateUserInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.Update(uint(id), req)
	if err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, user)
}

// DeleteUser godoc
// @Summary 删除用户
// @Description 同时删除该用户的全部学习数据
// @Tags 用户管理
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "用户ID"
// @Success 200 {object} util.Response "删除成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "Invalid user ID")
		return
	}

	if err := c.UserService.Delete(uint(id)); err != nil {
		c.writeError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "User deleted successfully"})
}

func (c *UserController) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound):
		util.Error(ctx, 404, "User not found")
	case errors.Is(err, util.ErrUserExists):
		util.Conflict(ctx, "Username or email already exists")
	case errors.Is(err, util.ErrMissingFields):
		util.BadRequest(ctx, "Username, email and password are required")
	case errors.Is(err, util.ErrInvalidRole):
		util.BadRequest(ctx, "Invalid role")
	case errors.Is(err, util.ErrInvalidLevel):
		util.BadRequest(ctx, "Invalid level")
	default:
		util.LogInternalError(ctx, err)
	}
}
