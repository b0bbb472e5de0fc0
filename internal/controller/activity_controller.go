package controller

import (
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/service"
	"forex_edu_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ActivityController 管理员查看操作审计
type ActivityController struct {
	ActivityService *service.ActivityService
}

func NewActivityController(activityService *service.ActivityService) *ActivityController {
	return &ActivityController{ActivityService: activityService}
}

func parseUserIDQuery(ctx *gin.Context) (uint, bool) {
	v := ctx.Query("userId")
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Logs godoc
// @Summary 审计日志
// @Tags 审计
// @Produce  json
// @Security ApiKeyAuth
// @Param   userId query int false "用户ID"
// @Param   actionType query string false "动作类型"
// @Param   startDate query string false "开始时间"
// @Param   endDate query string false "结束时间"
// @Param   limit query int false "数量" default(50)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=service.ActivityLogPage} "成功"
// @Router /api/activity/logs [get]
func (c *ActivityController) Logs(ctx *gin.Context) {
	userID, ok := parseUserIDQuery(ctx)
	if !ok {
		util.BadRequest(ctx, "Invalid userId")
		return
	}

	filter := repository.ActivityFilter{
		UserID:     userID,
		ActionType: ctx.Query("actionType"),
		Limit:      util.ParseIntDefault(ctx.Query("limit"), 50),
		Offset:     util.ParseIntDefault(ctx.Query("offset"), 0),
	}
	var err error
	if filter.StartDate, err = parseTimeParam(ctx.Query("startDate")); err != nil {
		util.BadRequest(ctx, "Invalid startDate")
		return
	}
	if filter.EndDate, err = parseTimeParam(ctx.Query("endDate")); err != nil {
		util.BadRequest(ctx, "Invalid endDate")
		return
	}

	page, err := c.ActivityService.ListLogs(filter)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, page)
}

// Stats godoc
// @Summary 审计统计
// @Tags 审计
// @Produce  json
// @Security ApiKeyAuth
// @Param   userId query int false "用户ID"
// @Param   days query int false "统计天数" default(7)
// @Success 200 {object} util.Response{data=service.ActivityStats} "成功"
// @Router /api/activity/stats [get]
func (c *ActivityController) Stats(ctx *gin.Context) {
	userID, ok := parseUserIDQuery(ctx)
	if !ok {
		util.BadRequest(ctx, "Invalid userId")
		return
	}

	stats, err := c.ActivityService.Stats(util.ParseIntDefault(ctx.Query("days"), 7), userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// ActionTypes godoc
// @Summary 已记录的动作类型
// @Tags 审计
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/activity/action-types [get]
func (c *ActivityController) ActionTypes(ctx *gin.Context) {
	types, err := c.ActivityService.ActionTypes()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"actionTypes": types})
}
