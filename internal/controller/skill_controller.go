package controller

import (
	"errors"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/service"
	"forex_edu_backend/internal/util"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// SkillController 技能经验与每日任务
type SkillController struct {
	SkillService   *service.SkillService
	MissionService *service.MissionService
}

func NewSkillController(skills *service.SkillService, missions *service.MissionService) *SkillController {
	return &SkillController{SkillService: skills, MissionService: missions}
}

// GetSkills godoc
// @Summary 获取技能列表及进度
// @Description 首次访问时为用户初始化全部技能
// @Tags 技能
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/skills [get]
func (c *SkillController) GetSkills(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.SkillService.InitializeUserSkills(claims.UserID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	skills, err := c.SkillService.GetUserSkills(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	stats, err := c.SkillService.GetUserSkillsStats(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"skills": skills, "stats": stats})
}

// Overview godoc
// @Summary 学习总览
// @Description 技能与任务的汇总信息，按类别分组技能
// @Tags 技能
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/skills/overview [get]
func (c *SkillController) Overview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	userID := claims.UserID

	var (
		skills       []service.SkillView
		skillStats   *repository.SkillStatsRow
		missionStats *service.MissionStats
	)

	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		skills, err = c.SkillService.GetUserSkills(userID)
		return err
	})
	g.Go(func() error {
		var err error
		skillStats, err = c.SkillService.GetUserSkillsStats(userID)
		return err
	})
	g.Go(func() error {
		var err error
		missionStats, err = c.MissionService.GetUserMissionsStats(userID)
		return err
	})
	if err := g.Wait(); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	byCategory := make(map[string][]service.SkillView)
	for _, s := range skills {
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	util.Success(ctx, gin.H{
		"overview": gin.H{
			"overall_progress":        int(math.Round(skillStats.AverageProgress)),
			"total_skills":            skillStats.TotalSkills,
			"maxed_skills":            skillStats.MaxedSkills,
			"total_xp":                skillStats.TotalXP,
			"mission_completion_rate": missionStats.CompletionRate,
		},
		"skills_by_category": byCategory,
		"recent_activities":  []interface{}{},
	})
}

// Missions godoc
// @Summary 今日任务
// @Description 先将过期任务标记为 expired，再生成今日任务（幂等）
// @Tags 任务
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/skills/missions [get]
func (c *SkillController) Missions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if _, err := c.MissionService.ExpireOldMissions(); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	missions, err := c.MissionService.GenerateDailyMissions(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	stats, err := c.MissionService.GetUserMissionsStats(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"missions": missions, "stats": stats})
}

// ClaimReward godoc
// @Summary 领取任务奖励
// @Tags 任务
// @Produce  json
// @Security ApiKeyAuth
// @Param   missionId path int true "任务ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "任务未完成"
// @Failure 404 {object} util.Response "任务不存在"
// @Router /api/skills/missions/{missionId}/claim [post]
func (c *SkillController) ClaimReward(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	missionID, err := strconv.ParseUint(ctx.Param("missionId"), 10, 64)
	if err != nil || missionID == 0 {
		util.BadRequest(ctx, "ID misiune invalid")
		return
	}

	reward, err := c.MissionService.ClaimMissionReward(claims.UserID, uint(missionID))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrMissionNotFound):
			util.Error(ctx, 404, "Misiunea nu a fost găsită")
		case errors.Is(err, util.ErrMissionNotCompleted):
			util.BadRequest(ctx, "Misiunea nu este completată")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"message": "Recompensă revendicată cu succes",
		"reward":  reward,
	})
}
