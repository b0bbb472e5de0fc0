package controller

import (
	"errors"
	"forex_edu_backend/internal/service"
	"forex_edu_backend/internal/util"
	"forex_edu_backend/pkg/logger"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AIController 对话、测验与学习进度
type AIController struct {
	ChatService     *service.ChatService
	QuizService     *service.QuizService
	ProgressService *service.ProgressService
	UserService     *service.UserService
	IsRelease       bool
}

func NewAIController(chat *service.ChatService, quiz *service.QuizService, progress *service.ProgressService, users *service.UserService, isRelease bool) *AIController {
	return &AIController{
		ChatService:     chat,
		QuizService:     quiz,
		ProgressService: progress,
		UserService:     users,
		IsRelease:       isRelease,
	}
}

// ChatRequest 对话请求，includeHistory 默认为 true
// swagger:model ChatRequest
type ChatRequest struct {
	Message        string `json:"message" example:"Ce este un pip?"`
	IncludeHistory *bool  `json:"includeHistory"`
}

// EvaluateQuizRequest 提交测验答案
// swagger:model EvaluateQuizRequest
type EvaluateQuizRequest struct {
	Questions []service.QuizQuestion `json:"questions"`
	Answers   []string               `json:"answers"`
	Level     string                 `json:"level"`
	TimeSpent *int                   `json:"timeSpent"`
}

// UpdateLevelRequest 手动设置等级
// swagger:model UpdateLevelRequest
type UpdateLevelRequest struct {
	Level string `json:"level" example:"intermediate"`
}

func (c *AIController) upstreamError(ctx *gin.Context, message string, err error) bool {
	var aiErr *service.AIError
	if errors.As(err, &aiErr) {
		util.UpstreamError(ctx, message, err, c.IsRelease)
		return true
	}
	return false
}

// firstChunk 等待第一段输出或错误，在此之前不写响应
func firstChunk(reply *service.ChatReply) (string, bool, error) {
	errs := reply.Errs
	for {
		select {
		case chunk, ok := <-reply.Chunks:
			if !ok {
				return "", false, <-reply.Errs
			}
			return chunk, true, nil
		case err, ok := <-errs:
			if ok && err != nil {
				return "", false, err
			}
			errs = nil
		}
	}
}

// Chat godoc
// @Summary AI 外汇导师对话
// @Description 以纯文本分块流式返回回复，结束后保存对话
// @Tags AI
// @Accept  json
// @Produce  plain
// @Security ApiKeyAuth
// @Param   body body ChatRequest true "消息"
// @Success 200 {string} string "流式文本"
// @Failure 400 {object} util.Response "消息为空"
// @Failure 500 {object} util.Response "生成失败"
// @Router /api/ai/chat [post]
func (c *AIController) Chat(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		util.BadRequest(ctx, "Mesajul este obligatoriu")
		return
	}
	includeHistory := req.IncludeHistory == nil || *req.IncludeHistory

	reply, err := c.ChatService.StreamReply(ctx.Request.Context(), claims.UserID, req.Message, includeHistory)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEmptyMessage):
			util.BadRequest(ctx, "Mesajul este obligatoriu")
		case errors.Is(err, util.ErrUserNotFound):
			util.Error(ctx, 404, "User not found")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	first, ok, err := firstChunk(reply)
	if err != nil {
		util.UpstreamError(ctx, "Eroare la comunicarea cu asistentul AI. Încearcă din nou.", err, c.IsRelease)
		return
	}

	var full strings.Builder
	ctx.Header("Content-Type", "text/plain; charset=utf-8")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Status(200)

	if ok {
		full.WriteString(first)
		ctx.Writer.WriteString(first)
		ctx.Writer.Flush()
		ctx.Stream(func(w io.Writer) bool {
			chunk, more := <-reply.Chunks
			if !more {
				return false
			}
			full.WriteString(chunk)
			w.Write([]byte(chunk))
			return true
		})
	}

	// 客户端断开时继续排空通道
	for chunk := range reply.Chunks {
		full.WriteString(chunk)
	}
	if err := <-reply.Errs; err != nil {
		logger.Log.Error("Chat stream interrupted", zap.Uint("userID", claims.UserID), zap.Error(err))
		return
	}

	if _, err := c.ChatService.SaveTurn(claims.UserID, reply.Message, full.String()); err != nil {
		logger.Log.Error("Failed to save chat turn", zap.Uint("userID", claims.UserID), zap.Error(err))
	}
}

// ChatHistory godoc
// @Summary 对话历史
// @Tags AI
// @Produce  json
// @Security ApiKeyAuth
// @Param   limit  query int false "数量" default(20)
// @Param   offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/ai/chat/history [get]
func (c *AIController) ChatHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := util.ParseIntDefault(ctx.Query("limit"), 20)
	offset := util.ParseIntDefault(ctx.Query("offset"), 0)

	history, hasMore, err := c.ChatService.History(claims.UserID, limit, offset)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"history": history, "hasMore": hasMore})
}

// GetQuiz godoc
// @Summary 生成测验
// @Description 按用户当前等级生成 10 道选择题
// @Tags AI
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Quiz} "成功"
// @Failure 500 {object} util.Response "生成失败"
// @Router /api/ai/quiz [get]
func (c *AIController) GetQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	quiz, err := c.QuizService.Generate(ctx.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.Error(ctx, 404, "User not found")
			return
		}
		if c.upstreamError(ctx, "Eroare la generarea quiz-ului. Încearcă din nou.", err) {
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, quiz)
}

// EvaluateQuiz godoc
// @Summary 提交并评估测验
// @Tags AI
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body EvaluateQuizRequest true "题目与答案"
// @Success 200 {object} util.Response{data=service.QuizEvaluation} "成功"
// @Failure 400 {object} util.Response "题目与答案数量不一致"
// @Failure 500 {object} util.Response "评估失败"
// @Router /api/ai/quiz/evaluate [post]
func (c *AIController) EvaluateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req EvaluateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Date invalide pentru evaluare")
		return
	}

	result, err := c.QuizService.Evaluate(ctx.Request.Context(), claims.UserID, service.EvaluateInput{
		Questions: req.Questions,
		Answers:   req.Answers,
		Level:     req.Level,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuizMismatch):
			util.BadRequest(ctx, "Numărul de răspunsuri nu corespunde cu numărul de întrebări")
		case errors.Is(err, util.ErrInvalidQuiz), errors.Is(err, util.ErrInvalidLevel):
			util.BadRequest(ctx, "Date invalide pentru evaluare")
		case errors.Is(err, util.ErrUserNotFound):
			util.Error(ctx, 404, "User not found")
		default:
			if !c.upstreamError(ctx, "Eroare la evaluarea quiz-ului. Încearcă din nou.", err) {
				util.LogInternalError(ctx, err)
			}
		}
		return
	}

	util.Success(ctx, result)
}

// Progress godoc
// @Summary 学习进度统计
// @Tags AI
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.ProgressStats} "成功"
// @Router /api/ai/progress [get]
func (c *AIController) Progress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.ProgressService.GetStats(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(ctx, 404, "User not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// UpdateLevel godoc
// @Summary 手动设置等级
// @Tags AI
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateLevelRequest true "新等级"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "等级无效"
// @Router /api/ai/level [put]
func (c *AIController) UpdateLevel(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateLevelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Nivel invalid")
		return
	}

	level, err := c.UserService.SetLevel(claims.UserID, req.Level)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidLevel):
			util.BadRequest(ctx, "Nivel invalid")
		case errors.Is(err, util.ErrUserNotFound):
			util.Error(ctx, 404, "User not found")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"message":  "Nivelul a fost actualizat cu succes",
		"newLevel": level,
	})
}

// UserStats godoc
// @Summary 管理员查看用户测验统计
// @Tags AI
// @Produce  json
// @Security ApiKeyAuth
// @Param   userId path int true "用户ID"
// @Success 200 {object} util.Response{data=service.UserDetailedStats} "成功"
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/ai/user-stats/{userId} [get]
func (c *AIController) UserStats(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		util.BadRequest(ctx, "Invalid user ID")
		return
	}

	stats, err := c.ProgressService.GetUserDetailedStats(uint(userID))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(ctx, 404, "User not found")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}
