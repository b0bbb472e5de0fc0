package service

import (
	"context"
	"errors"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/util"
	"forex_edu_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type ChatService struct {
	UserRepo       *repository.UserRepository
	ChatRepo       *repository.ChatRepository
	AIService      *AIService
	MissionService *MissionService
}

func NewChatService(userRepo *repository.UserRepository, chatRepo *repository.ChatRepository, ai *AIService, missions *MissionService) *ChatService {
	return &ChatService{
		UserRepo:       userRepo,
		ChatRepo:       chatRepo,
		AIService:      ai,
		MissionService: missions,
	}
}

// ChatReply 一次流式回复；Message 为清洗后的用户输入
type ChatReply struct {
	Message string
	Chunks  <-chan string
	Errs    <-chan error
}

// HistoryItem 对话历史展示结构
type HistoryItem struct {
	Message   string `json:"message"`
	Response  string `json:"response"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// StreamReply 清洗输入、组装上下文并开始流式生成
func (s *ChatService) StreamReply(ctx context.Context, userID uint, message string, includeHistory bool) (*ChatReply, error) {
	ctx, span := tracing.Tracer.Start(ctx, "ChatService.StreamReply")
	defer span.End()

	clean := util.StripMarkup(message)
	if clean == "" {
		return nil, util.ErrEmptyMessage
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	level := user.Level
	if !level.Valid() {
		level = model.Beginner
	}
	span.SetAttributes(attribute.String("chat.level", string(level)), attribute.Bool("chat.history", includeHistory))

	messages := []AIChatMessage{{Role: "system", Content: chatSystemPrompt(level)}}
	if includeHistory {
		turns, err := s.ChatRepo.Recent(userID, util.ChatHistoryContext)
		if err != nil {
			return nil, err
		}
		for _, t := range turns {
			messages = append(messages,
				AIChatMessage{Role: "user", Content: t.Message},
				AIChatMessage{Role: "assistant", Content: t.Response},
			)
		}
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: clean})

	chunks, errs := s.AIService.ChatStream(ctx, messages)
	return &ChatReply{Message: clean, Chunks: chunks, Errs: errs}, nil
}

// SaveTurn 流式结束后保存对话并触发任务事件
func (s *ChatService) SaveTurn(userID uint, message, response string) ([]MissionUpdate, error) {
	turn := &model.ChatTurn{
		UserID:      userID,
		Message:     message,
		Response:    response,
		MessageType: model.ChatTypeForexEducation,
	}
	if err := s.ChatRepo.Create(turn); err != nil {
		return nil, err
	}
	return s.MissionService.ProcessMissionEvent(userID, MissionEvent{
		Type: EventChatMessageSent,
		Data: map[string]interface{}{
			"messageLength":  len([]rune(message)),
			"responseLength": len([]rune(response)),
		},
	})
}

// History 分页查询对话历史，hasMore 表示本页已满
func (s *ChatService) History(userID uint, limit, offset int) ([]HistoryItem, bool, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	turns, err := s.ChatRepo.ListByUser(userID, limit, offset)
	if err != nil {
		return nil, false, err
	}
	items := make([]HistoryItem, 0, len(turns))
	for _, t := range turns {
		items = append(items, HistoryItem{
			Message:   t.Message,
			Response:  t.Response,
			Type:      t.MessageType,
			Timestamp: t.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, len(turns) == limit, nil
}
