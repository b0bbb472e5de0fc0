package service

import (
	"encoding/json"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/pkg/logger"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	MethodCustom      = "CUSTOM"
	ActionLoginOK     = "LOGIN_SUCCESS"
	ActionLoginFailed = "LOGIN_FAILED"
	hiddenValue       = "[HIDDEN]"
)

var sensitiveFields = []string{"password", "token", "secret", "key"}

var ignoredActivityPaths = []string{"/api/health", "/api/auth/me", "/favicon.ico"}

// ShouldLogRequest 排除健康检查等噪声请求
func ShouldLogRequest(method, path string) bool {
	if method == http.MethodOptions {
		return false
	}
	for _, p := range ignoredActivityPaths {
		if strings.Contains(path, p) {
			return false
		}
	}
	return true
}

// ActionType 将请求映射为审计动作类型
func ActionType(method, path string) string {
	switch {
	case strings.Contains(path, "/auth/login"):
		return "LOGIN"
	case strings.Contains(path, "/auth/logout"):
		return "LOGOUT"
	case strings.Contains(path, "/ai/chat") && method == http.MethodPost:
		return "AI_CHAT"
	case strings.Contains(path, "/ai/quiz") && method == http.MethodGet:
		return "QUIZ_GENERATE"
	case strings.Contains(path, "/ai/quiz/evaluate") && method == http.MethodPost:
		return "QUIZ_SUBMIT"
	case strings.Contains(path, "/ai/progress"):
		return "PROGRESS_VIEW"
	case strings.Contains(path, "/ai/chat/history"):
		return "CHAT_HISTORY_VIEW"
	case strings.Contains(path, "/ai/level") && method == http.MethodPut:
		return "LEVEL_UPDATE"
	case strings.Contains(path, "/users") && method == http.MethodGet:
		return "USERS_VIEW"
	case strings.Contains(path, "/users") && method == http.MethodPost:
		return "USER_CREATE"
	case strings.Contains(path, "/users") && method == http.MethodPut:
		return "USER_UPDATE"
	case strings.Contains(path, "/users") && method == http.MethodDelete:
		return "USER_DELETE"
	}
	last := "UNKNOWN"
	if i := strings.LastIndex(path, "/"); i >= 0 && i < len(path)-1 {
		last = strings.ToUpper(path[i+1:])
	}
	return method + "_" + last
}

// SanitizeBody 隐藏请求体中的敏感字段（仅顶层）
func SanitizeBody(body map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(body))
	for k, v := range body {
		out[k] = v
	}
	for _, f := range sensitiveFields {
		if v, ok := out[f]; ok && v != nil && v != "" {
			out[f] = hiddenValue
		}
	}
	return out
}

// RequestData 组装审计记录的请求数据，为空时返回 nil
func RequestData(query map[string][]string, body map[string]interface{}, params map[string]string) datatypes.JSON {
	data := map[string]interface{}{}
	if len(query) > 0 {
		flat := make(map[string]interface{}, len(query))
		for k, v := range query {
			if len(v) == 1 {
				flat[k] = v[0]
			} else {
				flat[k] = v
			}
		}
		data["query"] = flat
	}
	if len(body) > 0 {
		data["body"] = SanitizeBody(body)
	}
	if len(params) > 0 {
		data["params"] = params
	}
	if len(data) == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

type ActivityService struct {
	ActivityRepo *repository.ActivityRepository
	UserRepo     *repository.UserRepository
	Now          func() time.Time
}

func NewActivityService(activityRepo *repository.ActivityRepository, userRepo *repository.UserRepository) *ActivityService {
	return &ActivityService{ActivityRepo: activityRepo, UserRepo: userRepo, Now: time.Now}
}

// Record 写入审计记录，失败只记日志
func (s *ActivityService) Record(entry *model.ActivityLog) {
	if err := s.ActivityRepo.Create(entry); err != nil {
		logger.Log.Error("Failed to log user activity", zap.Uint("userID", entry.UserID), zap.Error(err))
	}
}

// LogCustom 记录非 HTTP 映射的业务事件，例如登录结果
func (s *ActivityService) LogCustom(userID uint, actionType string, details map[string]interface{}) {
	var data datatypes.JSON
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			data = datatypes.JSON(raw)
		}
	}
	s.Record(&model.ActivityLog{
		UserID:         userID,
		RequestID:      model.GenerateUUID(),
		ActionType:     actionType,
		Method:         MethodCustom,
		RequestData:    data,
		ResponseStatus: http.StatusOK,
	})
}

type ActivityLogView struct {
	ID             uint            `json:"id"`
	UserID         uint            `json:"userId"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	FullName       string          `json:"fullName"`
	Role           string          `json:"role"`
	RequestID      string          `json:"requestId"`
	ActionType     string          `json:"actionType"`
	Endpoint       string          `json:"endpoint"`
	Method         string          `json:"method"`
	RequestData    json.RawMessage `json:"requestData"`
	ResponseStatus int             `json:"responseStatus"`
	IPAddress      string          `json:"ipAddress"`
	UserAgent      string          `json:"userAgent"`
	DurationMs     int64           `json:"durationMs"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

type ActivityLogPage struct {
	Logs       []ActivityLogView `json:"logs"`
	Pagination Pagination        `json:"pagination"`
}

func (s *ActivityService) ListLogs(filter repository.ActivityFilter) (*ActivityLogPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var (
		rows  []repository.ActivityLogRow
		total int64
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		rows, err = s.ActivityRepo.List(filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.ActivityRepo.Count(filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logs := make([]ActivityLogView, 0, len(rows))
	for _, r := range rows {
		var data json.RawMessage
		if len(r.RequestData) > 0 {
			data = json.RawMessage(r.RequestData)
		}
		logs = append(logs, ActivityLogView{
			ID:             r.ID,
			UserID:         r.UserID,
			Username:       r.Username,
			Email:          r.Email,
			FullName:       r.FullName,
			Role:           r.Role,
			RequestID:      r.RequestID,
			ActionType:     r.ActionType,
			Endpoint:       r.Endpoint,
			Method:         r.Method,
			RequestData:    data,
			ResponseStatus: r.ResponseStatus,
			IPAddress:      r.IPAddress,
			UserAgent:      r.UserAgent,
			DurationMs:     r.DurationMs,
			CreatedAt:      r.CreatedAt,
		})
	}

	return &ActivityLogPage{
		Logs: logs,
		Pagination: Pagination{
			Total:   total,
			Limit:   filter.Limit,
			Offset:  filter.Offset,
			HasMore: int64(filter.Offset+filter.Limit) < total,
		},
	}, nil
}

type ActionStat struct {
	ActionType  string `json:"actionType"`
	Count       int64  `json:"count"`
	AvgDuration int64  `json:"avgDuration"`
}

type HourlyActivity struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type TopUser struct {
	UserID        uint       `json:"userId"`
	Username      string     `json:"username"`
	FullName      string     `json:"fullName"`
	Role          string     `json:"role"`
	ActivityCount int64      `json:"activityCount"`
	LastActivity  *time.Time `json:"lastActivity"`
}

type ActivityStats struct {
	ActionStats    []ActionStat     `json:"actionStats"`
	HourlyActivity []HourlyActivity `json:"hourlyActivity"`
	TopUsers       []TopUser        `json:"topUsers"`
}

// Stats 统计最近 days 天的动作分布、最近 24 小时的小时分布和最活跃用户
func (s *ActivityService) Stats(days int, userID uint) (*ActivityStats, error) {
	if days <= 0 {
		days = 7
	}
	now := s.Now()
	since := now.AddDate(0, 0, -days)

	var (
		actions    []repository.ActionStatRow
		timestamps []time.Time
		top        []repository.TopUserRow
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		actions, err = s.ActivityRepo.ActionStats(since, userID)
		return err
	})
	g.Go(func() error {
		var err error
		timestamps, err = s.ActivityRepo.TimestampsSince(now.Add(-24*time.Hour), userID)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.ActivityRepo.TopUsers(since, 10)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &ActivityStats{
		ActionStats:    make([]ActionStat, 0, len(actions)),
		HourlyActivity: bucketByHour(timestamps, now.Location()),
		TopUsers:       make([]TopUser, 0, len(top)),
	}
	for _, a := range actions {
		stats.ActionStats = append(stats.ActionStats, ActionStat{
			ActionType:  a.ActionType,
			Count:       a.Count,
			AvgDuration: int64(a.AvgDuration + 0.5),
		})
	}
	for _, t := range top {
		entry := TopUser{UserID: t.UserID, ActivityCount: t.ActivityCount}
		if u, err := s.UserRepo.FindByID(t.UserID); err == nil {
			entry.Username = u.Username
			entry.FullName = u.FullName
			entry.Role = string(u.Role)
		}
		if last, err := s.ActivityRepo.LastActivity(t.UserID); err == nil {
			entry.LastActivity = last
		}
		stats.TopUsers = append(stats.TopUsers, entry)
	}
	return stats, nil
}

// bucketByHour 按小时分组，只返回有数据的小时，按小时升序
func bucketByHour(timestamps []time.Time, loc *time.Location) []HourlyActivity {
	var counts [24]int64
	for _, ts := range timestamps {
		counts[ts.In(loc).Hour()]++
	}
	out := make([]HourlyActivity, 0, 24)
	for h, c := range counts {
		if c > 0 {
			out = append(out, HourlyActivity{Hour: h, Count: c})
		}
	}
	return out
}

func (s *ActivityService) ActionTypes() ([]string, error) {
	types, err := s.ActivityRepo.DistinctActionTypes()
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []string{}
	}
	return types, nil
}
