package middleware

import (
	"bytes"
	"encoding/json"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/service"
	"forex_edu_backend/internal/util"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxLoggedBodyBytes = 64 << 10
)

// ActivityRecorder 持久化审计记录
type ActivityRecorder interface {
	Record(entry *model.ActivityLog)
}

// ActivityLogger 在处理完成后为已认证用户写入审计记录
func ActivityLogger(recorder ActivityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := model.GenerateUUID()
		c.Header(requestIDHeader, requestID)

		body := captureJSONBody(c)

		c.Next()

		path := c.Request.URL.Path
		if !service.ShouldLogRequest(c.Request.Method, path) {
			return
		}
		claims := util.GetUserFromContext(c)
		if claims == nil {
			return
		}

		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}

		recorder.Record(&model.ActivityLog{
			UserID:         claims.UserID,
			RequestID:      requestID,
			ActionType:     service.ActionType(c.Request.Method, path),
			Endpoint:       path,
			Method:         c.Request.Method,
			RequestData:    service.RequestData(c.Request.URL.Query(), body, params),
			ResponseStatus: c.Writer.Status(),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
			DurationMs:     time.Since(start).Milliseconds(),
		})
	}
}

// captureJSONBody 读取 JSON 请求体并放回，供后续处理器再次读取
func captureJSONBody(c *gin.Context) map[string]interface{} {
	if c.Request.Body == nil || !strings.Contains(c.ContentType(), "json") {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxLoggedBodyBytes+1))
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
	if len(raw) > maxLoggedBodyBytes {
		return nil
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return body
}
