package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"forex_edu_backend/internal/config"
	"forex_edu_backend/pkg/monitoring"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// AI 错误类型
const (
	AIErrUnavailable = "unavailable"
	AIErrMalformed   = "malformed"
)

// AIError 文本生成服务调用失败
type AIError struct {
	Kind string
	Err  error
}

func (e *AIError) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Kind, e.Err)
}

func (e *AIError) Unwrap() error {
	return e.Err
}

func unavailable(err error) error {
	return &AIError{Kind: AIErrUnavailable, Err: err}
}

func malformed(err error) error {
	return &AIError{Kind: AIErrMalformed, Err: err}
}

type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	s := &AIService{}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig 配置热更新时替换模型参数
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = &http.Client{Timeout: timeout}
}

func (s *AIService) snapshot() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
		Delta   AIChatMessage `json:"delta"` // 流式响应
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CompletionOptions 单次调用覆盖默认参数
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

func (s *AIService) newRequest(ctx context.Context, cfg config.AIConfig, body ChatCompletionRequest) (*http.Request, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	return req, nil
}

// ChatStream 流式对话；正常结束时两个通道都会关闭，失败时 errChan 收到 *AIError
func (s *AIService) ChatStream(ctx context.Context, messages []AIChatMessage) (<-chan string, <-chan error) {
	out := make(chan string)
	errChan := make(chan error, 1)

	cfg, client := s.snapshot()
	body := ChatCompletionRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Stream:      true,
	}

	go func() {
		defer close(out)
		defer close(errChan)

		fail := func(err error) {
			monitoring.AIRequests.WithLabelValues("chat_stream", "error").Inc()
			errChan <- err
		}

		req, err := s.newRequest(ctx, cfg, body)
		if err != nil {
			fail(unavailable(err))
			return
		}

		// 流式响应不受整体超时限制，依赖 ctx 取消
		streamClient := &http.Client{Transport: client.Transport}
		resp, err := streamClient.Do(req)
		if err != nil {
			fail(unavailable(err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			fail(unavailable(fmt.Errorf("status %d: %s", resp.StatusCode, string(data))))
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					fail(unavailable(err))
					return
				}
				break
			}

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}

			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				break
			}

			var streamResp ChatCompletionResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				continue
			}
			if streamResp.Error != nil {
				fail(unavailable(errors.New(streamResp.Error.Message)))
				return
			}

			if len(streamResp.Choices) > 0 {
				content := streamResp.Choices[0].Delta.Content
				if content != "" {
					select {
					case out <- content:
					case <-ctx.Done():
						fail(unavailable(ctx.Err()))
						return
					}
				}
			}
		}
		monitoring.AIRequests.WithLabelValues("chat_stream", "ok").Inc()
	}()

	return out, errChan
}

// Complete 非流式调用，返回第一条回复文本
func (s *AIService) Complete(ctx context.Context, kind string, messages []AIChatMessage, opts CompletionOptions) (string, error) {
	cfg, client := s.snapshot()

	body := ChatCompletionRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	if opts.Temperature > 0 {
		body.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		body.MaxTokens = opts.MaxTokens
	}

	content, err := s.complete(ctx, client, cfg, body)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	monitoring.AIRequests.WithLabelValues(kind, outcome).Inc()
	return content, err
}

func (s *AIService) complete(ctx context.Context, client *http.Client, cfg config.AIConfig, body ChatCompletionRequest) (string, error) {
	req, err := s.newRequest(ctx, cfg, body)
	if err != nil {
		return "", unavailable(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", unavailable(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", unavailable(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", unavailable(fmt.Errorf("status %d: %s", resp.StatusCode, string(data)))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", malformed(err)
	}
	if result.Error != nil {
		return "", unavailable(errors.New(result.Error.Message))
	}
	if len(result.Choices) == 0 {
		return "", malformed(errors.New("no choices returned"))
	}

	return result.Choices[0].Message.Content, nil
}

// GenerateJSON 调用模型并把回复中第一个 { 到最后一个 } 之间的内容解析到 v
func (s *AIService) GenerateJSON(ctx context.Context, kind string, messages []AIChatMessage, opts CompletionOptions, v interface{}) error {
	content, err := s.Complete(ctx, kind, messages, opts)
	if err != nil {
		return err
	}
	raw, err := ExtractJSONObject(content)
	if err != nil {
		return malformed(err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return malformed(err)
	}
	return nil
}

func ExtractJSONObject(content string) (string, error) {
	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first == -1 || last == -1 || last <= first {
		return "", errors.New("no JSON object found in model output")
	}
	return content[first : last+1], nil
}
