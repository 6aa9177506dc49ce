package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/wfunc/physics-game/internal/config"
	apperrors "github.com/wfunc/physics-game/internal/errors"
	"github.com/wfunc/physics-game/internal/logger"
	"github.com/wfunc/physics-game/internal/models"
	"github.com/wfunc/physics-game/internal/repository"
	"go.uber.org/zap"
)

// 问答类型
const (
	QueryTypeHint        = "hint"
	QueryTypeExplanation = "explanation"
	QueryTypeAsk         = "ask"
)

// 上游不可用时的兜底回答，接口永远不对玩家暴露5xx
var fallbackAnswers = map[string]string{
	QueryTypeHint:        "Try breaking the problem into what you know and what you need to find, then pick the formula that links them.",
	QueryTypeExplanation: "The key idea is to identify the physical quantities involved and apply the matching conservation law or equation of motion step by step.",
	QueryTypeAsk:         "I can't reach the tutor service right now. Re-read the question, list the given values, and check which physics formula connects them.",
}

// AskRequest 一次提问
type AskRequest struct {
	UserID   uint
	LevelID  int
	Type     string // hint, explanation, ask
	Question string
	Context  string // 关卡题面等附加上下文
}

// AskResponse 回答结果
type AskResponse struct {
	Answer   string `json:"answer"`
	Fallback bool   `json:"fallback"`
}

// Client LLM代理客户端
// 自带滑动窗口限速（requests_per_minute），超限时在锁外等待配额释放；
// 上游出错或超时一律降级为兜底回答并落库标记。
type Client struct {
	cfg     config.LLMConfig
	httpc   *http.Client
	queries repository.LLMQueryRepository

	mu    sync.Mutex
	calls []time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// ClientOption 客户端可选参数
type ClientOption func(*Client)

// WithClock 注入时钟（测试用）
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// WithSleeper 注入等待函数（测试用）
func WithSleeper(sleep func(time.Duration)) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithHTTPClient 注入HTTP客户端（测试用）
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// NewClient 创建LLM代理客户端
func NewClient(cfg config.LLMConfig, queries repository.LLMQueryRepository, opts ...ClientOption) *Client {
	c := &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		queries: queries,
		now:     time.Now,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask 向上游模型提问
// 失败时返回兜底回答，error仅在记录落库失败等本地问题时返回。
func (c *Client) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	if req == nil || req.Question == "" {
		return nil, apperrors.New(apperrors.ErrInvalidParam, "问题不能为空")
	}
	queryType := req.Type
	if _, ok := fallbackAnswers[queryType]; !ok {
		queryType = QueryTypeAsk
	}

	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	start := c.now()
	answer, upstreamErr := c.callUpstream(ctx, req)
	latency := c.now().Sub(start)

	response := &AskResponse{Answer: answer}
	if upstreamErr != nil {
		logger.Warn("LLM上游请求失败，使用兜底回答",
			zap.Uint("user_id", req.UserID),
			zap.String("type", queryType),
			zap.Error(upstreamErr),
		)
		response.Answer = fallbackAnswers[queryType]
		response.Fallback = true
	}

	logger.LogLLMRequest(queryType, req.UserID, latency, response.Fallback)

	record := &models.LLMQuery{
		UserID:   req.UserID,
		LevelID:  req.LevelID,
		Type:     queryType,
		Query:    req.Question,
		Response: response.Answer,
		Fallback: response.Fallback,
	}
	if err := c.queries.Create(ctx, record); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}

	return response, nil
}

// throttle 滑动窗口自限速，超限时阻塞等待最早一次调用滑出窗口
func (c *Client) throttle(ctx context.Context) error {
	if c.cfg.RequestsPerMinute <= 0 {
		return nil
	}

	for {
		c.mu.Lock()
		now := c.now()
		cutoff := now.Add(-time.Minute)
		kept := c.calls[:0]
		for _, t := range c.calls {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		c.calls = kept

		if len(c.calls) < c.cfg.RequestsPerMinute {
			c.calls = append(c.calls, now)
			c.mu.Unlock()
			return nil
		}

		wait := c.calls[0].Add(time.Minute).Sub(now)
		c.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(err, apperrors.ErrLLMRateLimit)
		}
		c.sleep(wait)
	}
}

// geminiRequest Gemini generateContent 请求体
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse Gemini generateContent 响应体
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// callUpstream 调用上游模型
func (c *Client) callUpstream(ctx context.Context, req *AskRequest) (string, error) {
	prompt := c.buildPrompt(req)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.Endpoint, c.cfg.Model, c.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("上游返回 %d: %s", resp.StatusCode, string(data))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("上游响应为空")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// buildPrompt 组装提问上下文
func (c *Client) buildPrompt(req *AskRequest) string {
	var buf bytes.Buffer
	buf.WriteString("You are a friendly physics tutor inside an educational game. ")
	switch req.Type {
	case QueryTypeHint:
		buf.WriteString("Give a short hint without revealing the final answer.\n")
	case QueryTypeExplanation:
		buf.WriteString("Explain the solution step by step for a student.\n")
	default:
		buf.WriteString("Answer the student's question concisely.\n")
	}
	if req.Context != "" {
		buf.WriteString("Problem: ")
		buf.WriteString(req.Context)
		buf.WriteString("\n")
	}
	buf.WriteString("Student: ")
	buf.WriteString(req.Question)
	return buf.String()
}
