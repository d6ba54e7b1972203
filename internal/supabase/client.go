// Package supabase 通过 PostgREST 表接口和 GoTrue 认证接口访问托管的 Supabase 项目
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/controla/internal/logger"
	"github.com/controla/internal/store"
	"go.uber.org/zap"
)

const (
	maxResponseBytes = 1 << 20
	userAgent        = "controla/1.0"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client 对应一个 Supabase 项目
type Client struct {
	baseURL string
	anonKey string
	timeout time.Duration
	http    httpDoer
}

var _ store.Backend = (*Client)(nil)

// New 使用项目地址和公开的 anon key 构造客户端
func New(baseURL, anonKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		anonKey: strings.TrimSpace(anonKey),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient 替换底层传输，传 nil 恢复默认
func (c *Client) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: c.timeout}
		return
	}
	c.http = client
}

// Close 无需释放资源
func (c *Client) Close() error {
	return nil
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	prefer string
	body   any
}

// apiError 兼容 PostgREST 与 GoTrue 的错误结构
type apiError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	ErrorCode        string `json:"error_code"`
	Code             any    `json:"code"`
}

func (e apiError) text() string {
	for _, candidate := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

// statusError 表示非 2xx 响应
type statusError struct {
	Status int
	Code   string
	Text   string
}

func (e *statusError) Error() string {
	return e.Text
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	token := req.token
	if token == "" {
		token = c.anonKey
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.prefer != "" {
		httpReq.Header.Set("Prefer", req.prefer)
	}

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	started := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", store.ErrUnavailable, err)
	}

	logger.Logger.Debug("supabase request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(started)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", store.ErrUnavailable, err)
	}
	return nil
}

func decodeError(resp *http.Response, body []byte) error {
	var parsed apiError
	_ = json.Unmarshal(body, &parsed)

	text := parsed.text()
	if text == "" {
		text = strings.TrimSpace(string(body))
	}
	if text == "" {
		text = resp.Status
	}

	code := parsed.ErrorCode
	if code == "" {
		if s, ok := parsed.Code.(string); ok {
			code = s
		}
	}
	if code == "" {
		// 旧版 GoTrue 把错误码放在 error 字段
		code = strings.TrimSpace(parsed.Error)
	}

	return &statusError{Status: resp.StatusCode, Code: code, Text: text}
}

// unavailable 把失败标记为后端不可用，保留后端原始信息
func unavailable(op string, err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, store.ErrUnavailable, err)
}
