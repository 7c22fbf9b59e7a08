// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"genai-chat-go/internal/config"
	"genai-chat-go/pkg/log"
)

// FallbackReply 是远端服务不可用时返回给用户的固定降级回复。
// 聊天的连续性不允许被第三方故障打断，因此该回复永远可用。
const FallbackReply = "I'm sorry, I'm having trouble responding right now. Please try again later."

// titleMaxRunes 是标题降级截断的最大长度。
const titleMaxRunes = 50

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for an LLM client.
//
// 两个方法按契约都不返回 error：任何上游失败（网络、非 2xx、响应体
// 格式错误、超时）都会在内部被吸收并记录日志，调用方总能拿到可用文本。
type Client interface {
	// GenerateResponse 基于最新输入和之前的对话历史生成回复。
	// history 只包含本轮之前的消息，最新输入会被追加在最后。
	GenerateResponse(ctx context.Context, prompt string, history []Message) string
	// GenerateTitle 根据首条消息生成一个简短的会话标题。
	// 失败时回退为对 seed 的确定性截断，保证标题一定产出。
	GenerateTitle(ctx context.Context, seed string) string
}

type completionClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient 根据配置创建一个新的 LLM 客户端。
func NewClient(cfg config.LLMConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 30 * time.Second
	}
	return &completionClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateResponse 调用远端 chat completions 接口生成回复。
func (c *completionClient) GenerateResponse(ctx context.Context, prompt string, history []Message) string {
	if c.cfg.APIKey == "" {
		// 没有配置 API key 时必然失败，直接降级，不发起网络请求
		log.Warnf("llm: api key not configured, returning fallback reply")
		return FallbackReply
	}

	messages := append(c.recentWindow(history), Message{Role: "user", Content: prompt})
	reply, err := c.chatCompletion(ctx, messages, nil)
	if err != nil {
		log.Error("llm: chat completion failed, returning fallback reply", err)
		return FallbackReply
	}
	return reply
}

// GenerateTitle 请求远端为会话生成一个简短标题。
func (c *completionClient) GenerateTitle(ctx context.Context, seed string) string {
	if c.cfg.APIKey == "" {
		return truncateTitle(seed)
	}

	maxTokens := 20
	messages := []Message{
		{Role: "system", Content: "Generate a short title (at most 5 words) for a conversation that starts with the following message. Reply with the title only."},
		{Role: "user", Content: seed},
	}
	title, err := c.chatCompletion(ctx, messages, &maxTokens)
	if err != nil {
		log.Warnf("llm: title generation failed, falling back to truncation: %v", err)
		return truncateTitle(seed)
	}
	// 部分模型会给标题加引号
	title = strings.Trim(title, "\"'")
	if title == "" {
		return truncateTitle(seed)
	}
	return title
}

// recentWindow 返回最近 historyWindow 轮（一问一答）的历史消息。
// 发送给远端的上下文必须有界，完整历史仍保留在数据库中。
func (c *completionClient) recentWindow(history []Message) []Message {
	window := c.cfg.HistoryWindow
	if window <= 0 {
		window = 10
	}
	max := window * 2
	if len(history) > max {
		history = history[len(history)-max:]
	}
	return history
}

// chatCompletion 完成一次对 chat completions 接口的请求-响应往返。
func (c *completionClient) chatCompletion(ctx context.Context, messages []Message, maxTokens *int) (string, error) {
	reqBody := chatRequest{
		Model:     c.cfg.Model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat api returned non-2xx status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contains no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat response message content is empty")
	}
	return content, nil
}

// truncateTitle 把种子文本截断成一个有界长度的标题。
func truncateTitle(seed string) string {
	seed = strings.TrimSpace(seed)
	runes := []rune(seed)
	if len(runes) <= titleMaxRunes {
		return seed
	}
	return string(runes[:titleMaxRunes]) + "..."
}
