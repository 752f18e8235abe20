package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/croningp/NanoDiscovery/pkg/core/events"
)

// SlackPlugin Slack Webhook通知插件（对外导出）
type SlackPlugin struct {
	name       string
	webhookURL string
	channel    string
	client     *http.Client
	enabled    bool
}

// NewSlackPlugin 创建Slack通知插件（对外导出）
func NewSlackPlugin() Plugin {
	return &SlackPlugin{
		name: "slack",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		enabled: false,
	}
}

// Name 插件名称（实现Plugin接口）
func (s *SlackPlugin) Name() string {
	return s.name
}

// Init 初始化插件（实现Plugin接口）
func (s *SlackPlugin) Init(params map[string]string) error {
	s.webhookURL = params["webhook_url"]
	if s.webhookURL == "" {
		return fmt.Errorf("webhook_url参数不能为空")
	}
	s.channel = params["channel"]

	s.enabled = true
	log.Printf("✅ [SlackPlugin] 初始化完成: Channel=%s", s.channel)
	return nil
}

// Execute 发送Slack通知（实现Plugin接口）
func (s *SlackPlugin) Execute(data interface{}) error {
	if !s.enabled {
		return fmt.Errorf("Slack插件未初始化")
	}

	event, ok := data.(*events.Event)
	if !ok {
		return fmt.Errorf("插件数据类型错误")
	}

	payload := map[string]interface{}{
		"text": s.buildText(event),
	}
	if s.channel != "" {
		payload["channel"] = s.channel
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化Slack消息失败: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("发送Slack消息失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack Webhook返回异常状态码: %d", resp.StatusCode)
	}

	log.Printf("✅ [SlackPlugin] 消息发送成功: Event=%s", event.Type)
	return nil
}

// buildText 构建消息文本
func (s *SlackPlugin) buildText(event *events.Event) string {
	switch event.Type {
	case events.EventRunStarted:
		return fmt.Sprintf(":rocket: 运行启动 `%s` — %s", event.RunID, event.Message)
	case events.EventRunFinished:
		return fmt.Sprintf(":white_check_mark: 运行完成 `%s`", event.RunID)
	case events.EventRunFailed:
		return fmt.Sprintf(":x: 运行失败 `%s`: %s", event.RunID, event.Message)
	case events.EventGenerationSkip:
		return fmt.Sprintf(":warning: 运行 `%s` 跳过第%d代: %s", event.RunID, event.Generation, event.Message)
	default:
		return fmt.Sprintf("`%s` %s (第%d代, 实验%d) %s",
			event.RunID, event.Type, event.Generation, event.Experiment, event.Message)
	}
}
