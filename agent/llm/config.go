package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/voxline/voxline/agent/contract"
	openaix "github.com/voxline/voxline/pkg/openai"
)

// Role selects which LLM surface a config is for: the tool-calling
// conversation model, or the instruction-only reply generator used for the
// greeting and voicemail message.
type Role string

const (
	RoleConversation Role = "conversation"
	RoleReply        Role = "reply"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	ConversationModel       string  `envconfig:"CONVERSATION_MODEL" split_words:"true"`
	ReplyModel              string  `envconfig:"REPLY_MODEL" split_words:"true"`
	ConversationTemperature float32 `envconfig:"CONVERSATION_TEMPERATURE" split_words:"true" default:"-1"`
	ReplyTemperature        float32 `envconfig:"REPLY_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenAIFor(role Role) openaix.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case RoleConversation:
		if v := strings.TrimSpace(c.ConversationModel); v != "" {
			modelName = v
		}
		if c.ConversationTemperature >= 0 {
			temp = c.ConversationTemperature
		}
	case RoleReply:
		if v := strings.TrimSpace(c.ReplyModel); v != "" {
			modelName = v
		}
		if c.ReplyTemperature >= 0 {
			temp = c.ReplyTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openaix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
