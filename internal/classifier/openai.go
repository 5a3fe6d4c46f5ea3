package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	temperature      = 0.1
	maxTokensComment = 80
	maxTokensTopic   = 200
)

const commentSystemPrompt = `You are a multilingual assistant that analyzes the sentiment of social-media comments directed at public figures.
Classify the comment's sentiment as exactly ONE emotion: positive, negative or neutral.
Return only this JSON: { "emotion": "positive|negative|neutral", "topic": "topic in 3 words", "request": "request in 3 words" }
Example:
{"emotion": "negative", "topic": "low salaries", "request": "raise the salaries"}
(NO EXTRA TEXT, ONLY VALID JSON)`

const topicSystemPromptFormat = `You are an assistant that classifies social-media posts into exactly ONE of these topics: %s
Return only this JSON: { "topic": "Topic", "id": ID, "tags": ["up to 3 short tags"] }
(NO EXTRA TEXT, ONLY VALID JSON)`

// Emotion is the fixed tri-state enumeration the classifier contract
// guarantees, regardless of the comment's language.
const (
	EmotionPositive = "positive"
	EmotionNegative = "negative"
	EmotionNeutral  = "neutral"
)

// Result is the label triple attached to a comment.
type Result struct {
	Emotion string `json:"emotion"`
	Topic   string `json:"topic"`
	Request string `json:"request"`
}

// TopicOption is one entry of the closed topic list a post may be
// assigned to.
type TopicOption struct {
	ID   int
	Name string
}

// TopicResult is a post's assigned topic plus free-form tags.
type TopicResult struct {
	TopicID int
	Topic   string
	Tags    []string
}

type Options struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client wraps the OpenAI chat-completion API behind the two
// classification calls the pipeline needs. It is safe for concurrent use
// and bounds its own latency through the HTTP client timeout.
type Client struct {
	api    *openai.Client
	model  string
	logger zerolog.Logger
}

func New(opts Options, logger zerolog.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		api:    openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}, nil
}

// AnalyzeComment classifies one comment into the emotion/topic/request
// triple. langHint, when non-empty, is an ISO 639-1 code detected from the
// comment body and passed along as context.
func (c *Client) AnalyzeComment(ctx context.Context, text, langHint string) (Result, error) {
	if c == nil || c.api == nil {
		return Result{}, fmt.Errorf("classifier client is not initialized")
	}

	userPrompt := "Comment to analyze: " + text
	if langHint != "" {
		userPrompt = fmt.Sprintf("Comment to analyze (language %s): %s", langHint, text)
	}

	raw, err := c.complete(ctx, commentSystemPrompt, userPrompt, maxTokensComment)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := decodeJSONResponse(raw, &result); err != nil {
		return Result{}, err
	}

	emotion, err := normalizeEmotion(result.Emotion)
	if err != nil {
		return Result{}, err
	}
	result.Emotion = emotion
	return result, nil
}

// AssignTopic classifies a post title into one of the given topics.
func (c *Client) AssignTopic(ctx context.Context, title string, topics []TopicOption) (TopicResult, error) {
	if c == nil || c.api == nil {
		return TopicResult{}, fmt.Errorf("classifier client is not initialized")
	}
	if len(topics) == 0 {
		return TopicResult{}, fmt.Errorf("topic list is empty")
	}

	options := make([]string, 0, len(topics))
	for _, topic := range topics {
		options = append(options, fmt.Sprintf("id: %d, %s", topic.ID, topic.Name))
	}
	systemPrompt := fmt.Sprintf(topicSystemPromptFormat, strings.Join(options, "; "))

	raw, err := c.complete(ctx, systemPrompt, "The text to analyze is: "+title, maxTokensTopic)
	if err != nil {
		return TopicResult{}, err
	}

	var payload struct {
		Topic string      `json:"topic"`
		ID    json.Number `json:"id"`
		Tags  []string    `json:"tags"`
	}
	if err := decodeJSONResponse(raw, &payload); err != nil {
		return TopicResult{}, err
	}

	id, err := payload.ID.Int64()
	if err != nil {
		return TopicResult{}, fmt.Errorf("topic id %q is not numeric: %w", payload.ID.String(), err)
	}
	for _, topic := range topics {
		if topic.ID == int(id) {
			return TopicResult{TopicID: int(id), Topic: topic.Name, Tags: payload.Tags}, nil
		}
	}
	return TopicResult{}, fmt.Errorf("topic id %d is not in the offered list", id)
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func decodeJSONResponse(raw string, target any) error {
	onlyJSON, err := ExtractJSON(raw)
	if err != nil {
		return fmt.Errorf("unparsable completion: %w", err)
	}
	if err := json.Unmarshal([]byte(onlyJSON), target); err != nil {
		return fmt.Errorf("decode completion JSON: %w", err)
	}
	return nil
}

func normalizeEmotion(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case EmotionPositive, "positivo":
		return EmotionPositive, nil
	case EmotionNegative, "negativo":
		return EmotionNegative, nil
	case EmotionNeutral:
		return EmotionNeutral, nil
	default:
		return "", fmt.Errorf("emotion %q is outside the fixed enumeration", raw)
	}
}
