package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/veritas-team/meeting-pipeline/pkg/config"
)

// SlackClient is a minimal client for the Slack Web API, used to deliver
// meeting summaries to users
type SlackClient struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewSlackClient creates a Slack client using values from the provided config
func NewSlackClient(cfg *config.NotificationConfig) *SlackClient {
	base := "https://slack.com/api"
	if cfg != nil && cfg.SlackBaseURL != "" {
		base = cfg.SlackBaseURL
	}

	var token string
	if cfg != nil {
		token = cfg.SlackBotToken
	}

	return &SlackClient{
		token:   token,
		baseURL: base,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a bot token is configured
func (s *SlackClient) Enabled() bool { return s.token != "" }

// TextObject is a Block Kit text element
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block is a Block Kit layout block
type Block struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text,omitempty"`
}

// HeaderBlock builds a plain-text header block
func HeaderBlock(text string) Block {
	return Block{Type: "header", Text: &TextObject{Type: "plain_text", Text: text}}
}

// SectionBlock builds a markdown section block
func SectionBlock(markdown string) Block {
	return Block{Type: "section", Text: &TextObject{Type: "mrkdwn", Text: markdown}}
}

// DividerBlock builds a divider block
func DividerBlock() Block {
	return Block{Type: "divider"}
}

type postMessageRequest struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks,omitempty"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostMessage sends a message to a channel or user ID. Text is the fallback
// for clients that cannot render blocks.
func (s *SlackClient) PostMessage(ctx context.Context, channel, text string, blocks []Block) error {
	reqBody := postMessageRequest{
		Channel: channel,
		Text:    text,
		Blocks:  blocks,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	endpoint := s.baseURL + "/chat.postMessage"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	var pr postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return err
	}
	if !pr.OK {
		return fmt.Errorf("slack rejected message: %s", pr.Error)
	}
	return nil
}
