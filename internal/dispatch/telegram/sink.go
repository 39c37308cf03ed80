// Package telegram delivers report summaries through the Telegram bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"docaudit/internal/audit/models"
)

const defaultAPIBase = "https://api.telegram.org"

type Sink struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

type Option func(*Sink)

// WithAPIBase points the sink at an alternative API host (tests).
func WithAPIBase(base string) Option {
	return func(s *Sink) {
		s.apiBase = base
	}
}

func New(token, chatID string, opts ...Option) (*Sink, error) {
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("telegram token and chat ID are required")
	}
	s := &Sink{
		token:   token,
		chatID:  chatID,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Sink) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (s *Sink) Send(ctx context.Context, _ models.Report, rendered string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: s.chatID, Text: rendered})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var decoded sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("telegram rejected message: %s", decoded.Description)
	}
	return nil
}
