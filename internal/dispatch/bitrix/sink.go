// Package bitrix delivers report summaries to a Bitrix24 chat through an
// inbound webhook.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"docaudit/internal/audit/models"
)

type Sink struct {
	webhookURL string
	chatID     string
	client     *http.Client
}

func New(webhookURL, chatID string) (*Sink, error) {
	if webhookURL == "" || chatID == "" {
		return nil, fmt.Errorf("bitrix webhook URL and chat ID are required")
	}
	return &Sink{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		chatID:     chatID,
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (s *Sink) Name() string { return "bitrix" }

type messageRequest struct {
	DialogID string `json:"DIALOG_ID"`
	Message  string `json:"MESSAGE"`
}

type messageResponse struct {
	Result           json.RawMessage `json:"result"`
	ErrorDescription string          `json:"error_description"`
}

// Send posts the rendered report via im.message.add. Group chats need a
// "chat" prefix on the dialog ID; a bare numeric chat ID gets one.
func (s *Sink) Send(ctx context.Context, _ models.Report, rendered string) error {
	dialogID := s.chatID
	if !strings.HasPrefix(dialogID, "chat") {
		dialogID = "chat" + dialogID
	}

	body, err := json.Marshal(messageRequest{DialogID: dialogID, Message: rendered})
	if err != nil {
		return fmt.Errorf("encode bitrix message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL+"/im.message.add", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build bitrix request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send bitrix message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bitrix returned status %d", resp.StatusCode)
	}

	var decoded messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode bitrix response: %w", err)
	}
	if len(decoded.Result) == 0 || string(decoded.Result) == "null" || string(decoded.Result) == "false" {
		return fmt.Errorf("bitrix rejected message: %s", decoded.ErrorDescription)
	}
	return nil
}
