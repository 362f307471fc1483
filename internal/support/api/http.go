package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitdeskhq/fitdesk/internal/support"
)

const defaultTimeout = 15 * time.Second

// HTTPClient talks to the back-office REST surface. It carries a bearer
// token but owns no session logic; a 401/403 surfaces as
// support.ErrUnauthorized for the outer layer to handle.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// HTTPConfig configures the REST client.
type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// StatusError captures a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Token),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type startConversationRequest struct {
	ParticipantID string `json:"participantId"`
	Text          string `json:"text"`
}

type sendMessageRequest struct {
	Text    string `json:"text"`
	LocalID string `json:"localId,omitempty"`
}

type setStatusRequest struct {
	Status support.Status `json:"status"`
}

func (c *HTTPClient) ListConversations(ctx context.Context, status support.Status) ([]support.Conversation, error) {
	path := "/api/support/conversations?status=" + url.QueryEscape(string(status))
	var out []support.Conversation
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) StartConversation(ctx context.Context, participantID, text string) (support.Conversation, error) {
	var out support.Conversation
	err := c.do(ctx, http.MethodPost, "/api/support/conversations", startConversationRequest{
		ParticipantID: participantID,
		Text:          text,
	}, &out)
	if err != nil {
		return support.Conversation{}, err
	}
	return out, nil
}

func (c *HTTPClient) SendMessage(ctx context.Context, conversationID, text, localID string) (support.Message, error) {
	path := fmt.Sprintf("/api/support/conversations/%s/messages", url.PathEscape(conversationID))
	var out support.Message
	err := c.do(ctx, http.MethodPost, path, sendMessageRequest{Text: text, LocalID: localID}, &out)
	if err != nil {
		return support.Message{}, err
	}
	return out, nil
}

func (c *HTTPClient) MarkRead(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/api/support/conversations/%s/read", url.PathEscape(conversationID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *HTTPClient) SetStatus(ctx context.Context, conversationID string, status support.Status) error {
	path := fmt.Sprintf("/api/support/conversations/%s/status", url.PathEscape(conversationID))
	return c.do(ctx, http.MethodPut, path, setStatusRequest{Status: status}, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	upstream := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(snippet)),
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", support.ErrUnauthorized, upstream)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", support.ErrNotFound, upstream)
	case http.StatusNotImplemented:
		return fmt.Errorf("%w: %s", support.ErrNotSupported, upstream)
	}
	return upstream
}
