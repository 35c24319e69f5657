package platform

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

	"github.com/rs/zerolog"

	"github.com/apexmgmt/fansync/internal/logging"
)

const defaultCallTimeout = 10 * time.Second

// HTTPClient implements Gateway against the platform's HTTPS/JSON API.
type HTTPClient struct {
	baseURL  string
	token    string
	timeout  time.Duration
	pageSize int
	client   *http.Client
	logger   zerolog.Logger
}

// HTTPClientConfig configures an HTTPClient.
type HTTPClientConfig struct {
	BaseURL string
	Token   string

	// Timeout applies to each individual call, independent of any poll
	// interval. Default 10s.
	Timeout time.Duration

	// PageSize is the number of messages requested per page. Zero lets
	// the platform choose.
	PageSize int

	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// NewHTTPClient creates a gateway client for the platform API.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("gateway base URL required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid gateway base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &HTTPClient{
		baseURL:  base,
		token:    strings.TrimSpace(cfg.Token),
		timeout:  timeout,
		pageSize: cfg.PageSize,
		client:   &http.Client{Transport: cfg.Transport},
		logger:   logging.Component("gateway"),
	}, nil
}

// Wire types. The platform speaks camelCase JSON.

type threadDTO struct {
	FanID        string  `json:"fanId"`
	Handle       string  `json:"handle"`
	DisplayName  string  `json:"displayName"`
	Nickname     string  `json:"nickname,omitempty"`
	AvatarURL    string  `json:"avatarUrl,omitempty"`
	LTV          int64   `json:"ltv"`
	UnreadCount  int     `json:"unreadCount"`
	Muted        bool    `json:"muted"`
	RegisteredAt string  `json:"registeredAt"`
	LastMessage  *msgDTO `json:"lastMessage,omitempty"`
}

type msgDTO struct {
	ID          string   `json:"id"`
	Timestamp   string   `json:"timestamp"`
	Text        string   `json:"text,omitempty"`
	MediaRefs   []string `json:"mediaRefs,omitempty"`
	Price       int64    `json:"price,omitempty"`
	FromCreator bool     `json:"fromCreator"`
}

type listThreadsResponse struct {
	Threads []threadDTO `json:"threads"`
}

type listMessagesResponse struct {
	Messages      []msgDTO `json:"messages"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type sendRequest struct {
	Text      string   `json:"text,omitempty"`
	MediaRefs []string `json:"mediaRefs,omitempty"`
	Price     int64    `json:"price,omitempty"`
}

type sendResponse struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ListThreads implements Gateway.
func (c *HTTPClient) ListThreads(ctx context.Context, creatorID string) ([]Thread, error) {
	path := fmt.Sprintf("/creators/%s/threads", url.PathEscape(creatorID))
	var resp listThreadsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, false); err != nil {
		return nil, err
	}
	threads := make([]Thread, 0, len(resp.Threads))
	for _, dto := range resp.Threads {
		threads = append(threads, dto.toThread())
	}
	return threads, nil
}

// ListMessages implements Gateway.
func (c *HTTPClient) ListMessages(ctx context.Context, creatorID, fanID, pageToken string) (MessagePage, error) {
	path := fmt.Sprintf("/creators/%s/fans/%s/messages",
		url.PathEscape(creatorID), url.PathEscape(fanID))
	query := url.Values{}
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}
	if c.pageSize > 0 {
		query.Set("limit", fmt.Sprintf("%d", c.pageSize))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var resp listMessagesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, false); err != nil {
		return MessagePage{}, err
	}
	page := MessagePage{NextPageToken: resp.NextPageToken}
	page.Messages = make([]Message, 0, len(resp.Messages))
	for _, dto := range resp.Messages {
		page.Messages = append(page.Messages, dto.toMessage())
	}
	return page, nil
}

// SendMessage implements Gateway.
func (c *HTTPClient) SendMessage(ctx context.Context, creatorID, fanID string, payload SendPayload) (SendReceipt, error) {
	path := fmt.Sprintf("/creators/%s/fans/%s/messages",
		url.PathEscape(creatorID), url.PathEscape(fanID))
	req := sendRequest{Text: payload.Text, MediaRefs: payload.MediaRefs, Price: payload.Price}
	var resp sendResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp, true); err != nil {
		return SendReceipt{}, err
	}
	if resp.ID == "" {
		return SendReceipt{}, NewError(KindTransport, "platform returned an empty message id")
	}
	return SendReceipt{ServerID: resp.ID, Timestamp: parseTime(resp.Timestamp)}, nil
}

// do performs one API call with the per-call timeout and maps failures
// onto the error taxonomy. Context cancellation passes through
// unclassified so an abandoned call never reads as a failure.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, isSend bool) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewError(KindValidation, "encode request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, reader)
	if err != nil {
		return WrapError(KindTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// Caller cancellation wins over classification.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The per-call timeout is a transport failure.
		if errors.Is(err, context.DeadlineExceeded) {
			return NewError(KindTransport, "call timed out after %s", c.timeout)
		}
		return WrapError(KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return WrapError(KindTransport, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	return c.mapStatus(resp, isSend)
}

// mapStatus converts a non-2xx response into a classified error.
func (c *HTTPClient) mapStatus(resp *http.Response, isSend bool) error {
	var detail apiError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &detail)
	msg := detail.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("code", detail.Code).
		Msg("gateway call failed")

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return NewError(KindAuth, "%s", msg)
	case http.StatusForbidden:
		// On sends a 403 is a platform-level refusal (fan blocked the
		// sender); elsewhere it is a credential problem.
		if isSend {
			return NewError(KindRejected, "%s", msg)
		}
		return NewError(KindAuth, "%s", msg)
	case http.StatusTooManyRequests:
		return NewError(KindRateLimited, "%s", msg)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		if isSend {
			return NewError(KindValidation, "%s", msg)
		}
		return NewError(KindTransport, "%s", msg)
	default:
		return NewError(KindTransport, "status %d: %s", resp.StatusCode, msg)
	}
}

func (dto threadDTO) toThread() Thread {
	t := Thread{
		FanID:        dto.FanID,
		Handle:       dto.Handle,
		DisplayName:  dto.DisplayName,
		Nickname:     dto.Nickname,
		AvatarURL:    dto.AvatarURL,
		LTV:          dto.LTV,
		UnreadCount:  dto.UnreadCount,
		Muted:        dto.Muted,
		RegisteredAt: parseTime(dto.RegisteredAt),
	}
	if dto.LastMessage != nil {
		t.LastMessage = LastMessageSummary{
			Text:        dto.LastMessage.Text,
			HasMedia:    len(dto.LastMessage.MediaRefs) > 0,
			Timestamp:   parseTime(dto.LastMessage.Timestamp),
			FromCreator: dto.LastMessage.FromCreator,
		}
	}
	return t
}

func (dto msgDTO) toMessage() Message {
	return Message{
		ServerID:    dto.ID,
		Timestamp:   parseTime(dto.Timestamp),
		Text:        dto.Text,
		MediaRefs:   dto.MediaRefs,
		Price:       dto.Price,
		FromCreator: dto.FromCreator,
		Status:      StatusConfirmed,
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
