package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(HTTPClientConfig{
		BaseURL: srv.URL,
		Token:   "test-token",
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPClientConfig{})
	require.Error(t, err)
}

func TestListThreadsDecodesAndAuthenticates(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/creators/c1/threads", r.URL.Path)
		_ = json.NewEncoder(w).Encode(listThreadsResponse{Threads: []threadDTO{
			{
				FanID: "f1", Handle: "fan_one", DisplayName: "Fan One",
				LTV: 7500, UnreadCount: 3, RegisteredAt: "2025-01-02T15:04:05Z",
				LastMessage: &msgDTO{ID: "m1", Timestamp: "2025-06-01T10:00:00Z", Text: "hi", FromCreator: false},
			},
		}})
	}))

	threads, err := client.ListThreads(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, threads, 1)
	require.Equal(t, "f1", threads[0].FanID)
	require.Equal(t, int64(7500), threads[0].LTV)
	require.Equal(t, 3, threads[0].UnreadCount)
	require.Equal(t, "hi", threads[0].LastMessage.Text)
	require.False(t, threads[0].LastMessage.HasMedia)
}

func TestListMessagesPassesPageToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "tok-2", r.URL.Query().Get("pageToken"))
		_ = json.NewEncoder(w).Encode(listMessagesResponse{
			Messages:      []msgDTO{{ID: "m9", Timestamp: "2025-06-01T10:00:00Z", Text: "older"}},
			NextPageToken: "tok-3",
		})
	}))

	page, err := client.ListMessages(context.Background(), "c1", "f1", "tok-2")
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	require.Equal(t, StatusConfirmed, page.Messages[0].Status)
	require.Equal(t, "tok-3", page.NextPageToken)
}

func TestListMessagesSendsConfiguredPageSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "25", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(listMessagesResponse{})
	}))
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(HTTPClientConfig{BaseURL: srv.URL, PageSize: 25})
	require.NoError(t, err)
	_, err = client.ListMessages(context.Background(), "c1", "f1", "")
	require.NoError(t, err)
}

func TestSendMessageReceipt(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "hello", req.Text)
		_ = json.NewEncoder(w).Encode(sendResponse{ID: "srv-1", Timestamp: "2025-06-01T10:00:00Z"})
	}))

	receipt, err := client.SendMessage(context.Background(), "c1", "f1", SendPayload{Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, "srv-1", receipt.ServerID)
	require.False(t, receipt.Timestamp.IsZero())
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		isSend bool
		want   ErrorKind
	}{
		{"unauthorized", http.StatusUnauthorized, false, KindAuth},
		{"forbidden on list", http.StatusForbidden, false, KindAuth},
		{"forbidden on send", http.StatusForbidden, true, KindRejected},
		{"throttled", http.StatusTooManyRequests, false, KindRateLimited},
		{"bad payload on send", http.StatusUnprocessableEntity, true, KindValidation},
		{"bad request on list", http.StatusBadRequest, false, KindTransport},
		{"server error", http.StatusInternalServerError, false, KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(apiError{Message: "nope"})
			}))

			var err error
			if tt.isSend {
				_, err = client.SendMessage(context.Background(), "c1", "f1", SendPayload{Text: "x"})
			} else {
				_, err = client.ListThreads(context.Background(), "c1")
			}
			require.Error(t, err)
			kind, ok := KindOf(err)
			require.True(t, ok, "error should be classified: %v", err)
			require.Equal(t, tt.want, kind)
		})
	}
}

func TestCancellationIsNotClassified(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.ListThreads(ctx, "c1")
	require.ErrorIs(t, err, context.Canceled)
	_, classified := KindOf(err)
	require.False(t, classified)
}
