package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Mock Handler
// ---------------------------------------------------------------------------

type mockHandler struct {
	sendMessage func(ctx context.Context, req SendMessageRequest) (*Task, error)
	getTask     func(ctx context.Context, req GetTaskRequest) (*Task, error)
	cancelTask  func(ctx context.Context, req CancelTaskRequest) (*Task, error)
}

func (m *mockHandler) HandleSendMessage(ctx context.Context, req SendMessageRequest) (*Task, error) {
	if m.sendMessage != nil {
		return m.sendMessage(ctx, req)
	}
	return nil, fmt.Errorf("sendMessage not implemented")
}

func (m *mockHandler) HandleGetTask(ctx context.Context, req GetTaskRequest) (*Task, error) {
	if m.getTask != nil {
		return m.getTask(ctx, req)
	}
	return nil, fmt.Errorf("getTask not implemented")
}

func (m *mockHandler) HandleCancelTask(ctx context.Context, req CancelTaskRequest) (*Task, error) {
	if m.cancelTask != nil {
		return m.cancelTask(ctx, req)
	}
	return nil, fmt.Errorf("cancelTask not implemented")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testCard() AgentCard {
	return AgentCard{
		Name:        "test-judge",
		Description: "A test judge",
		Version:     "0.1.0",
		Skills: []AgentSkill{
			{ID: "compare", Name: "compare", Description: "Compares two values", Tags: []string{"test"}},
		},
	}
}

func startTestServer(t *testing.T, handler Handler) string {
	t.Helper()
	srv := NewServer(testCard(), handler)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func postRaw(t *testing.T, url string, body []byte) JSONRPCResponse {
	t.Helper()
	resp, err := http.Post(url+"/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpcResp JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcResp))
	return rpcResp
}

func completed(id string) *Task {
	return &Task{
		ID:     id,
		Status: TaskStatus{State: TaskStateCompleted, Timestamp: time.Now()},
		Artifacts: []Artifact{
			{ArtifactID: "verdict-" + id, Name: "verdict", Parts: []Part{{Data: json.RawMessage(`{"result":true}`)}}},
		},
	}
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

func TestServer_AgentCard(t *testing.T) {
	url := startTestServer(t, &mockHandler{})

	card, err := NewHTTPClient().DiscoverAgent(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, testCard().Name, card.Name)
	require.Len(t, card.Skills, 1)
	assert.Equal(t, "compare", card.Skills[0].ID)
}

func TestServer_ParseError(t *testing.T) {
	url := startTestServer(t, &mockHandler{})
	resp := postRaw(t, url, []byte("{invalid json"))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)
}

func TestServer_WrongVersion(t *testing.T) {
	url := startTestServer(t, &mockHandler{})
	resp := postRaw(t, url, []byte(`{"jsonrpc":"1.0","id":1,"method":"tasks/get","params":{}}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidRequest, resp.Error.Code)
}

func TestServer_MethodNotFound(t *testing.T) {
	url := startTestServer(t, &mockHandler{})
	resp := postRaw(t, url, []byte(`{"jsonrpc":"2.0","id":7,"method":"tasks/list","params":{}}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
	assert.EqualValues(t, 7, resp.ID)
}

func TestServer_InvalidParams(t *testing.T) {
	url := startTestServer(t, &mockHandler{})
	resp := postRaw(t, url, []byte(`{"jsonrpc":"2.0","id":1,"method":"message/send","params":"nope"}`))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidParams, resp.Error.Code)
}

// ---------------------------------------------------------------------------
// Client against server
// ---------------------------------------------------------------------------

func TestClient_SendMessage(t *testing.T) {
	var got SendMessageRequest
	url := startTestServer(t, &mockHandler{
		sendMessage: func(_ context.Context, req SendMessageRequest) (*Task, error) {
			got = req
			return completed("task-1"), nil
		},
	})

	part, err := DataPart(map[string]string{"first": "a", "second": "b"})
	require.NoError(t, err)

	task, err := NewHTTPClient().SendMessage(context.Background(), url, SendMessageRequest{
		Message:       Message{MessageID: "msg-1", Role: RoleUser, Parts: []Part{part}},
		Configuration: &SendMessageConfig{Blocking: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, TaskStateCompleted, task.Status.State)

	require.NotNil(t, got.Configuration)
	assert.True(t, got.Configuration.Blocking)
	var decoded map[string]string
	require.NoError(t, got.Message.Parts[0].Decode(&decoded))
	assert.Equal(t, "b", decoded["second"])
}

func TestClient_GetTaskNotFound(t *testing.T) {
	url := startTestServer(t, &mockHandler{
		getTask: func(_ context.Context, req GetTaskRequest) (*Task, error) {
			return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, req.ID)
		},
	})

	_, err := NewHTTPClient().GetTask(context.Background(), url, GetTaskRequest{ID: "missing"})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeTaskNotFound, rpcErr.Code)
	assert.Equal(t, MethodGetTask, rpcErr.Method)
}

func TestClient_CancelNotCancelable(t *testing.T) {
	url := startTestServer(t, &mockHandler{
		cancelTask: func(context.Context, CancelTaskRequest) (*Task, error) {
			return nil, ErrTaskNotCancelable
		},
	})

	_, err := NewHTTPClient().CancelTask(context.Background(), url, CancelTaskRequest{ID: "done"})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeTaskNotCancelable, rpcErr.Code)
}

func TestClient_HandlerError(t *testing.T) {
	url := startTestServer(t, &mockHandler{})
	_, err := NewHTTPClient().SendMessage(context.Background(), url, SendMessageRequest{})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrCodeInternal, rpcErr.Code)
	assert.Contains(t, err.Error(), "sendMessage not implemented")
}

func TestClient_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := NewHTTPClient().SendMessage(context.Background(), ts.URL, SendMessageRequest{})
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusServiceUnavailable, herr.Status)
	assert.Equal(t, MethodSendMessage, herr.Op)
	assert.Equal(t, "overloaded", herr.Body)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestClient_ResultWithoutTask(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req JSONRPCRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, MethodGetTask, req.Method)
		assert.EqualValues(t, 1, req.ID)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	}))
	defer ts.Close()

	_, err := NewHTTPClient().GetTask(context.Background(), ts.URL, GetTaskRequest{ID: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no task")
}

func TestClient_ContextCanceled(t *testing.T) {
	url := startTestServer(t, &mockHandler{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPClient().SendMessage(ctx, url, SendMessageRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer(testCard(), &mockHandler{
		sendMessage: func(context.Context, SendMessageRequest) (*Task, error) { return completed("t"), nil },
	})
	addr, err := srv.Start(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Stop(context.Background())

	task, err := NewHTTPClient(WithTimeout(5*time.Second)).SendMessage(context.Background(), "http://"+addr.String(), SendMessageRequest{})
	require.NoError(t, err)
	assert.Equal(t, "t", task.ID)
}

func TestPart_Decode(t *testing.T) {
	var v map[string]any
	assert.ErrorIs(t, TextPart("x").Decode(&v), ErrNoData)

	p, err := DataPart(map[string]bool{"result": false})
	require.NoError(t, err)
	assert.Equal(t, "application/json", p.MediaType)
	require.NoError(t, p.Decode(&v))
	assert.Equal(t, false, v["result"])
}
