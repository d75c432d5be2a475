package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method    string
	Path      string
	Body      map[string]interface{}
	RequestID string
}

type requestLog struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (l *requestLog) add(r recordedRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, r)
}

func (l *requestLog) at(i int) recordedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requests[i]
}

func (l *requestLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// fakeServer answers every request with reply and records what it received
func fakeServer(t *testing.T, status int, reply string) (*httptest.Server, *requestLog) {
	t.Helper()
	requests := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, RequestID: r.Header.Get("X-Request-ID")}
		if len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.Body))
		}
		requests.add(rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func runCLI(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetArgs(append([]string{"--server", server, "--wait", "0s"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddCommand(t *testing.T) {
	server, requests := fakeServer(t, http.StatusCreated,
		`{"success":true,"message":"Reminder set for 12:30 PM: stand up","reminder_id":4,"count":0}`)

	out, err := runCLI(t, server.URL, "add", "stand", "up", "--minutes", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Reminder set for 12:30 PM: stand up")

	require.Equal(t, 1, requests.count())
	req := requests.at(0)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v1/reminders", req.Path)
	assert.Equal(t, map[string]interface{}{"text": "stand up", "minutes": float64(30)}, req.Body)
	assert.NotEmpty(t, req.RequestID)

	_, err = runCLI(t, server.URL, "add", "review", "--at", "next week", "--every", "weekly")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"text": "review", "expression": "next week", "recurrence": "weekly"},
		requests.at(1).Body)

	_, err = runCLI(t, server.URL, "add", "x", "--minutes", "5", "--hours", "1")
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	server, _ := fakeServer(t, http.StatusOK, `{"success":true,"message":"You have 2 reminders","count":0,"reminders":[
		{"id":2,"text":"water plants","scheduled_time":"2024-03-01T14:00:00Z","status":"scheduled","recurrence":"daily"},
		{"id":1,"text":"call mom","scheduled_time":"2024-03-01T12:05:00Z","status":"triggered"}]}`)

	out, err := runCLI(t, server.URL, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "You have 2 reminders")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "water plants")
	assert.Contains(t, out, "(daily)")
	assert.Contains(t, out, "triggered")
}

func TestCancelCommand(t *testing.T) {
	server, requests := fakeServer(t, http.StatusOK, `{"success":true,"message":"Cancelled 2 reminders matching 'meeting'","count":2}`)

	out, err := runCLI(t, server.URL, "cancel", "--text", "meeting")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled 2 reminders")
	assert.Equal(t, "/api/v1/reminders/cancel", requests.at(0).Path)

	_, err = runCLI(t, server.URL, "cancel", "7")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, requests.at(1).Method)
	assert.Equal(t, "/api/v1/reminders/7", requests.at(1).Path)

	_, err = runCLI(t, server.URL, "cancel")
	assert.EqualError(t, err, "give a reminder id or --text")

	_, err = runCLI(t, server.URL, "cancel", "abc")
	assert.EqualError(t, err, `invalid reminder id "abc"`)
}

func TestSnoozeAndCleanupDefaults(t *testing.T) {
	server, requests := fakeServer(t, http.StatusOK, `{"success":true,"message":"ok","count":0}`)

	_, err := runCLI(t, server.URL, "snooze", "3")
	require.NoError(t, err)
	assert.Nil(t, requests.at(0).Body)

	_, err = runCLI(t, server.URL, "snooze", "3", "--minutes", "45")
	require.NoError(t, err)
	assert.Equal(t, float64(45), requests.at(1).Body["minutes"])

	_, err = runCLI(t, server.URL, "cleanup")
	require.NoError(t, err)
	assert.Nil(t, requests.at(2).Body)

	_, err = runCLI(t, server.URL, "cleanup", "--days", "0")
	require.NoError(t, err)
	assert.Equal(t, float64(0), requests.at(3).Body["retention_days"])
}

func TestServerErrors(t *testing.T) {
	server, _ := fakeServer(t, http.StatusNotFound,
		`{"success":false,"message":"Reminder 9 not found","count":0,"error_code":"REMINDER_NOT_FOUND"}`)

	_, err := runCLI(t, server.URL, "get", "9")
	require.Error(t, err)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "REMINDER_NOT_FOUND", apiErr.Code)
	assert.Contains(t, err.Error(), "Reminder 9 not found")
}

func TestClientRetriesWhileUnavailable(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"success":false,"message":"Reminders are not available right now (still starting)","count":0,"error_code":"SERVICE_UNAVAILABLE"}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"message":"No reminders found","count":0}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 5*time.Second)
	resp, err := client.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No reminders found", resp.Message)
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(0)
	client = NewClient(server.URL, time.Second, 0)
	_, err = client.List(context.Background())
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}
