package httputil

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qualsight/pkg/logger"
)

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

// scriptedTransport serves one canned status per round trip and keeps every
// response body for close inspection
type scriptedTransport struct {
	statuses []int
	bodies   []*trackedBody
}

func (t *scriptedTransport) RoundTrip(_ *http.Request) (*http.Response, error) {
	status := t.statuses[len(t.bodies)]
	body := &trackedBody{Reader: strings.NewReader("payload")}
	t.bodies = append(t.bodies, body)
	return &http.Response{StatusCode: status, Body: body}, nil
}

func TestGetRetriesAndClosesAbandonedBodies(t *testing.T) {
	transport := &scriptedTransport{
		statuses: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests, http.StatusOK},
	}
	c := New(logger.NewNop()).WithRetry(2, time.Millisecond)
	c.httpClient.Transport = transport

	resp, err := c.Get(context.Background(), "http://example.test/data")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, transport.bodies, 3)
	assert.True(t, transport.bodies[0].closed, "first abandoned body must be closed")
	assert.True(t, transport.bodies[1].closed, "second abandoned body must be closed")
	assert.False(t, transport.bodies[2].closed, "returned body stays open for the caller")
}

func TestGetExhaustedRetriesReturnLastResponse(t *testing.T) {
	transport := &scriptedTransport{
		statuses: []int{http.StatusInternalServerError, http.StatusInternalServerError, http.StatusInternalServerError},
	}
	c := New(logger.NewNop()).WithRetry(2, time.Millisecond)
	c.httpClient.Transport = transport

	resp, err := c.Get(context.Background(), "http://example.test/data")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Len(t, transport.bodies, 3)
	assert.True(t, transport.bodies[0].closed)
	assert.True(t, transport.bodies[1].closed)
	assert.False(t, transport.bodies[2].closed)
}

func TestGetNoRetryWhenDisabled(t *testing.T) {
	transport := &scriptedTransport{statuses: []int{http.StatusInternalServerError}}
	c := New(logger.NewNop()).DisableRetry()
	c.httpClient.Transport = transport

	resp, err := c.Get(context.Background(), "http://example.test/data")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Len(t, transport.bodies, 1)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(http.StatusInternalServerError))
	assert.True(t, IsRetryableError(http.StatusBadGateway))
	assert.True(t, IsRetryableError(http.StatusTooManyRequests))
	assert.False(t, IsRetryableError(http.StatusOK))
	assert.False(t, IsRetryableError(http.StatusNotFound))
}
