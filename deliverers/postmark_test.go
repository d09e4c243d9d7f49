package deliverers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/maildrain"
	"github.com/mickamy/maildrain/deliverers"
)

func testItem() maildrain.QueueItem {
	return maildrain.QueueItem{
		ID:         7,
		Sender:     " noreply@example.com ",
		Recipients: "a@example.com, b@example.com",
		Subject:    "Welcome",
		PlainBody:  "hello",
		HTMLBody:   "<p>hello</p>",
	}
}

func TestNewPostmarkRequiresServerToken(t *testing.T) {
	t.Parallel()
	_, err := deliverers.NewPostmark(deliverers.PostmarkConfig{})
	assert.ErrorIs(t, err, deliverers.ErrInvalidConfig)
}

func TestPostmarkDeliverAccepted(t *testing.T) {
	t.Parallel()
	var got map[string]any
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = r.Header.Get("X-Postmark-Server-Token")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"To":"a@example.com","MessageID":"b7bc2f4a","ErrorCode":0,"Message":"OK"}`))
	}))
	t.Cleanup(srv.Close)

	p, err := deliverers.NewPostmark(deliverers.PostmarkConfig{ServerToken: "server-token", BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := p.Deliver(context.Background(), testItem())
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "server-token", token)
	assert.Equal(t, "noreply@example.com", got["From"])
	assert.Equal(t, "a@example.com,b@example.com", got["To"])
	assert.Equal(t, "Welcome", got["Subject"])
	assert.Equal(t, "hello", got["TextBody"])
}

func TestPostmarkDeliverRejected(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"ErrorCode":406,"Message":"You tried to send to a recipient that has been marked as inactive."}`))
	}))
	t.Cleanup(srv.Close)

	p, err := deliverers.NewPostmark(deliverers.PostmarkConfig{ServerToken: "server-token", BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := p.Deliver(context.Background(), testItem())
	assert.False(t, err == nil && res.Accepted, "Deliver() = %+v, %v; want a failure", res, err)
}

func TestPostmarkDeliverInvalidItem(t *testing.T) {
	t.Parallel()
	p, err := deliverers.NewPostmark(deliverers.PostmarkConfig{ServerToken: "server-token", BaseURL: "http://127.0.0.1:0"})
	require.NoError(t, err)

	_, err = p.Deliver(context.Background(), maildrain.QueueItem{Sender: "noreply@example.com"})
	assert.ErrorIs(t, err, deliverers.ErrInvalidItem)
}
