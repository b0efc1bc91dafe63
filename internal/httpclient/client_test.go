package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboundDefaults(t *testing.T) {
	c := NewOutbound(0)
	assert.Equal(t, 30*time.Second, c.Timeout)
	c = NewOutbound(2 * time.Second)
	assert.Equal(t, 2*time.Second, c.Timeout)
}

func TestWithOAuth2Disabled(t *testing.T) {
	base := NewOutbound(time.Second)
	assert.Same(t, base, WithOAuth2(context.Background(), base, OAuth2Config{ClientID: "x"}))
}

func TestWithOAuth2AttachesBearer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	})
	var gotAuth string
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := WithOAuth2(context.Background(), NewOutbound(5*time.Second), OAuth2Config{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
	})
	resp, err := client.Get(srv.URL + "/search")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer tok-123", gotAuth)
}
