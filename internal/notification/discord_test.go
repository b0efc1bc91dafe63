package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordSendsEmbeds(t *testing.T) {
	var got []DiscordMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var msg DiscordMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		got = append(got, msg)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.Client(), srv.URL+"/err", srv.URL+"/ok")
	require.NoError(t, d.SendSuccess(context.Background(), "Bangalore 2020 done"))
	require.NoError(t, d.SendError(context.Background(), "boom"))

	require.Len(t, got, 2)
	assert.Equal(t, colorGreen, got[0].Embeds[0].Color)
	assert.Contains(t, got[0].Embeds[0].Description, "Bangalore 2020 done")
	assert.Equal(t, colorRed, got[1].Embeds[0].Color)
	assert.Contains(t, got[1].Embeds[0].Description, "boom")
}

func TestDiscordReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscord(srv.Client(), srv.URL, "").SendError(context.Background(), "x")
	assert.ErrorContains(t, err, "status code: 400")
}

func TestDiscordWithoutURLIsNoop(t *testing.T) {
	assert.NoError(t, NewDiscord(nil, "", "").SendSuccess(context.Background(), "x"))
}
