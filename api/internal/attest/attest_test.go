package attest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretGate(t *testing.T) {
	g := New("", "s3cret")

	assert.ErrorIs(t, g.Verify(context.Background(), ""), ErrMissing)
	assert.ErrorIs(t, g.Verify(context.Background(), "wrong"), ErrRejected)
	assert.NoError(t, g.Verify(context.Background(), "s3cret"))
}

func TestSecretGateDevModeAcceptsAnyToken(t *testing.T) {
	g := New("", "")

	assert.ErrorIs(t, g.Verify(context.Background(), ""), ErrMissing)
	assert.NoError(t, g.Verify(context.Background(), "anything"))
}

func TestRemoteGate(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotToken = body["token"]
		switch gotToken {
		case "good":
			w.WriteHeader(http.StatusOK)
		case "bad":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	g := New(srv.URL, "")

	assert.NoError(t, g.Verify(context.Background(), "good"))
	assert.Equal(t, "good", gotToken)
	assert.ErrorIs(t, g.Verify(context.Background(), "bad"), ErrRejected)

	err := g.Verify(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, g.Verify(context.Background(), ""), ErrMissing)
}

func TestRemoteGateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := New(srv.URL, "").Verify(context.Background(), "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
	assert.NotErrorIs(t, err, ErrMissing)
}
