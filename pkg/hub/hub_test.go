package hub

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientStartGame(t *testing.T) {
	var got startGameRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/start-game", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.StartGame(context.Background(), "zk-memory", 7, "alice", "bob", big.NewInt(100), big.NewInt(250))
	require.NoError(t, err)
	require.Equal(t, startGameRequest{
		GameID:    "zk-memory",
		SessionID: 7,
		Player1:   "alice",
		Player2:   "bob",
		Stake1:    "100",
		Stake2:    "250",
	}, got)
}

func TestClientEndGameFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not escrowed", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.EndGame(context.Background(), 7, true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 409")
}
