// Package hub provides game.Hub implementations: an HTTP client for a remote
// GameHub ledger and a logging stand-in for development.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to a remote GameHub over HTTP JSON. Calls are not retried;
// failures propagate to the state machine, which aborts the enclosing
// operation.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a hub client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type startGameRequest struct {
	GameID    string `json:"game_id"`
	SessionID uint32 `json:"session_id"`
	Player1   string `json:"player1"`
	Player2   string `json:"player2"`
	Stake1    string `json:"stake1"`
	Stake2    string `json:"stake2"`
}

type endGameRequest struct {
	SessionID  uint32 `json:"session_id"`
	Player1Won bool   `json:"player1_won"`
}

// StartGame asks the hub to lock both stakes for the session.
func (c *Client) StartGame(ctx context.Context, gameID string, sessionID uint32, player1, player2 string, stake1, stake2 *big.Int) error {
	return c.post(ctx, "/start-game", startGameRequest{
		GameID:    gameID,
		SessionID: sessionID,
		Player1:   player1,
		Player2:   player2,
		Stake1:    stakeString(stake1),
		Stake2:    stakeString(stake2),
	})
}

// EndGame reports the session outcome so the hub can settle stakes.
func (c *Client) EndGame(ctx context.Context, sessionID uint32, player1Won bool) error {
	return c.post(ctx, "/end-game", endGameRequest{SessionID: sessionID, Player1Won: player1Won})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode hub request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("hub call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("hub call %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func stakeString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// Logging accepts every call and logs it. Development stand-in only; it
// escrows nothing.
type Logging struct {
	Log zerolog.Logger
}

func (l Logging) StartGame(_ context.Context, gameID string, sessionID uint32, player1, player2 string, stake1, stake2 *big.Int) error {
	l.Log.Warn().
		Str("game_id", gameID).
		Uint32("session_id", sessionID).
		Str("player1", player1).
		Str("player2", player2).
		Str("stake1", stakeString(stake1)).
		Str("stake2", stakeString(stake2)).
		Msg("logging hub: start_game accepted without escrow")
	return nil
}

func (l Logging) EndGame(_ context.Context, sessionID uint32, player1Won bool) error {
	l.Log.Warn().
		Uint32("session_id", sessionID).
		Bool("player1_won", player1Won).
		Msg("logging hub: end_game accepted without settlement")
	return nil
}
