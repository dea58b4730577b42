package proofservice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := NewServer(4, zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any, out any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestGenerateAndVerifyProof(t *testing.T) {
	srv := newTestServer(t)

	var proof ProofResponse
	resp := postJSON(t, srv.URL+"/generate-proof", ProofRequest{
		Deck:          []uint8{0, 1, 0, 1},
		Salt:          "s",
		Position:      1,
		RevealedValue: 1,
	}, &proof)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, proof.Proof)
	require.Len(t, proof.Journal, 3*32*2, "journal is three hex field elements")
	require.Len(t, proof.Commitment, 32*2)

	var verdict VerifyResponse
	resp = postJSON(t, srv.URL+"/verify-proof", VerifyRequest{
		Proof:   proof.Proof,
		Journal: proof.Journal,
	}, &verdict)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, verdict.Valid, verdict.Message)
}

func TestVerifyRejectsTamperedJournal(t *testing.T) {
	srv := newTestServer(t)

	var proof ProofResponse
	postJSON(t, srv.URL+"/generate-proof", ProofRequest{
		Deck:          []uint8{0, 1, 0, 1},
		Salt:          "s",
		Position:      0,
		RevealedValue: 0,
	}, &proof)

	// Claim a different revealed value by rewriting the journal's last word.
	tampered := []byte(proof.Journal)
	copy(tampered[len(tampered)-2:], "05")

	var verdict VerifyResponse
	postJSON(t, srv.URL+"/verify-proof", VerifyRequest{
		Proof:   proof.Proof,
		Journal: string(tampered),
	}, &verdict)
	require.False(t, verdict.Valid)
}

func TestGenerateProofValidation(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/generate-proof", ProofRequest{
		Deck: []uint8{0, 1},
		Salt: "s",
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/generate-proof", ProofRequest{
		Deck:     []uint8{0, 1, 0, 1},
		Salt:     "s",
		Position: 4,
	}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
