package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func signedTx(t *testing.T) (*solana.Transaction, solana.PrivateKey) {
	t.Helper()
	key := solana.NewWallet().PrivateKey
	ix := solana.NewInstruction(solana.SystemProgramID,
		solana.AccountMetaSlice{solana.Meta(key.PublicKey()).WRITE().SIGNER()}, []byte{2, 0, 0, 0})
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{1}, solana.TransactionPayer(key.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	})
	require.NoError(t, err)
	return tx, key
}

type capturedRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      int               `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

func relayServer(t *testing.T, status int, respond func(req capturedRequest) string, got *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req capturedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if got != nil {
			*got = req
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respond(req)))
	}))
}

func TestSolayerSubmit(t *testing.T) {
	tx, _ := signedTx(t)
	sig := tx.Signatures[0]

	var got capturedRequest
	srv := relayServer(t, http.StatusOK, func(capturedRequest) string {
		return `{"jsonrpc":"2.0","id":1,"result":"` + sig.String() + `"}`
	}, &got)
	defer srv.Close()

	s := NewSolayer(srv.URL, srv.Client(), zaptest.NewLogger(t))
	out, err := s.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, sig, out)

	assert.Equal(t, "2.0", got.JSONRPC)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, "sendTransaction", got.Method)
	require.Len(t, got.Params, 2)

	var encoded string
	require.NoError(t, json.Unmarshal(got.Params[0], &encoded))
	raw, err := base58.Decode(encoded)
	require.NoError(t, err)
	want, err := tx.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, want, raw)

	assert.JSONEq(t, `{"encoding":"base58","skipPreflight":true,"preflightCommitment":"processed","maxRetries":0}`, string(got.Params[1]))
}

func TestJitoSubmit(t *testing.T) {
	tx, _ := signedTx(t)
	sig := tx.Signatures[0]

	var got capturedRequest
	srv := relayServer(t, http.StatusOK, func(capturedRequest) string {
		return `{"jsonrpc":"2.0","id":1,"result":"` + sig.String() + `"}`
	}, &got)
	defer srv.Close()

	j := newJitoWithEndpoint(srv.URL, "ny", srv.Client(), zaptest.NewLogger(t))
	assert.Equal(t, "jito-ny", j.Name())

	out, err := j.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, sig, out)

	var encoded string
	require.NoError(t, json.Unmarshal(got.Params[0], &encoded))
	want, err := tx.ToBase64()
	require.NoError(t, err)
	assert.Equal(t, want, encoded)
}

func TestSubmitRelayError(t *testing.T) {
	tx, _ := signedTx(t)
	srv := relayServer(t, http.StatusOK, func(capturedRequest) string {
		return `{"jsonrpc":"2.0","id":1,"error":{"code":-32002,"message":"blockhash not found"}}`
	}, nil)
	defer srv.Close()

	s := NewSolayer(srv.URL, srv.Client(), zaptest.NewLogger(t))
	_, err := s.Submit(context.Background(), tx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRelayRejected)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "blockhash not found", rpcErr.Message)
	assert.Equal(t, -32002, rpcErr.Code)
}

func TestSubmitHTTPStatus(t *testing.T) {
	tx, _ := signedTx(t)
	srv := relayServer(t, http.StatusServiceUnavailable, func(capturedRequest) string { return "overloaded" }, nil)
	defer srv.Close()

	j := newJitoWithEndpoint(srv.URL, "mainnet", srv.Client(), zaptest.NewLogger(t))
	_, err := j.Submit(context.Background(), tx)
	assert.ErrorIs(t, err, ErrRelayRejected)
	assert.Contains(t, err.Error(), "503")
}

func TestSubmitMalformed(t *testing.T) {
	tx, _ := signedTx(t)
	bodies := []string{`not json`, `{"jsonrpc":"2.0","id":1}`, `{"jsonrpc":"2.0","id":1,"result":"xyz0"}`}
	for _, body := range bodies {
		srv := relayServer(t, http.StatusOK, func(capturedRequest) string { return body }, nil)
		s := NewSolayer(srv.URL, srv.Client(), zaptest.NewLogger(t))
		_, err := s.Submit(context.Background(), tx)
		assert.ErrorIs(t, err, ErrMalformedResponse, body)
		srv.Close()
	}
}

func TestJitoEndpoint(t *testing.T) {
	endpoint, err := JitoEndpoint("tokyo")
	require.NoError(t, err)
	assert.Equal(t, "https://tokyo.mainnet.block-engine.jito.wtf/api/v1/transactions?bundleOnly=false", endpoint)

	_, err = JitoEndpoint("mars")
	assert.ErrorIs(t, err, ErrUnknownRelay)
}

type fakeSender struct {
	sig solana.Signature
	err error
	n   int
}

func (f *fakeSender) SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	f.n++
	return f.sig, f.err
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)

	s, err := New("solayer", Options{}, logger)
	require.NoError(t, err)
	assert.Equal(t, "solayer", s.Name())

	s, err = New("jito", Options{JitoRegion: "amsterdam"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "jito-amsterdam", s.Name())

	_, err = New("rpc", Options{}, logger)
	assert.Error(t, err)

	sender := &fakeSender{sig: solana.Signature{4}}
	s, err = New("rpc", Options{Sender: sender}, logger)
	require.NoError(t, err)
	tx, _ := signedTx(t)
	sig, err := s.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{4}, sig)
	assert.Equal(t, 1, sender.n)

	_, err = New("pigeon", Options{}, logger)
	assert.ErrorIs(t, err, ErrUnknownRelay)
}
