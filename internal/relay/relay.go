// internal/relay/relay.go
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

var (
	ErrRelayRejected     = errors.New("relay rejected transaction")
	ErrMalformedResponse = errors.New("malformed relay response")
	ErrUnknownRelay      = errors.New("unknown relay")
)

// Submitter sends a signed transaction to the cluster.
type Submitter interface {
	Name() string
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("relay error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Unwrap() error { return ErrRelayRejected }

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// jsonRPC posts a sendTransaction envelope and returns the signature in result.
type jsonRPC struct {
	client   *http.Client
	endpoint string
	logger   *zap.Logger
}

func newJSONRPC(endpoint string, client *http.Client, logger *zap.Logger) *jsonRPC {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &jsonRPC{client: client, endpoint: endpoint, logger: logger}
}

func (j *jsonRPC) sendTransaction(ctx context.Context, params ...interface{}) (solana.Signature, error) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendTransaction",
		Params:  params,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(payload))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := j.client.Do(req)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("post transaction: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("read response: %w", err)
	}

	j.logger.Debug("relay request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	var decoded rpcResponse
	decodeErr := json.Unmarshal(body, &decoded)
	if decodeErr == nil && decoded.Error != nil {
		return solana.Signature{}, decoded.Error
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(body)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return solana.Signature{}, fmt.Errorf("%w: status %d: %s", ErrRelayRejected, resp.StatusCode, text)
	}
	if decodeErr != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}

	var sigText string
	if err := json.Unmarshal(decoded.Result, &sigText); err != nil || sigText == "" {
		return solana.Signature{}, fmt.Errorf("%w: missing signature in result", ErrMalformedResponse)
	}
	sig, err := solana.SignatureFromBase58(sigText)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: signature %q: %v", ErrMalformedResponse, sigText, err)
	}
	return sig, nil
}

// Options configures the relay created by New.
type Options struct {
	JitoRegion string
	HTTPClient *http.Client
	// Sender is used by the "rpc" relay.
	Sender TransactionSender
}

// New returns the submitter registered under name: solayer, jito or rpc.
func New(name string, opts Options, logger *zap.Logger) (Submitter, error) {
	switch name {
	case "solayer":
		return NewSolayer(SolayerEndpoint, opts.HTTPClient, logger), nil
	case "jito":
		return NewJito(opts.JitoRegion, opts.HTTPClient, logger)
	case "rpc":
		if opts.Sender == nil {
			return nil, errors.New("rpc relay requires a transaction sender")
		}
		return NewRPC(opts.Sender, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRelay, name)
	}
}
