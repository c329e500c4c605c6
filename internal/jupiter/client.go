// internal/jupiter/client.go
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public v6 API.
	DefaultBaseURL = "https://quote-api.jup.ag/v6"

	defaultRequestTimeout = 10 * time.Second
	maxErrorBody          = 512
)

var (
	ErrHTTPStatus        = errors.New("unexpected HTTP status")
	ErrMalformedResponse = errors.New("malformed aggregator response")
	ErrSwapInstructions  = errors.New("swap instructions rejected")
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error { return ErrHTTPStatus }

// APIError carries the error field of a swap-instructions response.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return "swap-instructions: " + e.Message }

func (e *APIError) Unwrap() error { return ErrSwapInstructions }

// Client talks to the aggregator quote and swap-instructions endpoints.
// It performs no retries; callers decide what to do with a failure.
type Client struct {
	client  *http.Client
	logger  *zap.Logger
	baseURL string
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:  logger.Named("jupiter"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetQuote fetches a quote for swapping req.Amount of req.InputMint into req.OutputMint.
func (c *Client) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if req.InputMint == "" || req.OutputMint == "" {
		return nil, errors.New("quote request requires both mints")
	}
	if req.Amount == 0 {
		return nil, errors.New("quote request requires a positive amount")
	}

	endpoint := c.baseURL + "/quote?" + quoteQuery(req).Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	body, err := c.do(httpReq, "quote")
	if err != nil {
		return nil, err
	}

	var quote Quote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("%w: decode quote: %v", ErrMalformedResponse, err)
	}
	if quote.OutAmount == "" {
		return nil, fmt.Errorf("%w: quote without outAmount", ErrMalformedResponse)
	}
	quote.raw = body

	c.logger.Debug("quote received",
		zap.String("input_mint", quote.InputMint),
		zap.String("output_mint", quote.OutputMint),
		zap.String("in_amount", quote.InAmount),
		zap.String("out_amount", quote.OutAmount),
		zap.String("price_impact_pct", quote.PriceImpactPct),
		zap.Int("route_steps", len(quote.RoutePlan)))

	return &quote, nil
}

// GetSwapInstructions asks the aggregator for the instructions executing quote
// on behalf of userPublicKey.
func (c *Client) GetSwapInstructions(ctx context.Context, quote *Quote, userPublicKey string) (*SwapInstructions, error) {
	if quote == nil {
		return nil, errors.New("swap instructions require a quote")
	}

	payload, err := json.Marshal(swapInstructionsRequest{
		QuoteResponse:     quote.Raw(),
		WrapAndUnwrapSol:  false,
		UseSharedAccounts: false,
		UserPublicKey:     userPublicKey,
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap-instructions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(httpReq, "swap-instructions")
	if err != nil {
		// The API reports rejections with a 4xx and an error field.
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			var rejected SwapInstructions
			if json.Unmarshal([]byte(httpErr.Body), &rejected) == nil && rejected.ErrorMessage() != "" {
				return nil, &APIError{Message: rejected.ErrorMessage()}
			}
		}
		return nil, err
	}

	var result SwapInstructions
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode swap instructions: %v", ErrMalformedResponse, err)
	}
	if msg := result.ErrorMessage(); msg != "" {
		return nil, &APIError{Message: msg}
	}
	if result.SwapInstruction == nil {
		return nil, fmt.Errorf("%w: missing swapInstruction", ErrMalformedResponse)
	}

	c.logger.Debug("swap instructions received",
		zap.String("program_id", result.SwapInstruction.ProgramID),
		zap.Int("accounts", len(result.SwapInstruction.Accounts)),
		zap.Int("lookup_tables", len(result.AddressLookupTableAddresses)))

	return &result, nil
}

// do executes the request and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request completed",
		zap.String("endpoint", endpoint),
		zap.Duration("duration", time.Since(start)),
		zap.Int("status", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := string(body)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &HTTPError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: text}
	}
	return body, nil
}

func quoteQuery(req QuoteRequest) url.Values {
	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatUint(req.Amount, 10))
	q.Set("slippageBps", strconv.Itoa(req.SlippageBps))
	if len(req.Dexes) > 0 {
		q.Set("dexes", strings.Join(req.Dexes, ","))
	}
	return q
}
