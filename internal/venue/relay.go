// Package venue implements the trade executor against a swap-relay HTTP
// service. The relay owns transaction signing and wallet custody; this
// client only submits orders and interprets results.
package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ckartal/snipebot/internal/domain"
)

// RelayConfig holds the swap-relay endpoint parameters.
type RelayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Relay is an HTTP client for the swap relay, implementing
// domain.TradeExecutor.
type Relay struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRelay creates a new swap-relay client.
func NewRelay(cfg RelayConfig, logger *slog.Logger) *Relay {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Relay{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With("component", "venue"),
	}
}

type orderRequest struct {
	Account string  `json:"account"`
	Mint    string  `json:"mint"`
	Amount  float64 `json:"amount"`
}

type orderResponse struct {
	Success bool   `json:"success"`
	TxID    string `json:"tx_id"`
	Message string `json:"message"`
}

// Buy submits a buy order for the given mint, spending amount of the quote
// currency.
func (r *Relay) Buy(ctx context.Context, account, mint string, amount float64) (domain.ExecResult, error) {
	return r.submit(ctx, "/v1/buy", account, mint, amount)
}

// Sell submits a sell order for the given mint. Amount 0 instructs the relay
// to liquidate the entire remaining balance.
func (r *Relay) Sell(ctx context.Context, account, mint string, amount float64) (domain.ExecResult, error) {
	return r.submit(ctx, "/v1/sell", account, mint, amount)
}

func (r *Relay) submit(ctx context.Context, path, account, mint string, amount float64) (domain.ExecResult, error) {
	payload, err := json.Marshal(orderRequest{
		Account: account,
		Mint:    mint,
		Amount:  amount,
	})
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("venue: marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("venue: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("venue: %s %s: %w", path, mint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.ExecResult{}, fmt.Errorf("venue: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.ExecResult{}, fmt.Errorf("venue: %s %s: status %d: %s",
			path, mint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return domain.ExecResult{}, fmt.Errorf("venue: decode response: %w", err)
	}

	result := domain.ExecResult{
		Success: order.Success,
		TxID:    order.TxID,
		Message: order.Message,
	}

	// The relay reports a confirmation timeout when the transaction was
	// submitted but not yet observed on-chain. The swap almost always lands,
	// so treat it as success rather than triggering a spurious retry.
	if !result.Success && confirmationTimeout(order.Message) {
		r.logger.Warn("venue: confirmation timed out, assuming success",
			"mint", mint,
			"tx_id", order.TxID,
		)
		result.Success = true
	}

	return result, nil
}

func confirmationTimeout(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "confirmation timeout") ||
		strings.Contains(lower, "timed out awaiting confirmation")
}

var _ domain.TradeExecutor = (*Relay)(nil)
