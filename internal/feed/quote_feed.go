// Package feed connects to the upstream websocket stream of token quotes
// and trade alerts. Quotes are written into the price sink; alerts are
// handed to the engine for entry gating.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ckartal/snipebot/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// AlertHandler is called for each alert message received on the stream.
type AlertHandler func(ctx context.Context, mint string, alert domain.Alert, info domain.PriceInfo)

// QuoteFeed subscribes to the quote/alert websocket stream and dispatches
// messages. It reconnects on disconnect and runs until its context is
// cancelled.
type QuoteFeed struct {
	wsURL          string
	reconnectDelay time.Duration
	sink           domain.PriceSink
	onAlert        AlertHandler
	logger         *slog.Logger
}

// NewQuoteFeed creates a feed writing quotes to sink and dispatching alerts
// to onAlert. onAlert may be nil when running in price-only mode.
func NewQuoteFeed(wsURL string, reconnectDelay time.Duration, sink domain.PriceSink, onAlert AlertHandler, logger *slog.Logger) *QuoteFeed {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &QuoteFeed{
		wsURL:          wsURL,
		reconnectDelay: reconnectDelay,
		sink:           sink,
		onAlert:        onAlert,
		logger:         logger.With(slog.String("component", "quote_feed")),
	}
}

// streamMessage is the wire envelope. Quotes carry prices, alerts carry the
// alert metadata plus the prices observed at alert time.
type streamMessage struct {
	Type         string   `json:"type"`
	Mint         string   `json:"mint"`
	Symbol       string   `json:"symbol"`
	AlertType    string   `json:"alert_type"`
	Size         float64  `json:"size"`
	CurrentPrice *float64 `json:"current_price"`
	Price        *float64 `json:"price"`
}

// Run connects and consumes the stream until ctx is cancelled, reconnecting
// with a fixed delay on disconnect.
func (f *QuoteFeed) Run(ctx context.Context) error {
	for {
		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("feed: disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", f.reconnectDelay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.reconnectDelay):
		}
	}
}

func (f *QuoteFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			_ = conn.Close()
		case <-done:
		}
	}()

	go f.pingLoop(conn, done)

	f.logger.Info("feed: connected", slog.String("url", f.wsURL))

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", err)
		}
		f.handleMessage(ctx, raw)
	}
}

func (f *QuoteFeed) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (f *QuoteFeed) handleMessage(ctx context.Context, raw []byte) {
	var msg streamMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// Drop unparseable messages.
		return
	}
	if msg.Mint == "" {
		return
	}

	info := domain.PriceInfo{
		CurrentPrice: msg.CurrentPrice,
		Price:        msg.Price,
	}

	switch msg.Type {
	case "quote":
		if err := f.sink.SetPrice(ctx, msg.Mint, info); err != nil {
			f.logger.Warn("feed: store quote",
				slog.String("mint", msg.Mint),
				slog.String("error", err.Error()),
			)
		}
	case "alert":
		if err := f.sink.SetPrice(ctx, msg.Mint, info); err != nil {
			f.logger.Warn("feed: store alert quote",
				slog.String("mint", msg.Mint),
				slog.String("error", err.Error()),
			)
		}
		if f.onAlert != nil {
			f.onAlert(ctx, msg.Mint, domain.Alert{
				Mint:   msg.Mint,
				Symbol: msg.Symbol,
				Type:   msg.AlertType,
				Size:   msg.Size,
			}, info)
		}
	}
}
