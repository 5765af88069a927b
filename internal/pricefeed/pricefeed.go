// Package pricefeed streams live coin prices from the CoinCap websocket API.
//
// The feed connects to "{url}?assets=id1,id2,..." and receives messages that
// map coin ids to their latest price as a string:
//
//	{"bitcoin":"6929.82","ethereum":"404.97"}
//
// Every message is handed to a PriceSink as one batch. The feed does not
// reconnect; Run returns when the connection drops or its context ends.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	// defaultPingPeriod defines the default interval for sending WebSocket ping messages.
	defaultPingPeriod = 15 * time.Second

	// defaultHandshakeTimeout defines the maximum time allowed for WebSocket handshake.
	defaultHandshakeTimeout = 10 * time.Second

	// defaultReadLimit defines the maximum size of incoming WebSocket messages.
	defaultReadLimit = 1 << 20 // 1MB

	writeTimeout = 5 * time.Second
)

var (
	ErrNoAssets = errors.New("no assets to subscribe to")
	ErrNoURL    = errors.New("endpoint URL is required")
)

// PriceSink receives price batches keyed by coin id.
type PriceSink interface {
	ApplyPrices(prices map[string]decimal.Decimal)
}

// Config defines settings for the price feed.
type Config struct {
	// URL is the websocket endpoint without query.
	URL string

	// Assets are the coin ids to subscribe to.
	Assets []string

	// PingPeriod is the interval between websocket ping messages.
	PingPeriod time.Duration

	// HandshakeTimeout bounds the websocket handshake.
	HandshakeTimeout time.Duration
}

type Feed struct {
	cfg    Config
	sink   PriceSink
	dialer *websocket.Dialer
}

func New(cfg Config, sink PriceSink) (*Feed, error) {
	if cfg.URL == "" {
		return nil, ErrNoURL
	}
	if len(cfg.Assets) == 0 {
		return nil, ErrNoAssets
	}
	if sink == nil {
		return nil, errors.New("price sink is required")
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = defaultPingPeriod
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}

	return &Feed{
		cfg:  cfg,
		sink: sink,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}, nil
}

// Endpoint returns the subscription URL for the configured assets.
func (f *Feed) Endpoint() (string, error) {
	u, err := url.Parse(f.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid price feed url: %w", err)
	}
	q := u.Query()
	q.Set("assets", strings.Join(f.cfg.Assets, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run streams prices into the sink until ctx is done or the connection fails.
// It returns nil when stopped through ctx.
func (f *Feed) Run(ctx context.Context) error {
	endpoint, err := f.Endpoint()
	if err != nil {
		return err
	}

	logger := log.With().
		Str("endpoint", f.cfg.URL).
		Int("assets", len(f.cfg.Assets)).
		Logger()

	conn, _, err := f.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("price feed dial failed: %w", err)
	}
	logger.Info().Msg("price feed connected")

	conn.SetReadLimit(defaultReadLimit)
	if err := conn.SetReadDeadline(time.Now().Add(f.cfg.PingPeriod * 2)); err != nil {
		conn.Close()
		return fmt.Errorf("price feed read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(f.cfg.PingPeriod * 2))
	})

	var (
		wg   sync.WaitGroup
		once sync.Once
		done = make(chan struct{})
	)
	shutdown := func() {
		once.Do(func() {
			close(done)
			conn.Close()
		})
	}
	defer func() {
		shutdown()
		wg.Wait()
	}()

	wg.Add(2)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(writeTimeout)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
				logger.Debug().Err(err).Msg("close message not sent")
			}
			shutdown()
		case <-done:
		}
	}()
	go func() {
		defer wg.Done()
		f.pingLoop(conn, done)
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("price feed stopped")
				return nil
			}
			return fmt.Errorf("price feed read failed: %w", err)
		}

		prices, err := parsePrices(msg)
		if err != nil {
			logger.Warn().Err(err).Msg("dropping malformed price message")
			continue
		}
		if err := conn.SetReadDeadline(time.Now().Add(f.cfg.PingPeriod * 2)); err != nil {
			return fmt.Errorf("price feed read deadline: %w", err)
		}
		f.sink.ApplyPrices(prices)
	}
}

func (f *Feed) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(f.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				log.Debug().Err(err).Msg("price feed ping failed")
				return
			}
		}
	}
}

func parsePrices(msg []byte) (map[string]decimal.Decimal, error) {
	var raw map[string]string
	if err := json.Unmarshal(msg, &raw); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(raw))
	for id, s := range raw {
		price, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("price of %s: %w", id, err)
		}
		prices[id] = price
	}
	return prices, nil
}
