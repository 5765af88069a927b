package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CoinCapClient reads the coin list and price history from the CoinCap REST API.
type CoinCapClient struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	interval string
	location *time.Location
	validate *validator.Validate
}

type assetsResponse struct {
	Data []assetDto `json:"data" validate:"dive"`
}

type assetDto struct {
	ID                string `json:"id" validate:"required"`
	Rank              string `json:"rank" validate:"required,numeric"`
	Name              string `json:"name" validate:"required"`
	Symbol            string `json:"symbol" validate:"required"`
	MarketCapUsd      string `json:"marketCapUsd"`
	PriceUsd          string `json:"priceUsd" validate:"required"`
	ChangePercent24Hr string `json:"changePercent24Hr"`
}

type historyResponse struct {
	Data []historyDto `json:"data" validate:"dive"`
}

type historyDto struct {
	PriceUsd string `json:"priceUsd" validate:"required"`
	Time     int64  `json:"time" validate:"gt=0"`
}

func NewCoinCapClient(cfg APIConfig, location *time.Location) *CoinCapClient {
	if location == nil {
		location = time.Local
	}
	return &CoinCapClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		interval: cfg.HistoryInterval,
		location: location,
		validate: validator.New(),
	}
}

func (c *CoinCapClient) GetCoins(ctx context.Context) ([]Coin, error) {
	var resp assetsResponse
	if err := c.get(ctx, c.baseURL+"/assets", &resp); err != nil {
		return nil, err
	}

	coins := make([]Coin, 0, len(resp.Data))
	for _, dto := range resp.Data {
		coin, err := dto.toCoin()
		if err != nil {
			return nil, NewDataError(Serialization, fmt.Errorf("asset [%s]: %w", dto.ID, err))
		}
		coins = append(coins, coin)
	}
	return coins, nil
}

func (c *CoinCapClient) GetCoinHistory(ctx context.Context, coinID string, start, end time.Time) ([]PricePoint, error) {
	query := url.Values{}
	query.Set("interval", c.interval)
	query.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	query.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	endpoint := fmt.Sprintf("%s/assets/%s/history?%s", c.baseURL, url.PathEscape(coinID), query.Encode())

	var resp historyResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	points := make([]PricePoint, 0, len(resp.Data))
	for _, dto := range resp.Data {
		price, err := decimal.NewFromString(dto.PriceUsd)
		if err != nil {
			return nil, NewDataError(Serialization, fmt.Errorf("history [%s]: %w", coinID, err))
		}
		points = append(points, PricePoint{
			PriceUsd: price,
			DateTime: time.UnixMilli(dto.Time).In(c.location),
		})
	}
	return points, nil
}

func (c *CoinCapClient) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return NewDataError(Unknown, fmt.Errorf("build request [%s]: %w", endpoint, err))
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(ctx, endpoint, fmt.Errorf("body read error: %w", err))
	}

	if kind, ok := statusKind(resp.StatusCode); ok {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("kind", kind.String()).
			Msg("coincap request rejected")
		return NewDataError(kind, fmt.Errorf("API error [%s]: %s - %s", endpoint, resp.Status, string(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return NewDataError(Serialization, fmt.Errorf("JSON parse error [%s]: %w", endpoint, err))
	}
	if err := c.validate.Struct(out); err != nil {
		return NewDataError(Serialization, fmt.Errorf("invalid payload [%s]: %w", endpoint, err))
	}
	return nil
}

// statusKind maps a non-2xx status to its error kind.
func statusKind(status int) (ErrorKind, bool) {
	switch {
	case status >= 200 && status < 300:
		return Unknown, false
	case status == http.StatusRequestTimeout:
		return RequestTimeout, true
	case status == http.StatusTooManyRequests:
		return TooManyRequests, true
	case status >= 500 && status < 600:
		return ServerError, true
	default:
		return Unknown, true
	}
}

func classifyTransportError(ctx context.Context, endpoint string, err error) *DataError {
	wrapped := fmt.Errorf("HTTP request failed [%s]: %w", endpoint, err)

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
		return NewDataError(Unknown, fmt.Errorf("%w: %w", context.Canceled, wrapped))
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewDataError(RequestTimeout, wrapped)
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return NewDataError(NoInternet, wrapped)
	}

	return NewDataError(Unknown, wrapped)
}

func (dto assetDto) toCoin() (Coin, error) {
	rank, err := strconv.Atoi(dto.Rank)
	if err != nil {
		return Coin{}, fmt.Errorf("invalid rank %q: %w", dto.Rank, err)
	}
	price, err := decimal.NewFromString(dto.PriceUsd)
	if err != nil {
		return Coin{}, fmt.Errorf("invalid price %q: %w", dto.PriceUsd, err)
	}
	marketCap, err := parseOptionalDecimal(dto.MarketCapUsd)
	if err != nil {
		return Coin{}, fmt.Errorf("invalid market cap %q: %w", dto.MarketCapUsd, err)
	}
	change, err := parseOptionalDecimal(dto.ChangePercent24Hr)
	if err != nil {
		return Coin{}, fmt.Errorf("invalid change %q: %w", dto.ChangePercent24Hr, err)
	}

	return Coin{
		ID:                dto.ID,
		Rank:              rank,
		Name:              dto.Name,
		Symbol:            dto.Symbol,
		MarketCapUsd:      marketCap,
		PriceUsd:          price,
		ChangePercent24Hr: change,
	}, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
