package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/polarterminal/polar-bot/internal/domain"
)

const (
	DefaultGammaURL = "https://gamma-api.polymarket.com"
	DefaultDataURL  = "https://data-api.polymarket.com"
	DefaultGraphURL = "https://api.thegraph.com/subgraphs/name/polymarket/matic-markets-7"

	// Gamma капризничает без браузерного User-Agent
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	recentLimit     = 1000 // батч сканера листингов
	arbLimit        = 100  // топ рынков по объему для арбитража
	positionsLimit  = 20
	positionsSizeGt = "0.1"
)

var eventSlugRe = regexp.MustCompile(`polymarket\.com/event/([^/?]+)`)

// Client - реализация domain.MarketDataSource поверх публичных API Polymarket.
type Client struct {
	gammaURL   string
	dataURL    string
	graphURL   string
	httpClient *http.Client
}

func NewClient(gammaURL, dataURL, graphURL string, timeout time.Duration) *Client {
	return &Client{
		gammaURL:   gammaURL,
		dataURL:    dataURL,
		graphURL:   graphURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// --- Implementation of MarketDataSource ---

func (c *Client) GetMarket(ctx context.Context, marketID string) (*domain.Market, error) {
	var dto marketDTO
	found, err := c.getJSON(ctx, c.gammaURL+"/markets/"+marketID, &dto)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	m := dto.toDomain()
	return &m, nil
}

func (c *Client) GetMarketsBySlug(ctx context.Context, slugOrURL string) ([]domain.Market, error) {
	slug := slugOrURL
	if m := eventSlugRe.FindStringSubmatch(slugOrURL); m != nil {
		slug = m[1]
	}

	var events []eventDTO
	if _, err := c.getJSON(ctx, c.gammaURL+"/events?slug="+slug, &events); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	markets := make([]domain.Market, 0, len(events[0].Markets))
	for _, dto := range events[0].Markets {
		markets = append(markets, dto.toDomain())
	}
	return markets, nil
}

func (c *Client) GetRecentMarkets(ctx context.Context) ([]domain.Market, error) {
	url := fmt.Sprintf("%s/markets?limit=%d&active=true&closed=false&order=createdAt&ascending=false", c.gammaURL, recentLimit)

	var dtos []marketDTO
	if _, err := c.getJSON(ctx, url, &dtos); err != nil {
		return nil, err
	}
	markets := make([]domain.Market, 0, len(dtos))
	for _, dto := range dtos {
		markets = append(markets, dto.toDomain())
	}
	return markets, nil
}

func (c *Client) GetRecentEvents(ctx context.Context) ([]domain.Event, error) {
	url := fmt.Sprintf("%s/events?limit=%d&active=true&closed=false&order=createdAt&ascending=false", c.gammaURL, recentLimit)

	var dtos []eventDTO
	if _, err := c.getJSON(ctx, url, &dtos); err != nil {
		return nil, err
	}
	events := make([]domain.Event, 0, len(dtos))
	for _, dto := range dtos {
		events = append(events, dto.toDomain())
	}
	return events, nil
}

const latestTradeQuery = `
query GetTrades($user: String!) {
    fpmmTrades(
        first: 1,
        orderBy: creationTimestamp,
        orderDirection: desc,
        where: {creator: $user}
    ) {
        id
        type
        outcomeIndex
        outcomeTokensTraded
        transactionAmount
        transactionHash
        creationTimestamp
        fpmm { id question slug }
    }
}`

func (c *Client) GetLatestTrade(ctx context.Context, address string) (*domain.Trade, error) {
	// Сабграф индексирует адреса в нижнем регистре
	body := map[string]interface{}{
		"query":     latestTradeQuery,
		"variables": map[string]string{"user": strings.ToLower(address)},
	}

	var resp graphResponse
	if err := c.postJSON(ctx, c.graphURL, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data.FpmmTrades) == 0 {
		return nil, nil
	}
	trade := resp.Data.FpmmTrades[0].toDomain()
	return &trade, nil
}

func (c *Client) GetWalletPositions(ctx context.Context, address string) ([]domain.Position, error) {
	url := fmt.Sprintf("%s/positions?user=%s&sizeThreshold=%s&limit=%d&sortBy=CURRENT_ASSET_VALUE&sortDirection=DESC",
		c.dataURL, address, positionsSizeGt, positionsLimit)

	var dtos []positionDTO
	if _, err := c.getJSON(ctx, url, &dtos); err != nil {
		return nil, err
	}
	positions := make([]domain.Position, 0, len(dtos))
	for _, dto := range dtos {
		positions = append(positions, dto.toDomain())
	}
	return positions, nil
}

func (c *Client) GetArbitrageCandidates(ctx context.Context) ([]domain.Market, error) {
	url := fmt.Sprintf("%s/markets?active=true&closed=false&limit=%d&order=volume&ascending=false", c.gammaURL, arbLimit)

	var dtos []marketDTO
	if _, err := c.getJSON(ctx, url, &dtos); err != nil {
		return nil, err
	}
	markets := make([]domain.Market, 0, len(dtos))
	for _, dto := range dtos {
		markets = append(markets, dto.toDomain())
	}
	return markets, nil
}

// --- Private Helpers ---

// getJSON возвращает found=false на 404, чтобы "рынка нет" не считалось ошибкой
func (c *Client) getJSON(ctx context.Context, url string, result interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("polymarket api status %d for %s", resp.StatusCode, url)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(respBytes, result); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return true, nil
}

func (c *Client) postJSON(ctx context.Context, url string, body, result interface{}) error {
	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graph api status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

