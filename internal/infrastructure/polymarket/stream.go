package polymarket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/polarterminal/polar-bot/internal/domain"
)

const (
	DefaultStreamURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	reconnectDelay = 5 * time.Second
	pingInterval   = 20 * time.Second
)

// MarketStream - поток цен из CLOB websocket (market-канал).
// Подписка идет по token id стороны рынка, тик несет готовую цену этой стороны.
type MarketStream struct {
	url    string
	logger *slog.Logger

	conn     *websocket.Conn
	mu       sync.Mutex
	stopChan chan struct{}

	// Список активных подписок для восстановления сессии после реконнекта
	activeSubs []string
	subsMu     sync.RWMutex
}

func NewMarketStream(url string, logger *slog.Logger) *MarketStream {
	return &MarketStream{
		url:      url,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Subscribe запускает цикл подключения и возвращает канал тиков.
// Канал с буфером: переполнился - тик отбрасываем, устаревшие цены не нужны.
func (s *MarketStream) Subscribe(assetIDs []string) (<-chan domain.PriceUpdateEvent, error) {
	s.subsMu.Lock()
	s.activeSubs = append([]string(nil), assetIDs...)
	s.subsMu.Unlock()

	out := make(chan domain.PriceUpdateEvent, 100)
	go s.maintainConnection(out)
	return out, nil
}

// AddSubscriptions добавляет токены "на лету". Market-канал CLOB не умеет
// дозаказывать подписки на живом соединении, поэтому рвем его - цикл
// переподключится уже с полным списком.
func (s *MarketStream) AddSubscriptions(assetIDs []string) error {
	s.subsMu.Lock()
	existing := domain.NewStringSet(s.activeSubs...)
	added := false
	for _, id := range assetIDs {
		if existing.Add(id) {
			s.activeSubs = append(s.activeSubs, id)
			added = true
		}
	}
	s.subsMu.Unlock()

	if !added {
		return nil
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()
	return nil
}

func (s *MarketStream) Stop() {
	close(s.stopChan)
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()
}

func (s *MarketStream) maintainConnection(out chan<- domain.PriceUpdateEvent) {
	for {
		select {
		case <-s.stopChan:
			close(out)
			return
		default:
			s.subsMu.RLock()
			subs := append([]string(nil), s.activeSubs...)
			s.subsMu.RUnlock()

			if len(subs) == 0 {
				// Нечего слушать - ждем, пока появятся алерты
				time.Sleep(reconnectDelay)
				continue
			}

			if err := s.connectAndListen(subs, out); err != nil {
				s.logger.Error("CLOB stream connection lost", slog.String("err", err.Error()))
			}

			select {
			case <-s.stopChan:
				close(out)
				return
			case <-time.After(reconnectDelay):
			}
		}
	}
}

// wsEvent - событие market-канала. Нас интересуют last_trade_price и book
// (у book есть поле last_trade_price), остальное пропускаем.
type wsEvent struct {
	EventType      string          `json:"event_type"`
	AssetID        string          `json:"asset_id"`
	Price          decimal.Decimal `json:"price"`
	LastTradePrice decimal.Decimal `json:"last_trade_price"`
}

func (s *MarketStream) connectAndListen(assetIDs []string, out chan<- domain.PriceUpdateEvent) error {
	s.logger.Info("Connecting to CLOB market stream", slog.String("url", s.url), slog.Int("assets", len(assetIDs)))

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", "https://polymarket.com")

	conn, _, err := dialer.Dial(s.url, headers)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()
	}()

	sub := map[string]interface{}{
		"assets_ids": assetIDs,
		"type":       "market",
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go s.heartbeat(done)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		// Канал шлет и одиночные события, и пачки
		var events []wsEvent
		if err := json.Unmarshal(message, &events); err != nil {
			var single wsEvent
			if err := json.Unmarshal(message, &single); err != nil {
				continue
			}
			events = []wsEvent{single}
		}

		for _, ev := range events {
			if ev.AssetID == "" {
				continue
			}

			price := ev.Price
			if ev.EventType == "book" {
				price = ev.LastTradePrice
			} else if ev.EventType != "last_trade_price" {
				continue
			}
			if price.IsZero() {
				continue
			}

			update := domain.PriceUpdateEvent{
				AssetID: ev.AssetID,
				Price:   price,
				Time:    time.Now(),
			}

			select {
			case out <- update:
			default:
			}
		}
	}
}

func (s *MarketStream) heartbeat(done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.conn != nil {
				if err := s.conn.WriteMessage(websocket.TextMessage, []byte("PING")); err != nil {
					s.logger.Error("Ping failed", slog.String("err", err.Error()))
				}
			}
			s.mu.Unlock()
		}
	}
}
