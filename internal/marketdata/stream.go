package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Quote is a single live tick from the quote stream.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// QuoteHandler is called for every quote received from the stream.
type QuoteHandler func(quote Quote) error

// ReconnectConfig controls reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns recommended reconnect settings
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// subscribeMessage subscribes the connection to a symbol list
type subscribeMessage struct {
	Op      string   `json:"op"`
	APIKey  string   `json:"api_key,omitempty"`
	Symbols []string `json:"symbols"`
}

// StreamClient handles the WebSocket connection to the live quote feed
type StreamClient struct {
	url             string
	apiKey          string
	conn            *websocket.Conn
	mu              sync.RWMutex
	isConnected     bool
	symbols         []string
	handlers        []QuoteHandler
	reconnectConfig ReconnectConfig
	logger          *logrus.Logger
}

// NewStreamClient creates a stream client for the given endpoint
func NewStreamClient(url, apiKey string, logger *logrus.Logger) *StreamClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &StreamClient{
		url:             url,
		apiKey:          apiKey,
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
	}
}

// OnQuote registers a handler for incoming quotes
func (s *StreamClient) OnQuote(handler QuoteHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Connect dials the stream endpoint and subscribes to the symbols
func (s *StreamClient) Connect(ctx context.Context, symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("stream already connected")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial quote stream: %w", err)
	}

	sub := subscribeMessage{Op: "subscribe", APIKey: s.apiKey, Symbols: symbols}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	s.conn = conn
	s.symbols = symbols
	s.isConnected = true
	s.logger.WithField("symbols", symbols).Info("Quote stream connected")
	return nil
}

// Listen reads quotes until the context is cancelled, reconnecting with
// exponential backoff on connection loss.
func (s *StreamClient) Listen(ctx context.Context) error {
	retries := 0
	backoff := s.reconnectConfig.InitialBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.readLoop(ctx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}

		retries++
		if retries > s.reconnectConfig.MaxRetries {
			return fmt.Errorf("stream reconnect limit reached: %w", err)
		}

		s.logger.WithFields(logrus.Fields{"attempt": retries, "backoff": backoff, "error": err}).Warn("Quote stream disconnected, reconnecting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
		if backoff > s.reconnectConfig.MaxBackoff {
			backoff = s.reconnectConfig.MaxBackoff
		}

		s.mu.Lock()
		s.isConnected = false
		s.mu.Unlock()
		if err := s.Connect(ctx, s.symbols); err != nil {
			s.logger.WithError(err).Warn("Quote stream reconnect failed")
			continue
		}
		retries = 0
		backoff = s.reconnectConfig.InitialBackoff
	}
}

func (s *StreamClient) readLoop(ctx context.Context) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("stream not connected")
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("stream read failed: %w", err)
		}

		var quote Quote
		if err := json.Unmarshal(data, &quote); err != nil {
			s.logger.WithError(err).Debug("Skipping unparseable stream message")
			continue
		}

		s.mu.RLock()
		handlers := s.handlers
		s.mu.RUnlock()
		for _, handler := range handlers {
			if err := handler(quote); err != nil {
				s.logger.WithError(err).Warn("Quote handler failed")
			}
		}
	}
}

// Close shuts down the stream connection
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	s.isConnected = false
	err := s.conn.Close()
	s.conn = nil
	return err
}

// IsConnected reports connection status
func (s *StreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}
