package bootstrap

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// reloadMessage mirrors the dev server's reload channel wire format.
type reloadMessage struct {
	Type    string   `json:"type"`
	Modules []string `json:"modules,omitempty"`
	Hash    string   `json:"hash,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// subscription keeps one WebSocket connection to the dev server's reload
// channel and hands every message to the app in delivery order.
type subscription struct {
	url       string
	onMessage func(reloadMessage)
	logger    zerolog.Logger

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func newSubscription(url string, onMessage func(reloadMessage), logger zerolog.Logger) *subscription {
	s := &subscription{
		url:       toWebSocketURL(url),
		onMessage: onMessage,
		logger:    logger.With().Str("component", "reload-subscription").Logger(),
		done:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.loop()
	return s
}

func (s *subscription) stop() {
	s.once.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *subscription) loop() {
	defer s.wg.Done()

	backoff := time.Second
	for {
		select {
		case <-s.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
		if err != nil {
			s.logger.Debug().Err(err).Msg("reload channel unavailable")
			select {
			case <-s.done:
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		s.read(conn)
		conn.Close()
	}
}

// read delivers messages until the connection drops or stop is called.
// Messages on one connection arrive in send order; each is handled to
// completion before the next.
func (s *subscription) read(conn *websocket.Conn) {
	closed := make(chan struct{})
	go func() {
		select {
		case <-s.done:
			conn.Close()
		case <-closed:
		}
	}()
	defer close(closed)

	for {
		var msg reloadMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		s.onMessage(msg)
	}
}

func toWebSocketURL(url string) string {
	switch {
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	}
	return url
}
