package services

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"glowRoutineAPI/internal/metrics"
	"glowRoutineAPI/internal/notification"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512

	bannerStreamBuffer = 16
)

// BannerClient streams banners to one websocket peer. Clients only listen;
// anything they send besides control frames is discarded.
type BannerClient struct {
	Conn    *websocket.Conn
	Send    <-chan notification.Banner
	cancel  func()
	closing chan struct{}
}

// SubscribeBanners attaches a websocket connection to userID's banners. Call
// Run to start pumping.
func (s *NotificationService) SubscribeBanners(userID string, conn *websocket.Conn) *BannerClient {
	ch, cancel := s.banners.Subscribe(userID, bannerStreamBuffer)
	metrics.BannerStreams.Inc()
	return &BannerClient{
		Conn:    conn,
		Send:    ch,
		cancel:  cancel,
		closing: make(chan struct{}),
	}
}

// Run pumps until the peer disconnects. It blocks.
func (c *BannerClient) Run() {
	go c.ReadPump()
	c.WritePump()
}

// ReadPump drains the connection so pongs and close frames are processed.
func (c *BannerClient) ReadPump() {
	defer close(c.closing)

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Banner stream read error: %v", err)
			}
			return
		}
	}
}

// WritePump handles banners going to the client.
func (c *BannerClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.Conn.Close()
		metrics.BannerStreams.Dec()
	}()

	for {
		select {
		case banner, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(banner)
			if err != nil {
				log.Printf("Error marshalling banner %s: %v", banner.ID, err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closing:
			return
		}
	}
}
