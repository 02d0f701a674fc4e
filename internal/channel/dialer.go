package channel

import (
	"time"

	"github.com/gorilla/websocket"
)

// dialTimeout bounds the websocket handshake.
const dialTimeout = 10 * time.Second

// WebsocketDialer opens connections with gorilla/websocket.
type WebsocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns a dialer with the default handshake timeout.
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: dialTimeout,
		},
	}
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(url string) (Conn, error) {
	conn, _, err := d.dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
