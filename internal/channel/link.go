package channel

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// link is one live websocket connection. Its read loop runs until the
// transport fails or close is called; either way exactly one close
// event reaches the stream.
type link struct {
	source Source
	conn   Conn
	events chan<- Event
	log    zerolog.Logger

	st        atomic.Int32
	closeOnce sync.Once
	writeMu   sync.Mutex
}

// openLink dials the URL and starts the read loop. The Connecting state
// is observable only through logs: dialing happens synchronously here,
// so callers see Open or an error.
func openLink(dialer Dialer, url string, source Source, events chan<- Event, log zerolog.Logger) (*link, error) {
	l := &link{
		source: source,
		events: events,
		log:    log.With().Str("channel", source.String()).Logger(),
	}
	l.st.Store(int32(StateConnecting))
	l.log.Debug().Str("url", url).Msg("dialing")

	conn, err := dialer.Dial(url)
	if err != nil {
		l.st.Store(int32(StateClosed))
		return nil, err
	}

	l.conn = conn
	l.st.Store(int32(StateOpen))
	go l.readLoop()
	return l, nil
}

func (l *link) state() State {
	return State(l.st.Load())
}

func (l *link) writeJSON(v any) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.conn.WriteJSON(v)
}

// close tears the link down locally. The close event is emitted
// synchronously so it precedes anything a replacement link produces.
func (l *link) close() {
	l.emitClose(nil)
	_ = l.conn.Close()
}

// emitClose transitions to Closed and delivers the link's single close
// event. Safe to call from both the owner and the read loop.
func (l *link) emitClose(err error) {
	l.closeOnce.Do(func() {
		l.st.Store(int32(StateClosed))
		l.events <- Event{Source: l.source, Kind: EventClosed, Err: err}
	})
}

// readLoop delivers frames in transport order. Frames that are not
// valid JSON are logged and skipped; the channel stays open.
func (l *link) readLoop() {
	for {
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			if l.state() == StateClosed {
				// Locally requested close; the event is already out.
				return
			}
			l.log.Debug().Err(err).Msg("channel closed by transport")
			l.emitClose(err)
			return
		}

		if !json.Valid(data) {
			l.log.Warn().Int("bytes", len(data)).Msg("dropping malformed frame")
			continue
		}

		l.events <- Event{Source: l.source, Kind: EventFrame, Data: data}
	}
}
