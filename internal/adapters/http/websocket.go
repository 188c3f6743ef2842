package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/earthimagery/internal/adapters/nats"
	"github.com/samirrijal/earthimagery/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsCommand narrows or widens a client's feed. Year 0 means every year.
type wsCommand struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Year   int    `json:"year"`
}

type wsReply struct {
	Status string `json:"status,omitempty"`
	Year   *int   `json:"year,omitempty"`
	Error  string `json:"error,omitempty"`
}

// yearFilter decides which thumbnail events a client receives. A new
// filter passes every year.
type yearFilter struct {
	mu    sync.RWMutex
	all   bool
	years map[int]bool
}

func newYearFilter() *yearFilter {
	return &yearFilter{all: true, years: make(map[int]bool)}
}

// apply runs one command and returns the reply for the client.
func (f *yearFilter) apply(cmd wsCommand) wsReply {
	f.mu.Lock()
	defer f.mu.Unlock()

	year := cmd.Year
	switch cmd.Action {
	case "subscribe":
		if year == 0 {
			f.all = true
		} else {
			f.years[year] = true
		}
		return wsReply{Status: "subscribed", Year: &year}
	case "unsubscribe":
		if year == 0 {
			f.all = false
			clear(f.years)
			return wsReply{Status: "unsubscribed", Year: &year}
		}
		if !f.years[year] {
			return wsReply{Error: "not subscribed to " + strconv.Itoa(year)}
		}
		delete(f.years, year)
		return wsReply{Status: "unsubscribed", Year: &year}
	default:
		return wsReply{Error: "unknown action: " + cmd.Action}
	}
}

// pass reports whether an event on subject should be relayed.
func (f *yearFilter) pass(subject string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.all {
		return true
	}
	year, ok := natsadapter.SubjectYear(subject)
	return ok && f.years[year]
}

// errClientGone is returned for writes after the handler has returned.
var errClientGone = errors.New("websocket client gone")

type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// clientWriter serializes writes to one client. Once shut down it drops
// every write; the underlying connection is recycled when the handler
// returns and NATS callbacks may still be running.
type clientWriter struct {
	mu     sync.Mutex
	conn   frameWriter
	closed bool
}

func (w *clientWriter) write(kind int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errClientGone
	}
	return w.conn.WriteMessage(kind, data)
}

func (w *clientWriter) shutdown() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// WebSocketHandler relays thumbnail events from NATS to the client. Every
// client starts with all years; {"action":"subscribe","year":2020} and
// {"action":"unsubscribe","year":0} adjust the feed.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()
		log := slog.Default().With("remote_addr", c.RemoteAddr().String())

		out := &clientWriter{conn: c}
		defer out.shutdown()
		write := out.write
		reply := func(r wsReply) {
			data, _ := json.Marshal(r)
			_ = write(websocket.TextMessage, data)
		}

		if nc == nil {
			reply(wsReply{Error: "event feed not configured"})
			return
		}

		filter := newYearFilter()
		sub, err := nc.Subscribe(natsadapter.ThumbnailSubjects, func(msg *nats.Msg) {
			if filter.pass(msg.Subject) {
				_ = write(websocket.TextMessage, msg.Data)
			}
		})
		if err != nil {
			log.Error("ws subscribe failed", "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if write(websocket.PingMessage, nil) != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				log.Info("ws client disconnected")
				return
			}
			var cmd wsCommand
			if err := json.Unmarshal(data, &cmd); err != nil {
				reply(wsReply{Error: "invalid JSON"})
				continue
			}
			reply(filter.apply(cmd))
		}
	}
}
