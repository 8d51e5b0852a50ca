// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package realtime subscribes to the hosted backend's push channel for
// row changes, keyed by (schema, table, event kind). A subscription must
// be explicitly closed by its consumer; leaving one open keeps receiving
// events for the lifetime of the process.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventAll subscribes to every change kind on the topic.
const EventAll = "*"

const defaultHeartbeat = 30 * time.Second

// RawEvent is one inbound change notification carrying the full new row
// payload as decoded JSON.
type RawEvent struct {
	Type      string // INSERT, UPDATE, DELETE
	Record    map[string]any
	OldRecord map[string]any
}

// Client dials the realtime endpoint of one project.
type Client struct {
	// Heartbeat interval for keeping the socket alive. Zero means 30s.
	Heartbeat time.Duration

	wsURL  string
	apiKey string
	dialer *websocket.Dialer
	logger *slog.Logger
}

// New creates a realtime client from the project's base URL.
func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	ws := strings.Replace(baseURL, "http", "ws", 1)
	return &Client{
		wsURL:  ws + "/realtime/v1/websocket?vsn=1.0.0&apikey=" + apiKey,
		apiKey: apiKey,
		dialer: websocket.DefaultDialer,
		logger: logger,
	}
}

type frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

type changePayload struct {
	Type      string         `json:"type"`
	Record    map[string]any `json:"record"`
	OldRecord map[string]any `json:"old_record"`
}

// Subscription is an open push channel for one (schema, table, event)
// key. Events is closed when the subscription ends, whether by Close or
// by a transport failure.
type Subscription struct {
	conn   *websocket.Conn
	events chan RawEvent
	kind   string
	topic  string
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
	quit      chan struct{} // closed by Close to unblock pending deliveries
	done      chan struct{} // closed when the read loop exits
}

// Subscribe opens a channel for changes to schema.table. event is one of
// INSERT, UPDATE, DELETE or EventAll.
func (c *Client) Subscribe(ctx context.Context, schema, table, event string) (*Subscription, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.wsURL, http.Header{})
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	topic := "realtime:" + schema + ":" + table
	join := frame{Topic: topic, Event: "phx_join", Payload: json.RawMessage(`{}`), Ref: "1"}
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join %s: %w", topic, err)
	}

	sub := &Subscription{
		conn:   conn,
		events: make(chan RawEvent, 16),
		kind:   event,
		topic:  topic,
		logger: c.logger,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	heartbeat := c.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	go sub.heartbeatLoop(heartbeat)
	go sub.readLoop()
	return sub, nil
}

// Events delivers inbound row payloads until the subscription closes.
func (s *Subscription) Events() <-chan RawEvent { return s.events }

func (s *Subscription) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ref := 2
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			hb := frame{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`), Ref: strconv.Itoa(ref)}
			ref++
			if err := s.conn.WriteJSON(hb); err != nil {
				s.logger.Debug("heartbeat write failed", "topic", s.topic, "error", err)
				return
			}
		}
	}
}

func (s *Subscription) readLoop() {
	defer close(s.events)
	defer close(s.done)
	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			// Normal teardown path after Close; anything else is a
			// transport failure and also ends the subscription.
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("realtime read ended", "topic", s.topic, "error", err)
			}
			return
		}
		if f.Topic != s.topic {
			continue
		}
		switch f.Event {
		case "INSERT", "UPDATE", "DELETE":
		default:
			continue
		}
		if s.kind != EventAll && f.Event != s.kind {
			continue
		}
		var p changePayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			s.logger.Warn("undecodable change payload", "topic", s.topic, "error", err)
			continue
		}
		select {
		case s.events <- RawEvent{Type: f.Event, Record: p.Record, OldRecord: p.OldRecord}:
		case <-s.quit:
			return
		}
	}
}

// Close leaves the topic and releases the socket. Safe to call more than
// once; only the first call acts.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.closeErr = s.conn.Close()
		<-s.done
	})
	return s.closeErr
}
