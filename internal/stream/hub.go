package stream

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/san-kum/crustheat/internal/export"
	"github.com/san-kum/crustheat/internal/thermal"
)

const DefaultClientBuffer = 8

// Msg is the envelope of every frame sent to a client.
type Msg struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content,omitempty"`
}

const (
	TypeSnapshot = "snapshot"
	TypeDone     = "done"
)

type client struct {
	id   int
	send chan []byte
}

// Hub fans snapshots out to websocket clients. It is a thermal.Observer:
// OnSnapshot only parks the snapshot, and a hub goroutine encodes each frame
// once and hands it to every client without blocking. A snapshot still parked
// when a newer one arrives is skipped, so the newest always goes out. A client
// whose buffer is full is disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	nextID  int
	buffer  int
	last    []byte
	closed  bool
	dropped int

	qmu     sync.Mutex
	pending *thermal.Snapshot
	wake    chan struct{}
	qclosed bool
	skipped atomic.Int64
	encoded chan struct{}

	log log.FieldLogger
}

func NewHub(buffer int, logger log.FieldLogger) *Hub {
	if buffer < 1 {
		buffer = DefaultClientBuffer
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	h := &Hub{
		clients: make(map[*client]struct{}),
		buffer:  buffer,
		wake:    make(chan struct{}, 1),
		encoded: make(chan struct{}),
		log:     logger,
	}
	go h.encode()
	return h
}

func (h *Hub) encode() {
	defer close(h.encoded)
	for range h.wake {
		h.flush()
	}
	h.flush()
}

func (h *Hub) flush() {
	h.qmu.Lock()
	s := h.pending
	h.pending = nil
	h.qmu.Unlock()
	if s != nil {
		h.Broadcast(Msg{Type: TypeSnapshot, Content: export.NewDocument(*s)})
	}
}

// register adds a client and queues the latest frame for it, if any.
func (h *Hub) register() *client {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	c := &client{id: h.nextID, send: make(chan []byte, h.buffer)}
	if h.closed {
		close(c.send)
		return c
	}
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = struct{}{}
	h.log.WithFields(log.Fields{"client": c.id, "clients": len(h.clients)}).Info("client connected")
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.WithFields(log.Fields{"client": c.id, "clients": len(h.clients)}).Info("client disconnected")
}

// OnSnapshot implements thermal.Observer. It never waits on the encoder.
func (h *Hub) OnSnapshot(s thermal.Snapshot) {
	h.qmu.Lock()
	defer h.qmu.Unlock()
	if h.qclosed {
		return
	}
	if h.pending != nil {
		h.skipped.Add(1)
	}
	h.pending = &s
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Broadcast encodes msg and offers it to every client. Snapshot frames are
// remembered for clients that connect later.
func (h *Hub) Broadcast(msg Msg) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("encode frame")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if msg.Type == TypeSnapshot {
		h.last = data
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
			h.dropped++
			h.log.WithFields(log.Fields{"client": c.id, "buffer": h.buffer}).Warn("dropping slow client")
		}
	}
}

// Close waits for the parked snapshot to go out, sends a final done frame and
// disconnects every client. Later snapshots are ignored.
func (h *Hub) Close() {
	h.qmu.Lock()
	if !h.qclosed {
		h.qclosed = true
		close(h.wake)
	}
	h.qmu.Unlock()
	<-h.encoded

	h.Broadcast(Msg{Type: TypeDone})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Skipped counts snapshots superseded before the encoder reached them.
func (h *Hub) Skipped() int64 { return h.skipped.Load() }

// Dropped counts clients disconnected for falling behind.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
