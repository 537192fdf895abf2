package kodi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PizzaHomicide/kodicast/internal/log"
	"github.com/gorilla/websocket"
)

// maxBacklog caps how many notifications are held for a subscriber that is not reading
const maxBacklog = 1024

// Session is a live JSON-RPC connection to Kodi.  Calls are correlated by id, notifications are delivered through
// the channel returned by Subscribe.
type Session struct {
	endpoint string
	conn     *websocket.Conn
	writeMu  sync.Mutex

	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[uint64]chan response

	inbox         chan []byte
	notifications chan Notification
	subscribed    atomic.Bool

	// readDone is closed when the reader goroutine exits, readErr holds why
	readDone chan struct{}
	readErr  error

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage
	Error  *RemoteError
}

type frame struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Error  *RemoteError    `json:"error"`
}

// Connect dials Kodi's websocket endpoint and performs the JSONRPC.Ping handshake
func Connect(ctx context.Context, ep Endpoint) (*Session, error) {
	url := ep.WebSocketURL()
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}

	log.Debug("Connecting to kodi", "url", url)
	conn, resp, err := dialer.DialContext(ctx, url, ep.header())
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (http status %d)", err, resp.StatusCode)
		}
		return nil, &ConnectError{Endpoint: url, Err: err}
	}

	s := newSession(url, conn)

	var pong string
	if err := s.Call(ctx, "JSONRPC.Ping", nil, &pong); err != nil {
		s.Close()
		return nil, &ConnectError{Endpoint: url, Err: err}
	}
	if pong != "pong" {
		log.Warn("Unexpected reply to ping", "reply", pong)
	}

	log.Info("Connected to kodi", "url", url)
	return s, nil
}

func newSession(endpoint string, conn *websocket.Conn) *Session {
	s := &Session{
		endpoint:      endpoint,
		conn:          conn,
		pending:       make(map[uint64]chan response),
		inbox:         make(chan []byte, 16),
		notifications: make(chan Notification),
		readDone:      make(chan struct{}),
		closed:        make(chan struct{}),
	}
	s.wg.Add(2)
	go s.readFrames()
	go s.pump()
	return s
}

// Close shuts the connection down and waits for the background goroutines to finish.  Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	s.wg.Wait()
	return err
}

// Done is closed once the connection has stopped delivering frames
func (s *Session) Done() <-chan struct{} {
	return s.readDone
}

// Subscribe returns the notification stream of the session.  Frames that are not notifications or that fall
// outside the known catalog are skipped.  The channel is closed once the connection ends.  A session can only be
// subscribed to once.
func (s *Session) Subscribe() (<-chan Notification, error) {
	if !s.subscribed.CompareAndSwap(false, true) {
		return nil, ErrAlreadySubscribed
	}
	return s.notifications, nil
}

// Call invokes method with params and decodes the result into result, which may be nil if the caller does not care.
func (s *Session) Call(ctx context.Context, method string, params any, result any) error {
	id := s.nextID.Add(1)
	reply := make(chan response, 1)

	s.mu.Lock()
	s.pending[id] = reply
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	log.Trace("Sending kodi request", "id", id, "method", method)
	if err := s.write(ctx, request{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("sending %s: %w", method, err)
	}

	select {
	case resp := <-reply:
		return decodeResponse(method, resp, result)
	case <-s.readDone:
		return fmt.Errorf("%s: %w: %v", method, ErrClosed, s.readErr)
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

func decodeResponse(method string, resp response, result any) error {
	if resp.Error != nil {
		return &ProtocolError{Method: method, Kind: KindRemote, Remote: resp.Error}
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		log.Error("Kodi result does not match the expected shape", "method", method, "raw", string(resp.Result), "error", err)
		return &ProtocolError{Method: method, Kind: KindDecode, Raw: resp.Result, Err: err}
	}
	return nil
}

func (s *Session) write(ctx context.Context, req request) error {
	if s.isDone() {
		return ErrClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	err := s.conn.SetWriteDeadline(deadline)
	if err == nil {
		err = s.conn.WriteJSON(req)
	}
	if err != nil && s.isDone() {
		return ErrClosed
	}
	return err
}

func (s *Session) isDone() bool {
	select {
	case <-s.closed:
		return true
	case <-s.readDone:
		return true
	default:
		return false
	}
}

// readFrames routes every incoming frame.  Replies go to the waiting call, notifications to the pump.
func (s *Session) readFrames() {
	defer s.wg.Done()
	defer close(s.inbox)
	defer close(s.readDone)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = err
			select {
			case <-s.closed:
				log.Debug("Kodi reader stopped")
			default:
				log.Warn("Kodi connection lost", "url", s.endpoint, "error", err)
			}
			return
		}

		log.Trace("Raw kodi frame", "data", string(data))

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Warn("Skipping unparseable kodi frame", "error", err)
			continue
		}

		if isNullID(f.ID) {
			if f.Method == "" {
				log.Debug("Skipping kodi frame without id or method")
				continue
			}
			select {
			case s.inbox <- data:
			case <-s.closed:
				return
			}
			continue
		}

		id, err := strconv.ParseUint(string(bytes.Trim(f.ID, `"`)), 10, 64)
		if err != nil {
			log.Warn("Skipping kodi reply with foreign id", "id", string(f.ID))
			continue
		}

		s.mu.Lock()
		reply, ok := s.pending[id]
		s.mu.Unlock()
		if !ok {
			log.Debug("Dropping kodi reply nobody is waiting for", "id", id)
			continue
		}
		select {
		case reply <- response{Result: f.Result, Error: f.Error}:
		default:
			log.Warn("Dropping duplicate kodi reply", "id", id)
		}
	}
}

func isNullID(id json.RawMessage) bool {
	return len(id) == 0 || bytes.Equal(id, []byte("null"))
}

// pump decodes notifications and holds them until the subscriber takes them, so a slow subscriber never stalls the
// reader and with it the replies to pending calls.
func (s *Session) pump() {
	defer s.wg.Done()
	defer close(s.notifications)

	var queue []Notification
	in := s.inbox
	for {
		if in == nil && len(queue) == 0 {
			return
		}

		var out chan Notification
		var next Notification
		if len(queue) > 0 {
			out = s.notifications
			next = queue[0]
		}

		select {
		case raw, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			n, err := parseNotification(raw)
			if err != nil {
				log.Debug("Skipping kodi notification", "error", err)
				continue
			}
			log.Debug("Kodi notification", "kind", n.Kind, "player_id", n.Player.ID, "item", n.Item.Describe())
			if len(queue) >= maxBacklog {
				log.Warn("Notification backlog full, dropping oldest")
				queue = queue[1:]
			}
			queue = append(queue, n)
		case out <- next:
			queue = queue[1:]
		case <-s.closed:
			return
		}
	}
}
