package kodi

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

type recordedCall struct {
	Method string
	Params string
}

// fakeKodi is a websocket JSON-RPC server that answers calls through handle and can push notifications
type fakeKodi struct {
	t      *testing.T
	srv    *httptest.Server
	handle func(method string, params json.RawMessage) (any, *RemoteError)

	mu      sync.Mutex
	calls   []recordedCall
	conn    *websocket.Conn
	writeMu sync.Mutex
	ready   chan struct{}
}

func newFakeKodi(t *testing.T, handle func(method string, params json.RawMessage) (any, *RemoteError)) *fakeKodi {
	t.Helper()
	fk := &fakeKodi{t: t, handle: handle, ready: make(chan struct{})}
	upgrader := websocket.Upgrader{}
	fk.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fk.mu.Lock()
		fk.conn = conn
		fk.mu.Unlock()
		close(fk.ready)
		fk.serve(conn)
	}))
	return fk
}

func (fk *fakeKodi) serve(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			fk.t.Errorf("fake kodi received bad frame: %v", err)
			return
		}
		fk.mu.Lock()
		fk.calls = append(fk.calls, recordedCall{Method: req.Method, Params: string(req.Params)})
		fk.mu.Unlock()

		result, rpcErr := fk.answer(req.Method, req.Params)
		reply := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			reply["error"] = rpcErr
		} else {
			reply["result"] = result
		}
		fk.writeMu.Lock()
		err = conn.WriteJSON(reply)
		fk.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (fk *fakeKodi) answer(method string, params json.RawMessage) (any, *RemoteError) {
	if method == "JSONRPC.Ping" {
		return "pong", nil
	}
	if fk.handle == nil {
		return "OK", nil
	}
	return fk.handle(method, params)
}

// push sends a raw frame to the connected client
func (fk *fakeKodi) push(raw string) {
	fk.t.Helper()
	<-fk.ready
	fk.mu.Lock()
	conn := fk.conn
	fk.mu.Unlock()
	fk.writeMu.Lock()
	defer fk.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
		fk.t.Fatalf("push failed: %v", err)
	}
}

func (fk *fakeKodi) recorded() []recordedCall {
	fk.mu.Lock()
	defer fk.mu.Unlock()
	return append([]recordedCall(nil), fk.calls...)
}

func (fk *fakeKodi) endpoint() Endpoint {
	return endpointFor(fk.t, fk.srv.URL)
}

func endpointFor(t *testing.T, rawURL string) Endpoint {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("bad url: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("bad host: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return Endpoint{Host: host, HTTPPort: port, WSPort: port}
}
