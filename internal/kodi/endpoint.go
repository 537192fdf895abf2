package kodi

import (
	"encoding/base64"
	"net"
	"net/http"
	"strconv"
)

const (
	DefaultHTTPPort      = 8080
	DefaultWebSocketPort = 9090
)

// Endpoint describes how to reach a Kodi instance
type Endpoint struct {
	Host     string
	HTTPPort int
	WSPort   int
	Username string
	Password string
}

// HTTPURL is the plain request/response JSON-RPC endpoint
func (e Endpoint) HTTPURL() string {
	port := e.HTTPPort
	if port == 0 {
		port = DefaultHTTPPort
	}
	return "http://" + net.JoinHostPort(e.Host, strconv.Itoa(port)) + "/jsonrpc"
}

// WebSocketURL is the duplex JSON-RPC endpoint used for sessions
func (e Endpoint) WebSocketURL() string {
	port := e.WSPort
	if port == 0 {
		port = DefaultWebSocketPort
	}
	return "ws://" + net.JoinHostPort(e.Host, strconv.Itoa(port)) + "/jsonrpc"
}

func (e Endpoint) header() http.Header {
	h := http.Header{}
	if e.Username != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(e.Username + ":" + e.Password))
		h.Set("Authorization", "Basic "+creds)
	}
	return h
}
