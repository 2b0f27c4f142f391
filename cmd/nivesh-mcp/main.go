// Command nivesh-mcp bridges stdio MCP clients to a running nivesh-server.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bobmcallan/nivesh/internal/common"
)

const defaultTimeout = 120 * time.Second

// Bridge relays newline-delimited JSON-RPC between stdio and the server's
// streamable HTTP endpoint.
type Bridge struct {
	endpoint   string
	httpClient *http.Client
	logger     *common.Logger
}

func main() {
	serverURL := os.Getenv("NIVESH_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	timeout := defaultTimeout
	if v := os.Getenv("NIVESH_MCP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	b := &Bridge{
		endpoint:   strings.TrimRight(serverURL, "/") + "/mcp",
		httpClient: &http.Client{Timeout: timeout},
		// stdout carries the protocol
		logger: common.NewLoggerWithOutput("warn", os.Stderr),
	}

	if err := b.Run(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "nivesh-mcp: %v\n", err)
		os.Exit(1)
	}
}

// Run relays messages until r is exhausted. A failed relay is answered with a
// JSON-RPC error for requests and dropped for notifications.
func (b *Bridge) Run(r io.Reader, w io.Writer) error {
	if b.httpClient == nil {
		b.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if b.logger == nil {
		b.logger = common.NewSilentLogger()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		id, isRequest := requestID(line)
		replies, err := b.relay(line)
		if err != nil {
			b.logger.Warn().Err(err).Msg("MCP relay failed")
			if isRequest {
				writeLine(w, rpcError(id, -32000, err.Error()))
			}
			continue
		}
		for _, reply := range replies {
			writeLine(w, reply)
		}
	}

	return scanner.Err()
}

// relay posts one message and returns the JSON-RPC messages sent back,
// whether as a plain JSON body or as an event stream.
func (b *Bridge) relay(msg []byte) ([][]byte, error) {
	req, err := http.NewRequest(http.MethodPost, b.endpoint, bytes.NewReader(msg))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusAccepted:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return sseData(body), nil
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	return [][]byte{body}, nil
}

// sseData extracts the data payload of each event in a buffered stream.
func sseData(stream []byte) [][]byte {
	var out [][]byte
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}
	for _, line := range bytes.Split(stream, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		switch {
		case len(line) == 0:
			flush()
		case bytes.HasPrefix(line, []byte("data:")):
			data := bytes.TrimSpace(line[len("data:"):])
			if len(cur) > 0 {
				cur = append(cur, '\n')
			}
			cur = append(cur, data...)
		}
	}
	flush()
	return out
}

// requestID returns the message id and whether the message expects a reply.
func requestID(msg []byte) (json.RawMessage, bool) {
	var m struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(msg, &m); err != nil {
		return json.RawMessage("null"), true
	}
	if m.ID == nil {
		return nil, false
	}
	return m.ID, true
}

func rpcError(id json.RawMessage, code int, message string) []byte {
	data, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
	return data
}

func writeLine(w io.Writer, b []byte) {
	w.Write(b)
	w.Write([]byte("\n"))
}
