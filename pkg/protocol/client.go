// ABOUTME: Producer clients for the voxroute ingress
// ABOUTME: HTTP client for one-shot submits and a WebSocket stream client
package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client talks to the HTTP ingress
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an HTTP client for host:port
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{},
	}
}

// Play submits a buffer and blocks until the server reports completion
func (c *Client) Play(ctx context.Context, channel int, audio []byte) error {
	u := c.baseURL + "/?channel=" + strconv.Itoa(channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit audio: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server rejected audio: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return nil
}

// Settings fetches every channel's settings
func (c *Client) Settings(ctx context.Context) ([]ChannelSetting, error) {
	var settings []ChannelSetting
	if err := c.getJSON(ctx, "/settings", &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Devices fetches the server's output devices
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.getJSON(ctx, "/devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// StreamClient submits buffers over one WebSocket connection
type StreamClient struct {
	conn  *websocket.Conn
	hello ServerHello
	mu    sync.Mutex
}

// Dial connects to the WebSocket ingress and waits for server/hello
func Dial(ctx context.Context, addr string) (*StreamClient, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}

	c := &StreamClient{conn: conn}

	env, err := c.read(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if env.Type != TypeServerHello {
		conn.Close()
		return nil, fmt.Errorf("expected %s, got %s", TypeServerHello, env.Type)
	}
	if err := env.Decode(&c.hello); err != nil {
		conn.Close()
		return nil, err
	}

	return c, nil
}

// Hello returns the server's greeting
func (c *StreamClient) Hello() ServerHello {
	return c.hello
}

// Play sends one frame and waits for its completion message
func (c *StreamClient) Play(ctx context.Context, channel int, audio []byte) (PlaybackDone, error) {
	frame, err := EncodeFrame(channel, audio)
	if err != nil {
		return PlaybackDone{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return PlaybackDone{}, fmt.Errorf("failed to send frame: %w", err)
	}

	env, err := c.read(ctx)
	if err != nil {
		return PlaybackDone{}, err
	}

	switch env.Type {
	case TypePlaybackDone:
		var done PlaybackDone
		err := env.Decode(&done)
		return done, err
	case TypePlaybackTimeout:
		var timeout PlaybackTimeout
		if err := env.Decode(&timeout); err != nil {
			return PlaybackDone{}, err
		}
		return PlaybackDone{ID: timeout.ID, Channel: timeout.Channel}, fmt.Errorf("server stopped waiting for %s", timeout.ID)
	case TypeError:
		var e ErrorPayload
		if err := env.Decode(&e); err != nil {
			return PlaybackDone{}, err
		}
		return PlaybackDone{}, fmt.Errorf("server rejected frame: %s", e.Message)
	default:
		return PlaybackDone{}, fmt.Errorf("unexpected message %s", env.Type)
	}
}

func (c *StreamClient) read(ctx context.Context) (Envelope, error) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	} else {
		c.conn.SetReadDeadline(time.Time{})
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to read message: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return env, nil
}

// Close sends a close frame and closes the connection
func (c *StreamClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
