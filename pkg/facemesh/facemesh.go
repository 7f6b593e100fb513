package facemesh

import (
	"ProjectHatify/internal/entity"
	"ProjectHatify/pkg/overlay"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ItfFaceMesh is the client for the external landmark-detection sidecar. The
// sidecar is a black box: it receives an encoded image frame and answers
// with one normalized landmark list per detected face.
type ItfFaceMesh interface {
	DetectLandmarks(frame []byte) ([]overlay.FaceLandmarkSet, error)
	IsConnected() bool
	Reconnect() error
	Close()
}

type faceMeshClient struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func New() ItfFaceMesh {
	client := &faceMeshClient{
		pingInterval: 30 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}

	go func() {
		if err := client.Reconnect(); err != nil {
			log.Printf("Initial connection to face mesh service failed: %v. Will retry on demand.", err)
		} else {
			log.Printf("Successfully connected to face mesh service")
		}
	}()

	return client
}

func (c *faceMeshClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *faceMeshClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	url := os.Getenv("FACE_MESH_URL")
	if url == "" {
		url = "ws://localhost:8000/api/v1/facemesh/ws"
	}

	log.Printf("Connecting to face mesh service at %s", url)

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
		if err != nil {
			log.Printf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn

	go c.keepAlive()

	return nil
}

func (c *faceMeshClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *faceMeshClient) keepAlive() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		conn := c.conn
		if conn == nil {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(
			websocket.PingMessage,
			[]byte{},
			time.Now().Add(c.writeTimeout),
		)
		if err != nil {
			log.Printf("Ping to face mesh service failed, marking connection as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

// DetectLandmarks sends one encoded image frame and decodes the sidecar's
// landmark lists. An empty slice means no faces were found, which is not an
// error.
func (c *faceMeshClient) DetectLandmarks(frame []byte) ([]overlay.FaceLandmarkSet, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		if err := c.Reconnect(); err != nil {
			return nil, fmt.Errorf("cannot connect to face mesh service: %w", err)
		}
		c.mu.Lock()
		conn = c.conn
		c.mu.Unlock()
		if conn == nil {
			return nil, errors.New("face mesh connection unavailable")
		}
	}

	c.mu.Lock()

	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))

	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.conn = nil
		conn.Close()
		c.mu.Unlock()
		return nil, fmt.Errorf("error sending frame to face mesh service: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(c.readTimeout))

	c.mu.Unlock()

	_, message, err := conn.ReadMessage()
	if err != nil {
		c.mu.Lock()
		c.conn = nil
		conn.Close()
		c.mu.Unlock()
		return nil, fmt.Errorf("error reading face mesh response: %w", err)
	}

	c.mu.Lock()
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})
	c.mu.Unlock()

	var result entity.FaceMeshResult
	if err := json.Unmarshal(message, &result); err != nil {
		return nil, fmt.Errorf("error unmarshaling face mesh response: %w", err)
	}

	if result.Error != "" {
		return nil, fmt.Errorf("face mesh service error: %s", result.Error)
	}

	sets := make([]overlay.FaceLandmarkSet, 0, len(result.Faces))
	for _, face := range result.Faces {
		set := make(overlay.FaceLandmarkSet, len(face))
		for i, lm := range face {
			set[i] = overlay.Landmark{X: lm.X, Y: lm.Y}
		}
		sets = append(sets, set)
	}

	return sets, nil
}
