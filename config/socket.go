package config

import "time"

// SocketConfig holds WebSocket transport configuration.
type SocketConfig struct {
	MaxConnections  int           `json:"max_connections"`
	PingInterval    time.Duration `json:"ping_interval"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ReadBufferSize  int           `json:"read_buffer_size"`
	WriteBufferSize int           `json:"write_buffer_size"`
	SendBuffer      int           `json:"send_buffer"`
	MaxFrameBytes   int64         `json:"max_frame_bytes"`
	// AllowedOrigins lists accepted Origin headers. Empty accepts any origin.
	AllowedOrigins []string `json:"allowed_origins"`
}

// DefaultSocketConfig returns the default WebSocket configuration.
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		MaxConnections:  1000,
		PingInterval:    30 * time.Second,
		WriteTimeout:    10 * time.Second,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		MaxFrameBytes:   16 << 10,
	}
}

// PongWait is how long the read side waits for any frame before giving up.
func (c SocketConfig) PongWait() time.Duration {
	return 2 * c.PingInterval
}
