package conf

import (
	"fmt"

	"github.com/squareup/colload/errors"
)

const (
	DefaultChunkCapacity = 2048
	MaxChunkCapacity     = 1 << 20
	DefaultMetricsAddr   = "localhost:2112"
)

type Config struct {
	DataDir        string `json:"data_dir,omitempty"`
	ChunkCapacity  int    `json:"chunk_capacity,omitempty"` // Rows buffered by an appender before it flushes
	SyncWrites     bool   `json:"sync_writes,omitempty"`
	MetricsEnabled bool   `json:"metrics_enabled,omitempty"`
	MetricsAddr    string `json:"metrics_addr,omitempty"`
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.NewInvalidConfigurationError("DataDir must be specified")
	}
	if c.ChunkCapacity < 1 {
		return errors.NewInvalidConfigurationError("ChunkCapacity must be >= 1")
	}
	if c.ChunkCapacity > MaxChunkCapacity {
		return errors.NewInvalidConfigurationError(fmt.Sprintf("ChunkCapacity must be <= %d", MaxChunkCapacity))
	}
	if c.MetricsEnabled && c.MetricsAddr == "" {
		return errors.NewInvalidConfigurationError("MetricsAddr must be specified when MetricsEnabled is set")
	}
	return nil
}

func NewDefaultConfig() *Config {
	return &Config{
		ChunkCapacity: DefaultChunkCapacity,
		SyncWrites:    true,
		MetricsAddr:   DefaultMetricsAddr,
	}
}

func NewTestConfig(dataDir string) *Config {
	return &Config{
		DataDir:       dataDir,
		ChunkCapacity: 16,
	}
}
