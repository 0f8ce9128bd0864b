// Package idgen produces identifiers for admin runs and requests.
package idgen

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// Generator issues time-ordered run IDs. A nil node means snowflake setup
// failed and KSUIDs are issued instead.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator builds a Generator for the given snowflake node (0..1023).
// An out-of-range node falls back to KSUIDs.
func NewGenerator(nodeID int64) *Generator {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return &Generator{}
	}
	return &Generator{node: node}
}

// FromEnv reads the node ID from SNOWFLAKE_NODE, defaulting to 1.
func FromEnv() *Generator {
	nodeID := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			nodeID = n
		}
	}
	return NewGenerator(nodeID)
}

// RunID returns a new identifier for a reconcile, audit, reset or delete run.
func (g *Generator) RunID() string {
	if g == nil || g.node == nil {
		return NewKSUID()
	}
	return g.node.Generate().String()
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// RunID issues an ID from a process-wide generator configured from the
// environment.
func RunID() string {
	defaultOnce.Do(func() { defaultGen = FromEnv() })
	return defaultGen.RunID()
}

func NewKSUID() string {
	return ksuid.New().String()
}

// RequestID returns a random UUID for tagging admin requests in logs.
func RequestID() string {
	return uuid.NewString()
}
