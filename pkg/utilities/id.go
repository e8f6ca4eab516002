package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator hands out snowflake ids for one node. Generate is safe for
// concurrent use.
type IDGenerator struct {
	node *snowflake.Node
}

var (
	defaultGen     *IDGenerator
	defaultGenOnce sync.Once
)

// NewIDGenerator builds a generator for nodeID. If the node cannot be
// initialized (id out of range) node 1 is used instead.
func NewIDGenerator(nodeID int64) *IDGenerator {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		node, _ = snowflake.NewNode(1)
	}
	return &IDGenerator{node: node}
}

// Generate returns the next snowflake id as a string. A nil generator falls
// back to a KSUID so callers always get a unique value.
func (g *IDGenerator) Generate() string {
	if g == nil || g.node == nil {
		return NewKSUID()
	}
	return g.node.Generate().String()
}

// NewSnowflakeID generates a snowflake ID string on node 1.
func NewSnowflakeID() string {
	defaultGenOnce.Do(func() { defaultGen = NewIDGenerator(1) })
	return defaultGen.Generate()
}
