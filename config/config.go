// Package config holds deployment-scoped configuration. Values such as the
// reorg threshold and ancestor count are passed explicitly per deployment
// rather than read from process-wide global state, mirroring the source
// protocol's own REORG_THRESHOLD/ANCESTOR_COUNT constants but scoped to a
// record instead of process globals.
package config

import "fmt"

// DeploymentConfig configures one subgraph deployment's dispatch session.
type DeploymentConfig struct {
	DeploymentID string

	// ReorgThreshold is the block depth beyond which the canonical chain is
	// assumed stable; the core does not detect reorgs itself and does not
	// read this value; it is carried for the chain adapter collaborator.
	// Defaults to 50, matching the source protocol.
	ReorgThreshold uint64

	// AncestorCount is the number of ancestor blocks the chain adapter must
	// retain so the reorg threshold above can be honored. Must be >=
	// ReorgThreshold.
	AncestorCount uint64

	// Workers bounds the fixed worker pool size a scheduler uses to run
	// deployments concurrently; it does not affect within-deployment
	// dispatch, which is always sequential.
	Workers int
}

// DefaultReorgThreshold and DefaultAncestorCount match the source
// protocol's defaults (node/src/main.rs: 50 blocks each).
const (
	DefaultReorgThreshold = 50
	DefaultAncestorCount  = 50
)

// NewDeploymentConfig returns a DeploymentConfig with the source protocol's
// defaults for reorg threshold and ancestor count.
func NewDeploymentConfig(deploymentID string, workers int) *DeploymentConfig {
	return &DeploymentConfig{
		DeploymentID:   deploymentID,
		ReorgThreshold: DefaultReorgThreshold,
		AncestorCount:  DefaultAncestorCount,
		Workers:        workers,
	}
}

// Validate checks the one invariant the source protocol asserts at startup:
// a chain adapter configured to retain AncestorCount ancestors must retain
// at least ReorgThreshold of them for the block stream to work correctly.
func (c *DeploymentConfig) Validate() error {
	if c.AncestorCount < c.ReorgThreshold {
		return fmt.Errorf("ancestor count (%d) must be >= reorg threshold (%d)", c.AncestorCount, c.ReorgThreshold)
	}
	return nil
}
