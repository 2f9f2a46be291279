/*
 * MIT License
 *
 * Copyright (c) 2023-2026 Olympus Health Team
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/atomic"

	"github.com/olympushealth/otp/errors"
	"github.com/olympushealth/otp/hash"
	"github.com/olympushealth/otp/log"
)

const (
	// DefaultReplicationFactor is the number of nodes a registration would
	// be replicated to.
	DefaultReplicationFactor = 3
	// DefaultSweepInterval is how often node heartbeats are inspected.
	DefaultSweepInterval = 5 * time.Second
	// suspiciousAfter is the heartbeat age that demotes a node to Suspicious.
	suspiciousAfter = 15 * time.Second
	// failedAfter is the heartbeat age that demotes a node to Failed.
	failedAfter = 45 * time.Second
)

// NodeStatus is the health of a member node.
type NodeStatus int

const (
	// NodeActive means the node heartbeats normally.
	NodeActive NodeStatus = iota
	// NodeSuspicious means heartbeats have gone quiet recently.
	NodeSuspicious
	// NodeFailed means heartbeats stopped long enough to write the node off.
	NodeFailed
	// NodeLeft means the node departed deliberately.
	NodeLeft
)

var nodeStatusNames = map[NodeStatus]string{
	NodeActive:     "active",
	NodeSuspicious: "suspicious",
	NodeFailed:     "failed",
	NodeLeft:       "left",
}

// String implements fmt.Stringer
func (s NodeStatus) String() string {
	if name, ok := nodeStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// NodeInfo is the membership record of one node.
type NodeInfo struct {
	// NodeID uniquely identifies the node.
	NodeID string
	// Address is the node's transport endpoint.
	Address string
	// LastHeartbeat is the time of the last heartbeat received.
	LastHeartbeat time.Time
	// Status is the current health assessment.
	Status NodeStatus
}

// ClusterOption configures a Cluster.
type ClusterOption func(*Cluster)

// WithReplicationFactor sets the replica count used for placement.
func WithReplicationFactor(factor int) ClusterOption {
	return func(c *Cluster) {
		if factor > 0 {
			c.replicationFactor = factor
		}
	}
}

// WithSweepInterval sets how often the heartbeat sweep runs.
func WithSweepInterval(interval time.Duration) ClusterOption {
	return func(c *Cluster) {
		if interval > 0 {
			c.sweepInterval = interval
		}
	}
}

// WithClusterLogger sets the cluster logger.
func WithClusterLogger(logger log.Logger) ClusterOption {
	return func(c *Cluster) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHasher replaces the placement hasher.
func WithHasher(hasher hash.Hasher) ClusterOption {
	return func(c *Cluster) {
		if hasher != nil {
			c.hasher = hasher
		}
	}
}

// Cluster keeps the membership view of a distributed deployment and the
// placement math for registry replication. It is bookkeeping only: no
// transport is wired, so the replication operations are documented no-ops
// and remote lookups fail with ErrRemotingNotSupported.
type Cluster struct {
	mu    sync.RWMutex
	nodes map[string]*NodeInfo

	replicationFactor int
	sweepInterval     time.Duration
	hasher            hash.Hasher
	logger            log.Logger

	scheduler quartz.Scheduler
	started   *atomic.Bool

	onStatusChange func(node NodeInfo)
}

// NewCluster creates a cluster membership view.
func NewCluster(opts ...ClusterOption) *Cluster {
	scheduler, _ := quartz.NewStdScheduler(
		quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))

	cluster := &Cluster{
		nodes:             make(map[string]*NodeInfo),
		replicationFactor: DefaultReplicationFactor,
		sweepInterval:     DefaultSweepInterval,
		hasher:            hash.DefaultHasher(),
		logger:            log.DiscardLogger,
		scheduler:         scheduler,
		started:           atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(cluster)
	}
	return cluster
}

// Start launches the periodic heartbeat sweep.
func (c *Cluster) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}
	c.scheduler.Start(ctx)

	sweep := job.NewFunctionJob[bool](func(context.Context) (bool, error) {
		c.sweep()
		return true, nil
	})
	detail := quartz.NewJobDetail(sweep, quartz.NewJobKey("node-heartbeat-sweep"))
	return c.scheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(c.sweepInterval))
}

// Stop halts the heartbeat sweep.
func (c *Cluster) Stop(ctx context.Context) {
	if !c.started.CompareAndSwap(true, false) {
		return
	}
	_ = c.scheduler.Clear()
	c.scheduler.Stop()
	c.scheduler.Wait(ctx)
}

// Join adds or revives a node in the membership view.
func (c *Cluster) Join(nodeID, addr string) {
	node := NodeInfo{
		NodeID:        nodeID,
		Address:       addr,
		LastHeartbeat: time.Now(),
		Status:        NodeActive,
	}
	c.mu.Lock()
	c.nodes[nodeID] = &node
	c.mu.Unlock()
	c.logger.Infof("node %s joined at %s", nodeID, addr)
	if c.onStatusChange != nil {
		c.onStatusChange(node)
	}
}

// Leave marks a node as deliberately departed.
func (c *Cluster) Leave(nodeID string) {
	var departed *NodeInfo
	c.mu.Lock()
	if node, ok := c.nodes[nodeID]; ok {
		node.Status = NodeLeft
		copied := *node
		departed = &copied
	}
	c.mu.Unlock()
	if departed == nil {
		return
	}
	c.logger.Infof("node %s left", nodeID)
	if c.onStatusChange != nil {
		c.onStatusChange(*departed)
	}
}

// Heartbeat refreshes a node's liveness. Heartbeats from departed nodes
// revive them.
func (c *Cluster) Heartbeat(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	node, ok := c.nodes[nodeID]
	if !ok {
		return
	}
	node.LastHeartbeat = time.Now()
	node.Status = NodeActive
}

// Node returns a copy of the membership record for the given node.
func (c *Cluster) Node(nodeID string) (NodeInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	node, ok := c.nodes[nodeID]
	if !ok {
		return NodeInfo{}, false
	}
	return *node, true
}

// Nodes returns a copy of the full membership view.
func (c *Cluster) Nodes() []NodeInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nodes := make([]NodeInfo, 0, len(c.nodes))
	for _, node := range c.nodes {
		nodes = append(nodes, *node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].NodeID < nodes[j].NodeID })
	return nodes
}

// ReplicaNodes picks the nodes a name would be replicated to, using
// rendezvous hashing over the active members so placement stays stable as
// membership changes.
func (c *Cluster) ReplicaNodes(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	type scored struct {
		nodeID string
		score  uint64
	}
	candidates := make([]scored, 0, len(c.nodes))
	for nodeID, node := range c.nodes {
		if node.Status != NodeActive {
			continue
		}
		score := c.hasher.HashCode([]byte(name + "@" + nodeID))
		candidates = append(candidates, scored{nodeID: nodeID, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].nodeID < candidates[j].nodeID
		}
		return candidates[i].score > candidates[j].score
	})

	count := c.replicationFactor
	if count > len(candidates) {
		count = len(candidates)
	}
	replicas := make([]string, 0, count)
	for _, candidate := range candidates[:count] {
		replicas = append(replicas, candidate.nodeID)
	}
	return replicas
}

// ReplicateRegistration would push a name binding to its replica nodes. No
// transport is wired, so it only reports where the binding would land.
func (c *Cluster) ReplicateRegistration(name string) []string {
	replicas := c.ReplicaNodes(name)
	c.logger.Debugf("registration %s would replicate to %v", name, replicas)
	return replicas
}

// LookupRemote would resolve a name on another node. It always fails with
// ErrRemotingNotSupported until a transport is plugged in.
func (c *Cluster) LookupRemote(string) (*Entry, error) {
	return nil, errors.ErrRemotingNotSupported
}

// sweep demotes nodes whose heartbeats have gone stale.
func (c *Cluster) sweep() {
	now := time.Now()
	var changed []NodeInfo

	c.mu.Lock()
	for _, node := range c.nodes {
		if node.Status == NodeLeft || node.Status == NodeFailed {
			continue
		}
		age := now.Sub(node.LastHeartbeat)
		switch {
		case age >= failedAfter:
			node.Status = NodeFailed
			changed = append(changed, *node)
		case age >= suspiciousAfter && node.Status == NodeActive:
			node.Status = NodeSuspicious
			changed = append(changed, *node)
		}
	}
	c.mu.Unlock()

	for _, node := range changed {
		c.logger.Warnf("node %s demoted to %s, last heartbeat %s ago",
			node.NodeID, node.Status.String(), now.Sub(node.LastHeartbeat))
		if c.onStatusChange != nil {
			c.onStatusChange(node)
		}
	}
}
