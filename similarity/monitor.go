package similarity

import "github.com/poiesic/evidence/core"

// SearchMonitor provides hooks to observe a fan-out search.
// Per-label hooks are called from concurrent goroutines.
type SearchMonitor interface {
	Start(labels []string)
	AfterEmbedding(label string, embedded bool)
	AfterLookup(label string, results []core.MatchResult)
	LabelFailed(label string, err error)
	Finish(results map[string][]core.MatchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ []string)                           {}
func (n *noopMonitor) AfterEmbedding(_ string, _ bool)            {}
func (n *noopMonitor) AfterLookup(_ string, _ []core.MatchResult) {}
func (n *noopMonitor) LabelFailed(_ string, _ error)              {}
func (n *noopMonitor) Finish(_ map[string][]core.MatchResult)     {}
