package ai

// NodeStatus is the result of ticking a behavior tree node.
type NodeStatus int

const (
	NodeSuccess NodeStatus = iota
	NodeFailure
	NodeRunning
)

// Node is a single node in a behavior tree. Nodes read and drive the
// agent directly; there is no separate blackboard.
type Node interface {
	Tick(a *Agent) NodeStatus
}

// Selector returns the first child result that is not a failure.
type Selector struct {
	Children []Node
}

func (s *Selector) Tick(a *Agent) NodeStatus {
	for _, c := range s.Children {
		if st := c.Tick(a); st != NodeFailure {
			return st
		}
	}
	return NodeFailure
}

// Sequence returns the first child result that is not a success.
type Sequence struct {
	Children []Node
}

func (s *Sequence) Tick(a *Agent) NodeStatus {
	for _, c := range s.Children {
		if st := c.Tick(a); st != NodeSuccess {
			return st
		}
	}
	return NodeSuccess
}

// Condition succeeds when Fn holds.
type Condition func(*Agent) bool

func (fn Condition) Tick(a *Agent) NodeStatus {
	if fn(a) {
		return NodeSuccess
	}
	return NodeFailure
}

// Action runs Fn and reports its status.
type Action func(*Agent) NodeStatus

func (fn Action) Tick(a *Agent) NodeStatus { return fn(a) }

// BehaviorTree wraps the root node.
type BehaviorTree struct {
	Root Node
}

// Tick runs one frame of the tree.
func (bt *BehaviorTree) Tick(a *Agent) NodeStatus {
	if bt == nil || bt.Root == nil {
		return NodeFailure
	}
	return bt.Root.Tick(a)
}
