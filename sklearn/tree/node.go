package tree

// Node is a vertex of a trained tree: either a *LeafNode or a *SplitNode.
// Nodes are never reshaped after creation; a split replaces a leaf with a
// fresh *SplitNode in its parent's slot.
type Node interface {
	// Size is the weighted number of training samples that reached the node.
	Size() int
	// Depth is the distance from the root, which has depth 0.
	Depth() int
	// Output is the majority class of the node's training partition.
	Output() int

	isNode()
}

// LeafNode is a terminal node.
type LeafNode struct {
	output     int
	posteriori []float64
	size       int
	depth      int
}

func (l *LeafNode) Size() int   { return l.size }
func (l *LeafNode) Depth() int  { return l.depth }
func (l *LeafNode) Output() int { return l.output }
func (*LeafNode) isNode()       {}

// Posteriori returns a copy of the class distribution of the leaf.
func (l *LeafNode) Posteriori() []float64 {
	p := make([]float64, len(l.posteriori))
	copy(p, l.posteriori)
	return p
}

// SplitNode is an internal node. A sample goes to the true branch when
// x[Attribute] <= Value for numeric attributes, or x[Attribute] == Value
// for nominal ones.
type SplitNode struct {
	attribute int
	kind      AttributeType
	value     float64
	gain      float64
	output    int
	size      int
	depth     int

	trueChild  Node
	falseChild Node
}

func (s *SplitNode) Size() int   { return s.size }
func (s *SplitNode) Depth() int  { return s.depth }
func (s *SplitNode) Output() int { return s.output }
func (*SplitNode) isNode()       {}

// Attribute is the index of the attribute tested by the node.
func (s *SplitNode) Attribute() int { return s.attribute }

// Kind reports whether the test is a threshold or an equality test.
func (s *SplitNode) Kind() AttributeType { return s.kind }

// Value is the threshold or the category tested by the node.
func (s *SplitNode) Value() float64 { return s.value }

// Gain is the impurity reduction of the split, not weighted by size.
func (s *SplitNode) Gain() float64 { return s.gain }

// TrueBranch returns the child taken when the test holds.
func (s *SplitNode) TrueBranch() Node { return s.trueChild }

// FalseBranch returns the child taken when the test fails.
func (s *SplitNode) FalseBranch() Node { return s.falseChild }

// Test evaluates the node's condition on a feature vector.
func (s *SplitNode) Test(x []float64) bool {
	if s.kind == Nominal {
		return x[s.attribute] == s.value
	}
	return x[s.attribute] <= s.value
}
