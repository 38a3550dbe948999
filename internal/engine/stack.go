package engine

import (
	"github.com/roach88/wodwiki/internal/ir"
)

// Stack indexes a compiled forest by node id and resolves ancestor paths.
//
// The Stack holds pointers into the caller's node slice; the forest is
// shared read-only and must not be modified after NewStack returns. Each
// node is also given a dense slot number used by Trace.
type Stack struct {
	nodes []*ir.StatementNode
	slots map[int]int
}

// NewStack validates and indexes a forest. It rejects duplicate ids,
// references to ids that do not exist, and parent chains that loop.
func NewStack(nodes []ir.StatementNode) (*Stack, error) {
	s := &Stack{
		nodes: make([]*ir.StatementNode, len(nodes)),
		slots: make(map[int]int, len(nodes)),
	}
	for i := range nodes {
		n := &nodes[i]
		if _, dup := s.slots[n.ID]; dup {
			return nil, NewInvalidForestError(n.ID, "duplicate node id")
		}
		s.slots[n.ID] = i
		s.nodes[i] = n
	}

	for _, n := range s.nodes {
		for _, child := range n.Children {
			if _, ok := s.slots[child]; !ok {
				return nil, NewInvalidForestError(n.ID, "child %d does not exist", child)
			}
		}
		if n.Parent != nil {
			if _, ok := s.slots[*n.Parent]; !ok {
				return nil, NewInvalidForestError(n.ID, "parent %d does not exist", *n.Parent)
			}
		}
		if n.Next != nil {
			if _, ok := s.slots[*n.Next]; !ok {
				return nil, NewInvalidForestError(n.ID, "next %d does not exist", *n.Next)
			}
		}
	}

	for _, n := range s.nodes {
		if _, err := s.Goto(n.ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// GetID returns the node with the given id.
func (s *Stack) GetID(id int) (*ir.StatementNode, bool) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, false
	}
	return s.nodes[slot], true
}

// Goto returns the root-to-node ancestor chain for id, following parent links.
func (s *Stack) Goto(id int) ([]*ir.StatementNode, error) {
	node, ok := s.GetID(id)
	if !ok {
		return nil, NewNotFoundError(id)
	}

	path := []*ir.StatementNode{node}
	for node.Parent != nil {
		if len(path) > len(s.nodes) {
			return nil, NewInvalidForestError(id, "parent chain loops")
		}
		parent, ok := s.GetID(*node.Parent)
		if !ok {
			return nil, NewNotFoundError(*node.Parent)
		}
		path = append(path, parent)
		node = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Nodes returns the forest in source order.
func (s *Stack) Nodes() []*ir.StatementNode {
	return s.nodes
}

// First returns the first statement of the script.
func (s *Stack) First() (*ir.StatementNode, bool) {
	if len(s.nodes) == 0 {
		return nil, false
	}
	return s.nodes[0], true
}

// Len returns the number of nodes.
func (s *Stack) Len() int {
	return len(s.nodes)
}

func (s *Stack) slot(id int) (int, bool) {
	slot, ok := s.slots[id]
	return slot, ok
}
