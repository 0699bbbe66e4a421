package storage

import (
	"math/rand"

	enc "github.com/named-data/repo-go/encoding"
)

const skiplistMaxLevels = 32

// skiplist is a probabilistic ordered list (p = 0.25) over index
// entries, keyed by full name in canonical order.
type skiplist struct {
	head  *skiplistNode // sentinel, holds no entry
	level int
	size  int
	rng   *rand.Rand
}

type skiplistNode struct {
	entry IndexEntry
	next  []*skiplistNode
}

func newSkiplist(seed int64) *skiplist {
	return &skiplist{
		head:  &skiplistNode{next: make([]*skiplistNode, skiplistMaxLevels)},
		level: 1,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (s *skiplist) randomLevel() int {
	level := 1
	for level < skiplistMaxLevels && s.rng.Intn(4) == 0 {
		level++
	}
	return level
}

func (s *skiplist) Len() int {
	return s.size
}

// Front returns the smallest node, or nil when empty.
func (s *skiplist) Front() *skiplistNode {
	return s.head.next[0]
}

// Back returns the greatest node, or nil when empty.
func (s *skiplist) Back() *skiplistNode {
	n := s.head
	for i := s.level - 1; i >= 0; i-- {
		for n.next[i] != nil {
			n = n.next[i]
		}
	}
	if n == s.head {
		return nil
	}
	return n
}

// Next returns the node after n at the bottom level.
func (n *skiplistNode) Next() *skiplistNode {
	return n.next[0]
}

// findPredecessors fills prev with, per level, the last node whose
// full name is strictly less than name.
func (s *skiplist) findPredecessors(name enc.Name, prev *[skiplistMaxLevels]*skiplistNode) {
	n := s.head
	for i := s.level - 1; i >= 0; i-- {
		for n.next[i] != nil && n.next[i].entry.FullName.Compare(name) < 0 {
			n = n.next[i]
		}
		prev[i] = n
	}
}

// LowerBound returns the smallest node with full name >= name.
func (s *skiplist) LowerBound(name enc.Name) *skiplistNode {
	var prev [skiplistMaxLevels]*skiplistNode
	s.findPredecessors(name, &prev)
	return prev[0].next[0]
}

// Pred returns the greatest node with full name strictly < name.
func (s *skiplist) Pred(name enc.Name) *skiplistNode {
	var prev [skiplistMaxLevels]*skiplistNode
	s.findPredecessors(name, &prev)
	if prev[0] == s.head {
		return nil
	}
	return prev[0]
}

// Find returns the node with exactly the given full name.
func (s *skiplist) Find(name enc.Name) *skiplistNode {
	n := s.LowerBound(name)
	if n != nil && n.entry.FullName.Compare(name) == 0 {
		return n
	}
	return nil
}

// Insert adds an entry; reports false when the name is already there.
func (s *skiplist) Insert(entry IndexEntry) bool {
	var prev [skiplistMaxLevels]*skiplistNode
	s.findPredecessors(entry.FullName, &prev)
	if n := prev[0].next[0]; n != nil && n.entry.FullName.Compare(entry.FullName) == 0 {
		return false
	}

	level := s.randomLevel()
	if level > s.level {
		for i := s.level; i < level; i++ {
			prev[i] = s.head
		}
		s.level = level
	}

	node := &skiplistNode{entry: entry, next: make([]*skiplistNode, level)}
	for i := 0; i < level; i++ {
		node.next[i] = prev[i].next[i]
		prev[i].next[i] = node
	}
	s.size++
	return true
}

// Erase removes the entry with the given full name.
func (s *skiplist) Erase(name enc.Name) bool {
	var prev [skiplistMaxLevels]*skiplistNode
	s.findPredecessors(name, &prev)
	node := prev[0].next[0]
	if node == nil || node.entry.FullName.Compare(name) != 0 {
		return false
	}

	for i := 0; i < len(node.next); i++ {
		if prev[i].next[i] == node {
			prev[i].next[i] = node.next[i]
		}
	}
	for s.level > 1 && s.head.next[s.level-1] == nil {
		s.level--
	}
	s.size--
	return true
}
