// Package mindmap owns the mind-map tree: an arena of nodes addressed by
// NodeID with parent/children kept as id references.
//
// Every mutating method keeps the tree rooted, connected and acyclic, and
// hands the full record list to the configured Saver before returning.
// Structural violations (deleting the root, creating a cycle, touching an
// unknown id) are rejected with a sentinel error and leave the tree as it
// was.
package mindmap

import (
	"errors"
	"fmt"
	"strings"
)

// NodeID addresses a node inside one Tree. Ids are never reused.
type NodeID int

// NoParent is the parent of the root.
const NoParent NodeID = -1

const (
	DefaultExtent      = 3000.0
	MaxExtent          = 20000.0
	DefaultChildRadius = 220.0

	RootTitle  = "Central idea"
	ChildTitle = "New idea"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrRootDelete   = errors.New("root cannot be deleted")
	ErrRootMove     = errors.New("root cannot be reparented")
	ErrCycle        = errors.New("reparent would create a cycle")
	ErrNonFinite    = errors.New("coordinate is not finite")
)

// Color is the color tag carried by a node. How a tag looks is up to the
// renderer's palette.
type Color int

const (
	ColorDefault Color = iota
	ColorBlue
	ColorGreen
	ColorOrange
	ColorPurple
	ColorRed
	ColorYellow
	ColorTeal

	numColors
)

var colorNames = [numColors]string{
	"default", "blue", "green", "orange", "purple", "red", "yellow", "teal",
}

func (c Color) String() string {
	if c < 0 || c >= numColors {
		return colorNames[ColorDefault]
	}
	return colorNames[c]
}

// Next cycles through the color tags.
func (c Color) Next() Color {
	return (c + 1) % numColors
}

func (c Color) Valid() bool {
	return c >= 0 && c < numColors
}

func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ColorDefault, nil
	}
	for i, name := range colorNames {
		if name == s {
			return Color(i), nil
		}
	}
	return ColorDefault, fmt.Errorf("unknown color %q", s)
}

// Colors lists every tag in cycle order.
func Colors() []Color {
	out := make([]Color, numColors)
	for i := range out {
		out[i] = Color(i)
	}
	return out
}

type Node struct {
	ID        NodeID
	Title     string
	X         float64
	Y         float64
	Completed bool
	Color     Color
	Parent    NodeID
	Children  []NodeID
}

func (n Node) IsRoot() bool { return n.Parent == NoParent }

func (n *Node) clone() Node {
	c := *n
	c.Children = append([]NodeID(nil), n.Children...)
	return c
}

// Record is one persisted node row.
type Record struct {
	ID        NodeID
	Title     string
	Parent    NodeID
	X         float64
	Y         float64
	Color     Color
	Completed bool
}

// Saver receives the whole tree after every mutation.
type Saver interface {
	Save(records []Record) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(records []Record) error

func (f SaverFunc) Save(records []Record) error { return f(records) }
