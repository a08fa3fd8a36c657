package store

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"treemind/internal/mindmap"
)

const yamlVersion = 1

type yamlDoc struct {
	Version int        `yaml:"version"`
	Nodes   []yamlNode `yaml:"nodes"`
}

type yamlNode struct {
	ID        int     `yaml:"id"`
	Parent    int     `yaml:"parent"`
	Title     string  `yaml:"title"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Color     string  `yaml:"color,omitempty"`
	Completed bool    `yaml:"completed,omitempty"`
}

func encodeYAML(w io.Writer, records []mindmap.Record) error {
	doc := yamlDoc{Version: yamlVersion, Nodes: make([]yamlNode, 0, len(records))}
	for _, r := range records {
		n := yamlNode{
			ID:        int(r.ID),
			Parent:    int(r.Parent),
			Title:     r.Title,
			X:         r.X,
			Y:         r.Y,
			Completed: r.Completed,
		}
		if r.Color != mindmap.ColorDefault {
			n.Color = r.Color.String()
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func decodeYAML(r io.Reader) ([]mindmap.Record, error) {
	var doc yamlDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Version > yamlVersion {
		return nil, fmt.Errorf("unsupported version %d", doc.Version)
	}
	records := make([]mindmap.Record, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		color, _ := mindmap.ParseColor(n.Color)
		records = append(records, mindmap.Record{
			ID:        mindmap.NodeID(n.ID),
			Parent:    mindmap.NodeID(n.Parent),
			Title:     n.Title,
			X:         n.X,
			Y:         n.Y,
			Color:     color,
			Completed: n.Completed,
		})
	}
	return records, nil
}
