package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"treemind/internal/mindmap"
)

const (
	linesHeader = "MINDMAP"
	nodesPrefix = "NODES:"
)

// encodeLines writes the plain-text format:
//
//	MINDMAP
//	NODES:<n>
//	<id>,<parent>,<x>,<y>,<color>,<completed>,<title>
//
// The title is last so it may contain commas; backslashes and newlines in it
// are escaped.
func encodeLines(w io.Writer, records []mindmap.Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", linesHeader)
	fmt.Fprintf(bw, "%s%d\n", nodesPrefix, len(records))
	for _, r := range records {
		done := 0
		if r.Completed {
			done = 1
		}
		fmt.Fprintf(bw, "%d,%d,%s,%s,%s,%d,%s\n",
			r.ID, r.Parent,
			strconv.FormatFloat(r.X, 'f', -1, 64),
			strconv.FormatFloat(r.Y, 'f', -1, 64),
			r.Color, done, escapeTitle(r.Title))
	}
	return bw.Flush()
}

func decodeLines(r io.Reader) ([]mindmap.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != linesHeader {
		return nil, fmt.Errorf("invalid file format")
	}
	if !scanner.Scan() {
		return nil, fmt.Errorf("missing nodes header")
	}
	count, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(scanner.Text()), nodesPrefix))
	if err != nil {
		return nil, fmt.Errorf("invalid node count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("invalid node count: %d", count)
	}

	records := make([]mindmap.Record, 0, min(count, 4096))
	for i := 0; i < count; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("missing node data: want %d rows, got %d", count, i)
		}
		rec, err := parseRow(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func parseRow(line string) (mindmap.Record, error) {
	parts := strings.SplitN(strings.TrimSuffix(line, "\r"), ",", 7)
	if len(parts) < 7 {
		return mindmap.Record{}, fmt.Errorf("invalid node format")
	}
	var rec mindmap.Record
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return rec, fmt.Errorf("invalid id: %w", err)
	}
	parent, err := strconv.Atoi(parts[1])
	if err != nil {
		return rec, fmt.Errorf("invalid parent: %w", err)
	}
	x, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return rec, fmt.Errorf("invalid x: %w", err)
	}
	y, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return rec, fmt.Errorf("invalid y: %w", err)
	}
	// unknown tags fall back to default
	color, _ := mindmap.ParseColor(parts[4])

	rec = mindmap.Record{
		ID:        mindmap.NodeID(id),
		Parent:    mindmap.NodeID(parent),
		X:         x,
		Y:         y,
		Color:     color,
		Completed: parts[5] == "1",
		Title:     unescapeTitle(parts[6]),
	}
	return rec, nil
}

func escapeTitle(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

func unescapeTitle(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
