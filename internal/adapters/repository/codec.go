package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/okian/riskpoll/internal/domain/model"
)

// decodeGroups parses the file store document, a JSON object mapping risk
// keys to record arrays, keeping the document's key order. Values that are
// not arrays are kept as empty groups.
func decodeGroups(data []byte) (model.Groups, error) {
	b := model.NewGroupsBuilder()
	if len(bytes.TrimSpace(data)) == 0 {
		return b.Groups(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("document must be a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read group %q: %w", key, err)
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
			b.Add(key)
			continue
		}

		var recs []model.Record
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, fmt.Errorf("decode group %q: %w", key, err)
		}
		b.Add(key, recs...)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read document end: %w", err)
	}
	if tok, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after document: %v", tok)
	}
	return b.Groups(), nil
}

// encodeGroups writes groups as a two-space indented JSON object in group order.
func encodeGroups(groups model.Groups) ([]byte, error) {
	if len(groups) == 0 {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, g := range groups {
		key, err := marshalIndented(g.RiskPercentage, "")
		if err != nil {
			return nil, err
		}
		recs := g.Records
		if recs == nil {
			recs = []model.Record{}
		}
		val, err := marshalIndented(recs, "  ")
		if err != nil {
			return nil, fmt.Errorf("encode group %q: %w", g.RiskPercentage, err)
		}

		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(val)
		if i < len(groups)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalIndented(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
