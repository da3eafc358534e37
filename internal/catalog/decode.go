package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rbright/recite/internal/jsonc"
)

// Warning is a non-fatal catalog shape problem.
type Warning struct {
	Message string
}

// Decode reads a catalog document. A top level that is not an object, absent
// lists, lists of the wrong shape, and malformed elements degrade to empty
// lists or skipped elements with warnings. Only an undecodable document is an
// error.
func Decode(data []byte, format Format) (Catalog, []Warning, error) {
	var (
		doc json.RawMessage
		err error
	)

	switch format {
	case FormatYAML:
		var converted []byte
		converted, err = yamlToJSON(data)
		if err == nil {
			err = json.Unmarshal(converted, &doc)
		}
	default:
		if strings.TrimSpace(string(data)) == "" {
			doc = json.RawMessage("{}")
			break
		}
		err = jsonc.Decode(string(data), &doc, false)
	}
	if err != nil {
		return Catalog{}, nil, fmt.Errorf("decode catalog: %w", err)
	}

	warnings := make([]Warning, 0)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		warnings = append(warnings, Warning{Message: "catalog is not an object; using empty lists"})
	}

	cat := Catalog{
		Sentences:  decodeList(raw, Sentence, &warnings),
		Paragraphs: decodeList(raw, Paragraph, &warnings),
	}
	return cat, warnings, nil
}

func decodeList(raw map[string]json.RawMessage, t ContentType, warnings *[]Warning) []PracticeItem {
	key := t.Plural()
	body, ok := raw[key]
	if !ok || string(body) == "null" {
		*warnings = append(*warnings, Warning{Message: fmt.Sprintf("%s missing; using empty list", key)})
		return []PracticeItem{}
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		*warnings = append(*warnings, Warning{Message: fmt.Sprintf("%s is not a list; using empty list", key)})
		return []PracticeItem{}
	}

	items := make([]PracticeItem, 0, len(elements))
	seen := make(map[ItemID]struct{}, len(elements))
	for i, element := range elements {
		var item PracticeItem
		if err := json.Unmarshal(element, &item); err != nil {
			*warnings = append(*warnings, Warning{Message: fmt.Sprintf("%s[%d] skipped: %v", key, i, err)})
			continue
		}
		item.Text = strings.TrimSpace(item.Text)
		if item.ID == "" || item.Text == "" {
			*warnings = append(*warnings, Warning{Message: fmt.Sprintf("%s[%d] skipped: id and text are required", key, i)})
			continue
		}
		if _, dup := seen[item.ID]; dup {
			*warnings = append(*warnings, Warning{Message: fmt.Sprintf("%s[%d] skipped: duplicate id %q", key, i, item.ID)})
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	return items
}

// Load reads a catalog file. A missing file yields an empty catalog and a warning.
func Load(path string) (Catalog, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Catalog{Sentences: []PracticeItem{}, Paragraphs: []PracticeItem{}},
				[]Warning{{Message: fmt.Sprintf("catalog file %q not found; using empty catalog", path)}}, nil
		}
		return Catalog{}, nil, fmt.Errorf("read catalog %q: %w", path, err)
	}

	cat, warnings, err := Decode(data, FormatForPath(path))
	if err != nil {
		return Catalog{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, warnings, nil
}

// Resolve returns the catalog at path, or Default when path is empty.
func Resolve(path string) (Catalog, []Warning, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil, nil
	}
	return Load(path)
}
