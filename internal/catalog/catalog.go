// Package catalog holds the practice items a user can read aloud.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ContentType selects which catalog list is active.
type ContentType string

const (
	Sentence  ContentType = "sentence"
	Paragraph ContentType = "paragraph"
)

// Types lists content types in display order.
var Types = []ContentType{Sentence, Paragraph}

// ParseContentType trims and lower-cases raw and rejects unknown values.
func ParseContentType(raw string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(raw))) {
	case Sentence:
		return Sentence, nil
	case Paragraph:
		return Paragraph, nil
	default:
		return "", fmt.Errorf("unknown content type %q", raw)
	}
}

// Label is the capitalized singular used in headings.
func (t ContentType) Label() string {
	switch t {
	case Paragraph:
		return "Paragraph"
	default:
		return "Sentence"
	}
}

// Plural is the lower-case plural used in placeholders.
func (t ContentType) Plural() string {
	return string(t) + "s"
}

// ItemID is an opaque practice item identifier.
//
// Catalog files may spell ids as numbers or strings; both decode to the same
// textual form.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("item id must not be null")
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = ItemID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("item id must be a string or number")
	}
	if i, err := n.Int64(); err == nil {
		*id = ItemID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ItemID(n.String())
	return nil
}

func (id ItemID) String() string { return string(id) }

// PracticeItem is one sentence or paragraph. Items are immutable once loaded.
type PracticeItem struct {
	ID   ItemID `json:"id"`
	Text string `json:"text"`
}

// Catalog is the ordered set of practice items per content type.
type Catalog struct {
	Sentences  []PracticeItem `json:"sentences"`
	Paragraphs []PracticeItem `json:"paragraphs"`
}

// Items returns the ordered list for t.
func (c Catalog) Items(t ContentType) []PracticeItem {
	switch t {
	case Sentence:
		return c.Sentences
	case Paragraph:
		return c.Paragraphs
	default:
		return nil
	}
}

// Find returns the item with id in the list for t.
func (c Catalog) Find(t ContentType, id ItemID) (PracticeItem, bool) {
	want := strings.TrimSpace(string(id))
	for _, item := range c.Items(t) {
		if string(item.ID) == want {
			return item, true
		}
	}
	return PracticeItem{}, false
}

// Empty reports whether neither list has items.
func (c Catalog) Empty() bool {
	return len(c.Sentences) == 0 && len(c.Paragraphs) == 0
}

// Format names a catalog encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// FormatForPath picks an encoding from a file extension; unknown extensions
// are treated as JSONC.
func FormatForPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	default:
		return FormatJSONC
	}
}

// yamlToJSON re-encodes a YAML document as JSON so one decoder handles both.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}
