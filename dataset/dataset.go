// Package dataset loads and normalizes the book summaries source file.
// Three JSON shapes are accepted: a flat list of objects, an object with a
// "books" list, and a map from title to either a summary string or an object.
// All shapes normalize to the same flat item form.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/siherrmann/librarian/helper"
)

// ErrMissingDatasetFile is returned when the dataset file does not exist.
var ErrMissingDatasetFile = errors.New("dataset file not found")

// ErrDatasetFormat is returned when the dataset is not one of the accepted shapes.
var ErrDatasetFormat = errors.New("dataset must be a list, a 'books' list or a title-keyed map")

// DefaultLanguage is assumed for items that do not declare one.
const DefaultLanguage = "ro"

// Item is one normalized dataset unit. Themes are flattened to a single
// comma-joined string and the year to a string, so downstream metadata has
// one scalar shape regardless of the source.
type Item struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Themes   string `json:"themes"`
	Year     string `json:"year"`
	Language string `json:"language"`
	Summary  string `json:"summary"`
}

// LoadDataset reads and parses the dataset file at path.
func LoadDataset(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, helper.NewError("read dataset", fmt.Errorf("%w: %v", ErrMissingDatasetFile, path))
	}
	if err != nil {
		return nil, helper.NewError("read dataset", err)
	}
	return ParseDataset(data)
}

// ParseDataset parses raw dataset JSON into normalized items.
// An empty list is valid and yields no items; a map that yields no usable
// items is a format error.
func ParseDataset(data []byte) ([]Item, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var root interface{}
	err := decoder.Decode(&root)
	if err != nil {
		return nil, helper.NewError("decode dataset", err)
	}

	switch root := root.(type) {
	case []interface{}:
		return itemsFromList(root)
	case map[string]interface{}:
		if books, ok := root["books"].([]interface{}); ok {
			return itemsFromList(books)
		}
		return itemsFromTitleMap(root)
	default:
		return nil, helper.NewError("parse dataset", ErrDatasetFormat)
	}
}

func itemsFromList(list []interface{}) ([]Item, error) {
	items := make([]Item, 0, len(list))
	for i, element := range list {
		object, ok := element.(map[string]interface{})
		if !ok {
			return nil, helper.NewError("parse dataset", fmt.Errorf("%w: element %v is not an object", ErrDatasetFormat, i))
		}
		items = append(items, normalizeItem(object, ""))
	}
	return items, nil
}

// itemsFromTitleMap handles the title-keyed shape. Keys are sorted so the
// ingestion order is deterministic. Values that are neither a string nor an
// object are skipped.
func itemsFromTitleMap(object map[string]interface{}) ([]Item, error) {
	titles := make([]string, 0, len(object))
	for title := range object {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	var items []Item
	for _, title := range titles {
		switch value := object[title].(type) {
		case string:
			items = append(items, Item{
				Title:    strings.TrimSpace(title),
				Language: DefaultLanguage,
				Summary:  strings.TrimSpace(value),
			})
		case map[string]interface{}:
			items = append(items, normalizeItem(value, title))
		}
	}

	if len(items) == 0 {
		return nil, helper.NewError("parse dataset", ErrDatasetFormat)
	}
	return items, nil
}

func normalizeItem(object map[string]interface{}, fallbackTitle string) Item {
	item := Item{
		Title:    strings.TrimSpace(stringField(object, "title")),
		Author:   strings.TrimSpace(stringField(object, "author")),
		Themes:   themesField(object),
		Year:     scalarField(object, "year", "published"),
		Language: strings.TrimSpace(stringField(object, "language")),
		Summary:  strings.TrimSpace(firstStringField(object, "summary_full", "summary", "text", "short_summary")),
	}
	if item.Title == "" {
		item.Title = strings.TrimSpace(fallbackTitle)
	}
	if item.Language == "" {
		item.Language = DefaultLanguage
	}
	return item
}

func stringField(object map[string]interface{}, key string) string {
	value, _ := object[key].(string)
	return value
}

// firstStringField returns the first non-empty string among the given keys.
func firstStringField(object map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := object[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// scalarField returns the first non-empty string or number among the given
// keys, numbers rendered in their source form.
func scalarField(object map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch value := object[key].(type) {
		case string:
			if value != "" {
				return value
			}
		case json.Number:
			return value.String()
		}
	}
	return ""
}

// themesField flattens themes (or tags) into a comma-joined string.
// The source may be a single string or a list of scalars.
func themesField(object map[string]interface{}) string {
	raw := object["themes"]
	if emptyValue(raw) {
		raw = object["tags"]
	}

	var tokens []string
	switch raw := raw.(type) {
	case string:
		tokens = []string{raw}
	case []interface{}:
		for _, element := range raw {
			switch element := element.(type) {
			case string:
				tokens = append(tokens, element)
			case json.Number:
				tokens = append(tokens, element.String())
			}
		}
	}

	var cleaned []string
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token != "" {
			cleaned = append(cleaned, token)
		}
	}
	return strings.Join(cleaned, ", ")
}

func emptyValue(value interface{}) bool {
	switch value := value.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case []interface{}:
		return len(value) == 0
	}
	return false
}
