// Package outline normalizes heterogeneous outline documents into a canonical form.
//
// Two input shapes are accepted:
//
//   - a flat list of labeled items {text, page, label_type}, label_type one of TITLE, H1..H4;
//   - an object {title, outline: [{text, page, level?}]}.
//
// Anything else is rejected with models.ErrMalformedOutline.
package outline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hyperjump/yomu/internal/models"
	"gopkg.in/yaml.v3"
)

// Load reads and normalizes the outline file at path.
func Load(path string) (*models.CanonicalOutline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read outline %s: %v", models.ErrMissingInput, path, err)
	}
	out, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// Parse decodes data as JSON, or YAML when ext is .yaml or .yml, and normalizes it.
func Parse(data []byte, ext string) (*models.CanonicalOutline, error) {
	var raw interface{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedOutline, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedOutline, err)
		}
	}
	return Normalize(raw)
}

// Normalize converts a generically decoded outline into a CanonicalOutline.
func Normalize(raw interface{}) (*models.CanonicalOutline, error) {
	var (
		out *models.CanonicalOutline
		err error
	)
	switch v := raw.(type) {
	case []interface{}:
		out, err = fromLabeledList(v)
	case map[string]interface{}:
		out, err = fromCanonical(v)
	default:
		return nil, fmt.Errorf("%w: expected a list of labeled items or an object with an outline", models.ErrMalformedOutline)
	}
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(out.Headings, func(a, b models.HeadingRecord) int {
		return a.Page - b.Page
	})
	return out, nil
}

func fromLabeledList(items []interface{}) (*models.CanonicalOutline, error) {
	out := &models.CanonicalOutline{Headings: []models.HeadingRecord{}}
	titleSeen := false
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: item %d is not an object", models.ErrMalformedOutline, i)
		}
		label, ok := obj["label_type"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: item %d has no label_type", models.ErrMalformedOutline, i)
		}
		level, known := models.ParseHeadingLevel(label)
		if !known {
			continue
		}
		if level == models.LevelTitle {
			text, ok := obj["text"].(string)
			if !ok {
				return nil, fmt.Errorf("%w: item %d has no text", models.ErrMalformedOutline, i)
			}
			if !titleSeen {
				out.Title = strings.TrimSpace(text)
				titleSeen = true
			}
			continue
		}
		text, page, err := textAndPage(obj, i)
		if err != nil {
			return nil, err
		}
		if text != "" {
			out.Headings = append(out.Headings, models.HeadingRecord{Level: level, Text: text, Page: page})
		}
	}
	return out, nil
}

func fromCanonical(obj map[string]interface{}) (*models.CanonicalOutline, error) {
	list, ok := obj["outline"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: object has no outline list", models.ErrMalformedOutline)
	}
	out := &models.CanonicalOutline{Headings: make([]models.HeadingRecord, 0, len(list))}
	switch t := obj["title"].(type) {
	case nil:
	case string:
		out.Title = strings.TrimSpace(t)
	default:
		return nil, fmt.Errorf("%w: title is not a string", models.ErrMalformedOutline)
	}
	for i, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: outline entry %d is not an object", models.ErrMalformedOutline, i)
		}
		text, page, err := textAndPage(entry, i)
		if err != nil {
			return nil, err
		}
		level := models.LevelH1
		if rawLevel, present := entry["level"]; present && rawLevel != nil {
			s, _ := rawLevel.(string)
			parsed, known := models.ParseHeadingLevel(s)
			if !known || !parsed.IsHeading() {
				return nil, fmt.Errorf("%w: outline entry %d has invalid level %v", models.ErrMalformedOutline, i, rawLevel)
			}
			level = parsed
		}
		if text == "" {
			continue
		}
		out.Headings = append(out.Headings, models.HeadingRecord{Level: level, Text: text, Page: page})
	}
	return out, nil
}

func textAndPage(obj map[string]interface{}, i int) (string, int, error) {
	text, ok := obj["text"].(string)
	if !ok {
		return "", 0, fmt.Errorf("%w: item %d has no text", models.ErrMalformedOutline, i)
	}
	page, ok := asPage(obj["page"])
	if !ok {
		return "", 0, fmt.Errorf("%w: item %d has invalid page %v", models.ErrMalformedOutline, i, obj["page"])
	}
	return strings.TrimSpace(text), page, nil
}

// asPage accepts the numeric types produced by encoding/json and yaml.v3.
func asPage(v interface{}) (int, bool) {
	var n int
	switch p := v.(type) {
	case float64:
		if p != math.Trunc(p) || p > math.MaxInt32 {
			return 0, false
		}
		n = int(p)
	case int:
		n = p
	case int64:
		n = int(p)
	case uint64:
		if p > math.MaxInt32 {
			return 0, false
		}
		n = int(p)
	default:
		return 0, false
	}
	return n, n >= 1
}
