package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result counts what a merge changed.
type Result struct {
	Added     int
	Updated   int
	Unchanged int
}

func (r Result) String() string {
	return fmt.Sprintf("%d added, %d updated, %d unchanged", r.Added, r.Updated, r.Unchanged)
}

type projectEntry struct {
	Name          string   `yaml:"name" json:"name"`
	EndDate       string   `yaml:"end_date" json:"end_date"`
	RemainingDays float64  `yaml:"remaining_days" json:"remaining_days"`
	StartDate     string   `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	RenewalDays   *float64 `yaml:"renewal_days,omitempty" json:"renewal_days,omitempty"`
	Priority      *int     `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// Merge folds recs into the project file at path. Existing projects only get
// their remaining_days updated; unknown ones are appended. The file is
// created when missing.
func Merge(path string, recs []Record) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Result{}, err
	}
	var (
		out []byte
		res Result
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		out, res, err = mergeYAML(data, recs)
	case ".json":
		out, res, err = mergeJSON(data, recs)
	default:
		return Result{}, fmt.Errorf("unsupported project file format: %s", ext)
	}
	if err != nil {
		return Result{}, fmt.Errorf("merge %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return Result{}, err
	}
	return res, nil
}

func mapValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func mergeYAML(data []byte, recs []Record) ([]byte, Result, error) {
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, Result{}, err
		}
	}
	if len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, Result{}, errors.New("top level is not a mapping")
	}
	projects := mapValue(root, "projects")
	if projects == nil {
		projects = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "projects"}, projects)
	}
	if projects.Kind != yaml.SequenceNode {
		return nil, Result{}, errors.New("projects is not a list")
	}

	byName := make(map[string]*yaml.Node)
	for _, item := range projects.Content {
		if n := mapValue(item, "name"); n != nil {
			byName[n.Value] = item
		}
	}
	var res Result
	for _, rec := range recs {
		item, ok := byName[rec.Name]
		if !ok {
			n := new(yaml.Node)
			if err := n.Encode(rec.entry()); err != nil {
				return nil, Result{}, err
			}
			projects.Content = append(projects.Content, n)
			byName[rec.Name] = n
			res.Added++
			continue
		}
		rv := mapValue(item, "remaining_days")
		var old float64
		if rv != nil {
			if err := rv.Decode(&old); err != nil {
				return nil, Result{}, fmt.Errorf("project %q: remaining_days: %w", rec.Name, err)
			}
		}
		if old == rec.RemainingDays {
			res.Unchanged++
			continue
		}
		if rv == nil {
			rv = new(yaml.Node)
			item.Content = append(item.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "remaining_days"}, rv)
		}
		if err := rv.Encode(rec.RemainingDays); err != nil {
			return nil, Result{}, err
		}
		res.Updated++
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, Result{}, err
	}
	if err := enc.Close(); err != nil {
		return nil, Result{}, err
	}
	return buf.Bytes(), res, nil
}

func mergeJSON(data []byte, recs []Record) ([]byte, Result, error) {
	doc := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, Result{}, err
		}
	}
	var projects []any
	if raw, ok := doc["projects"]; ok && raw != nil {
		list, ok := raw.([]any)
		if !ok {
			return nil, Result{}, errors.New("projects is not a list")
		}
		projects = list
	}
	byName := make(map[string]map[string]any)
	for _, item := range projects {
		if m, ok := item.(map[string]any); ok {
			if name, ok := m["name"].(string); ok {
				byName[name] = m
			}
		}
	}
	var res Result
	for _, rec := range recs {
		m, ok := byName[rec.Name]
		if !ok {
			b, err := json.Marshal(rec.entry())
			if err != nil {
				return nil, Result{}, err
			}
			m = map[string]any{}
			if err := json.Unmarshal(b, &m); err != nil {
				return nil, Result{}, err
			}
			projects = append(projects, m)
			byName[rec.Name] = m
			res.Added++
			continue
		}
		if old, _ := m["remaining_days"].(float64); old == rec.RemainingDays {
			res.Unchanged++
			continue
		}
		m["remaining_days"] = rec.RemainingDays
		res.Updated++
	}
	doc["projects"] = projects
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, Result{}, err
	}
	return append(out, '\n'), res, nil
}
