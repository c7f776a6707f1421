package conllu

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

const empty = "_"

var (
	wordIDPattern  = regexp.MustCompile(`^[1-9][0-9]*$`)
	rangeIDPattern = regexp.MustCompile(`^([1-9][0-9]*)-([1-9][0-9]*)$`)
	emptyIDPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)\.([1-9][0-9]*)$`)
	headPattern    = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)
)

// ParseID classifies an id column as word, range or empty node.
func ParseID(raw string) (entities.ID, bool) {
	if wordIDPattern.MatchString(raw) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return entities.ID{}, false
		}
		return entities.WordID(n), true
	}
	if m := rangeIDPattern.FindStringSubmatch(raw); m != nil {
		start, err1 := strconv.Atoi(m[1])
		end, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return entities.ID{}, false
		}
		return entities.RangeID(start, end), true
	}
	if m := emptyIDPattern.FindStringSubmatch(raw); m != nil {
		major, err1 := strconv.Atoi(m[1])
		minor, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return entities.ID{}, false
		}
		return entities.EmptyID(major, minor), true
	}
	return entities.ID{}, false
}

func parseHead(raw string) (entities.Head, bool) {
	if raw == empty {
		return entities.Head{}, true
	}
	if !headPattern.MatchString(raw) {
		return entities.Head{}, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return entities.Head{}, false
	}
	return entities.HeadOf(n), true
}

// parseFeats reads Name=Value pairs that must be sorted case-insensitively with unique names.
func parseFeats(raw string) (map[string]string, error) {
	if raw == empty {
		return nil, nil
	}
	feats := make(map[string]string)
	prev := ""
	for _, item := range strings.Split(raw, "|") {
		name, value, ok := strings.Cut(item, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("pair %q is not Name=Value", item)
		}
		if prev != "" {
			switch cmp := strings.Compare(strings.ToLower(prev), strings.ToLower(name)); {
			case cmp == 0:
				return nil, fmt.Errorf("duplicate feature %q", name)
			case cmp > 0:
				return nil, fmt.Errorf("feature %q is out of order after %q", name, prev)
			}
		}
		feats[name] = value
		prev = name
	}
	return feats, nil
}

func formatFeats(feats map[string]string) string {
	if len(feats) == 0 {
		return empty
	}
	names := make([]string, 0, len(feats))
	for name := range feats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + feats[name]
	}
	return strings.Join(parts, "|")
}

// parseMisc reads the opaque MISC column. Keys must be unique; order is not significant.
func parseMisc(raw string) (map[string]string, error) {
	if raw == empty {
		return nil, nil
	}
	misc := make(map[string]string)
	for _, item := range strings.Split(raw, "|") {
		key, value, ok := strings.Cut(item, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("item %q is not key=value", item)
		}
		if _, dup := misc[key]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		misc[key] = value
	}
	return misc, nil
}

func formatMisc(misc map[string]string) string {
	if len(misc) == 0 {
		return empty
	}
	keys := make([]string, 0, len(misc))
	for k := range misc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + misc[k]
	}
	return strings.Join(parts, "|")
}

// parseDeps reads head:relation pairs sorted by head, then by relation.
func parseDeps(raw string) ([]entities.DepEdge, error) {
	if raw == empty {
		return nil, nil
	}
	var deps []entities.DepEdge
	for _, item := range strings.Split(raw, "|") {
		head, rel, ok := strings.Cut(item, ":")
		if !ok || rel == "" {
			return nil, fmt.Errorf("pair %q is not head:relation", item)
		}
		id, err := parseDepHead(head)
		if err != nil {
			return nil, err
		}
		edge := entities.DepEdge{Head: id, Rel: rel}
		if n := len(deps); n > 0 && !depLess(deps[n-1], edge) {
			return nil, fmt.Errorf("pair %q is out of order after %s:%s", item, deps[n-1].Head, deps[n-1].Rel)
		}
		deps = append(deps, edge)
	}
	return deps, nil
}

func parseDepHead(raw string) (entities.ID, error) {
	if raw == "0" {
		return entities.WordID(0), nil
	}
	id, ok := ParseID(raw)
	if !ok || id.Kind == entities.KindRange {
		return entities.ID{}, errors.New("head " + strconv.Quote(raw) + " is not a word or empty node id")
	}
	return id, nil
}

func depLess(a, b entities.DepEdge) bool {
	if a.Head.Start != b.Head.Start {
		return a.Head.Start < b.Head.Start
	}
	if a.Head.Minor != b.Head.Minor {
		return a.Head.Minor < b.Head.Minor
	}
	return a.Rel < b.Rel
}

func formatDeps(deps []entities.DepEdge) string {
	if len(deps) == 0 {
		return empty
	}
	sorted := make([]entities.DepEdge, len(deps))
	copy(sorted, deps)
	sort.SliceStable(sorted, func(i, j int) bool { return depLess(sorted[i], sorted[j]) })
	parts := make([]string, len(sorted))
	for i, d := range sorted {
		parts[i] = d.Head.String() + ":" + d.Rel
	}
	return strings.Join(parts, "|")
}

func orEmpty(s string) string {
	if s == "" {
		return empty
	}
	return s
}

func fromEmpty(s string) string {
	if s == empty {
		return ""
	}
	return s
}
