package checker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/das-tools/dascheck/common"
)

// Diff compares two decoded JSON values strictly and structurally: differing
// types, differing scalar values, and fields present on only one side are
// all reported. Each mismatch becomes one path-qualified text block; blocks
// are joined with blank lines. An empty string means the values are
// equivalent.
//
// The phrasing of the blocks is frozen: configured filter expressions are
// written against these exact lines.
func Diff(lhs, rhs interface{}) string {
	var blocks []string
	diffValues("", lhs, rhs, &blocks)
	return strings.Join(blocks, "\n\n")
}

// ApplyFilters deletes every match of every filter from the diff text, in
// the order the filters were configured. If nothing is left the two
// responses are treated as equivalent.
func ApplyFilters(diff string, filters []*regexp.Regexp) string {
	for _, re := range filters {
		diff = re.ReplaceAllString(diff, "")
	}
	return diff
}

func diffValues(path string, lhs, rhs interface{}, blocks *[]string) {
	switch l := lhs.(type) {
	case map[string]interface{}:
		r, ok := rhs.(map[string]interface{})
		if !ok {
			*blocks = append(*blocks, notEqualBlock(path, lhs, rhs))
			return
		}
		for _, key := range sortedKeys(l, r) {
			lv, inL := l[key]
			rv, inR := r[key]
			childPath := path + "." + key
			switch {
			case inL && inR:
				diffValues(childPath, lv, rv, blocks)
			case inL:
				*blocks = append(*blocks, missingBlock(childPath, "rhs"))
			default:
				*blocks = append(*blocks, missingBlock(childPath, "lhs"))
			}
		}
	case []interface{}:
		r, ok := rhs.([]interface{})
		if !ok {
			*blocks = append(*blocks, notEqualBlock(path, lhs, rhs))
			return
		}
		shared := len(l)
		if len(r) < shared {
			shared = len(r)
		}
		for i := 0; i < shared; i++ {
			diffValues(fmt.Sprintf("%s[%d]", path, i), l[i], r[i], blocks)
		}
		for i := shared; i < len(l); i++ {
			*blocks = append(*blocks, missingBlock(fmt.Sprintf("%s[%d]", path, i), "rhs"))
		}
		for i := shared; i < len(r); i++ {
			*blocks = append(*blocks, missingBlock(fmt.Sprintf("%s[%d]", path, i), "lhs"))
		}
	default:
		if !scalarEqual(lhs, rhs) {
			*blocks = append(*blocks, notEqualBlock(path, lhs, rhs))
		}
	}
}

func scalarEqual(lhs, rhs interface{}) bool {
	switch rhs.(type) {
	case map[string]interface{}, []interface{}:
		return false
	}
	return lhs == rhs
}

func sortedKeys(maps ...map[string]interface{}) []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, m := range maps {
		for key := range m {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}

func missingBlock(path, side string) string {
	return fmt.Sprintf("json atom at path %q is missing from %s", displayPath(path), side)
}

func notEqualBlock(path string, lhs, rhs interface{}) string {
	return fmt.Sprintf(
		"json atoms at path %q are not equal:\n    lhs:\n%s\n    rhs:\n%s",
		displayPath(path), renderValue(lhs), renderValue(rhs),
	)
}

func renderValue(v interface{}) string {
	data, err := common.SonicCfg.MarshalIndent(v, "", "  ")
	if err != nil {
		data = []byte(fmt.Sprintf("%v", v))
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = "        " + line
	}
	return strings.Join(lines, "\n")
}
