package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// RC is a koanf parser for the rc file format:
//
//	key = value
//	[notify]
//	export = true
//	[palette.NAME]
//	Followers: #1A8CD8
//
// Keys are lower-cased. [palette.NAME] sections load under "palettes.NAME".
type RC struct{}

// RCParser returns the rc format parser.
func RCParser() *RC { return &RC{} }

// Unmarshal parses rc bytes into a nested map.
func (p *RC) Unmarshal(b []byte) (map[string]interface{}, error) {
	return parseRC(bytes.NewReader(b))
}

func parseRC(r io.Reader) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	scanner := bufio.NewScanner(r)

	var section map[string]interface{}
	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			section = nil
			switch {
			case currentSection == "notify":
				section = sub(out, "notify")
			case strings.HasPrefix(currentSection, "palette."):
				name := strings.TrimPrefix(currentSection, "palette.")
				if name == "" {
					return nil, fmt.Errorf("empty palette name in section [%s]", currentSection)
				}
				section = sub(sub(out, "palettes"), name)
			}
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
			value = value[1 : len(value)-1]
		}

		switch {
		case currentSection == "":
			out[key] = value
		case currentSection == "notify":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("error in section [notify]: invalid boolean for key %s: %w", key, err)
			}
			section[key] = b
		case section != nil:
			section[key] = value
		}
	}

	return out, scanner.Err()
}

func sub(m map[string]interface{}, key string) map[string]interface{} {
	if existing, ok := m[key].(map[string]interface{}); ok {
		return existing
	}
	s := make(map[string]interface{})
	m[key] = s
	return s
}

// Marshal renders a nested map in rc format. Root keys come first, then one
// section per nested map.
func (p *RC) Marshal(m map[string]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	var sections []string
	for _, k := range sortedKeys(m) {
		if _, ok := m[k].(map[string]interface{}); ok {
			sections = append(sections, k)
			continue
		}
		fmt.Fprintf(&buf, "%s = %v\n", k, m[k])
	}
	buf.WriteString("\n")

	for _, k := range sections {
		nested := m[k].(map[string]interface{})
		if k == "palettes" {
			for _, name := range sortedKeys(nested) {
				entries, ok := nested[name].(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("palette %q is not a section", name)
				}
				fmt.Fprintf(&buf, "[palette.%s]\n", name)
				for _, e := range sortedKeys(entries) {
					fmt.Fprintf(&buf, "%s: %v\n", e, entries[e])
				}
				buf.WriteString("\n")
			}
			continue
		}
		fmt.Fprintf(&buf, "[%s]\n", k)
		for _, e := range sortedKeys(nested) {
			if _, ok := nested[e].(map[string]interface{}); ok {
				return nil, fmt.Errorf("section [%s] nests too deep at %q", k, e)
			}
			fmt.Fprintf(&buf, "%s = %v\n", e, nested[e])
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parse reads rc configuration from an io.Reader on top of the defaults. It
// does not consult the environment.
func Parse(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	k := newKoanf()
	if err := k.Load(rawBytes(raw), RCParser()); err != nil {
		return nil, err
	}
	return unmarshal(k)
}
