package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML document and flattens it into dotted keys, e.g.
//
//	wellKnownFields:
//	  userName:
//	    minLength: 3
//
// becomes "wellKnownFields.userName.minLength" = "3".
func LoadFile(path string) (*MemoryProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("settings: file path cannot be empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: failed to read %s: %w", path, err)
	}

	return LoadBytes(data)
}

// LoadBytes parses YAML settings from memory. See LoadFile.
func LoadBytes(data []byte) (*MemoryProvider, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("settings: failed to parse YAML: %w", err)
	}

	flat := make(map[string]string)
	if err := flatten("", doc, flat); err != nil {
		return nil, err
	}
	return NewMemoryProvider(flat), nil
}

func flatten(prefix string, node interface{}, out map[string]string) error {
	switch v := node.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			if err := flatten(next, v[k], out); err != nil {
				return err
			}
		}
		return nil

	case nil:
		return nil

	case string:
		out[prefix] = v
	case bool:
		out[prefix] = strconv.FormatBool(v)
	case int:
		out[prefix] = strconv.Itoa(v)
	case float64:
		out[prefix] = strconv.FormatFloat(v, 'f', -1, 64)

	default:
		// - Lists and other composites are stored as JSON, like the database does
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("settings: cannot encode value of %q: %w", prefix, err)
		}
		out[prefix] = string(encoded)
	}
	return nil
}
