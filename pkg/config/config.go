package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File provides access to a parsed configuration file.
type File struct {
	sections map[string]*Section
	order    []string // maintains section order
}

// Load reads a configuration file and returns a File.
func Load(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: invalid path %s: %w", path, err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads configuration data from a reader.
//
// The format is Klipper's INI dialect: "[section]" headers, "key: value" or
// "key = value" options, "#" comments, and "#*#" SAVE_CONFIG lines which are
// parsed as regular config.
func Parse(r io.Reader) (*File, error) {
	c := &File{sections: make(map[string]*Section)}

	var current string
	var options map[string]string
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#*#") {
			line = strings.TrimSpace(line[3:])
			if line == "" {
				continue
			}
		} else if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
			if line == "" {
				continue
			}
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if current != "" {
				c.addSection(current, options)
			}
			current = strings.TrimSpace(line[1 : len(line)-1])
			if current == "" {
				return nil, fmt.Errorf("config: empty section header at line %d", lineNum)
			}
			options = make(map[string]string)
			continue
		}
		if current == "" {
			return nil, fmt.Errorf("config: option outside of section at line %d", lineNum)
		}

		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			kv = strings.SplitN(line, "=", 2)
		}
		if len(kv) != 2 {
			return nil, fmt.Errorf("config: malformed line %d: %q", lineNum, line)
		}
		key := strings.TrimSpace(kv[0])
		if key == "" {
			return nil, fmt.Errorf("config: empty option name at line %d", lineNum)
		}
		options[key] = strings.TrimSpace(kv[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read error: %w", err)
	}
	if current != "" {
		c.addSection(current, options)
	}
	return c, nil
}

func (c *File) addSection(name string, options map[string]string) {
	name = strings.ToLower(name)
	if existing, ok := c.sections[name]; ok {
		// Later occurrences override earlier options (SAVE_CONFIG overlays).
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// Section returns the named section, if present.
func (c *File) Section(name string) (*Section, bool) {
	sec, ok := c.sections[strings.ToLower(name)]
	return sec, ok
}

// HasSection reports whether the named section exists.
func (c *File) HasSection(name string) bool {
	_, ok := c.sections[strings.ToLower(name)]
	return ok
}

// SectionNames returns all section names in file order.
func (c *File) SectionNames() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
