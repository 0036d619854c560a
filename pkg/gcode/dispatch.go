// Package gcode provides extended G-code command registration and dispatch
// for host modules.
package gcode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Handler executes one command with its NAME=VALUE arguments. An alias, so
// any function with this shape (including methods promoted from other
// packages) registers directly.
type Handler = func(args map[string]string) error

type command struct {
	name    string
	help    string
	handler Handler
}

// Dispatcher routes command lines to registered handlers. Commands run one
// at a time; callers serialize invocations.
type Dispatcher struct {
	commands map[string]*command
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{commands: make(map[string]*command)}
}

// Register adds a named command. Duplicate registration is an error.
func (d *Dispatcher) Register(name, help string, handler Handler) error {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("gcode: empty command name")
	}
	if handler == nil {
		return fmt.Errorf("gcode: nil handler for %s", name)
	}
	if _, ok := d.commands[name]; ok {
		return fmt.Errorf("gcode: command %s already registered", name)
	}
	d.commands[name] = &command{name: name, help: help, handler: handler}
	return nil
}

// Run parses and executes one command line.
func (d *Dispatcher) Run(line string) error {
	name, args, err := ParseLine(line)
	if err != nil {
		return err
	}
	cmd, ok := d.commands[name]
	if !ok {
		return fmt.Errorf("gcode: unknown command: %s", name)
	}
	return cmd.handler(args)
}

// Help returns the registered commands and their help strings, sorted.
func (d *Dispatcher) Help() map[string]string {
	out := make(map[string]string, len(d.commands))
	for name, cmd := range d.commands {
		out[name] = cmd.help
	}
	return out
}

// CommandNames returns the registered command names, sorted.
func (d *Dispatcher) CommandNames() []string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseLine splits an extended G-code line into a command name and its
// NAME=VALUE argument map. Comments after ';' or '#' are stripped.
func ParseLine(line string) (string, map[string]string, error) {
	if idx := strings.IndexAny(line, ";#"); idx >= 0 {
		line = line[:idx]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("gcode: empty command line")
	}
	name := strings.ToUpper(fields[0])
	args := make(map[string]string, len(fields)-1)
	for _, field := range fields[1:] {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return "", nil, fmt.Errorf("gcode: malformed argument %q in %s", field, name)
		}
		args[strings.ToUpper(kv[0])] = kv[1]
	}
	return name, args, nil
}

// FloatArg returns the named argument as a float, or def when absent.
func FloatArg(args map[string]string, key string, def float64) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("gcode: bad %s=%q", key, raw)
	}
	return v, nil
}
