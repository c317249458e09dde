// Package flagx lets several components share one command line: each one
// filters os.Args down to the flags it owns before parsing them.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// Filter selects the arguments belonging to a known set of flags.
// Value flags consume the following argument unless it looks like a flag;
// bool flags never consume a value.
type Filter struct {
	values map[string]struct{}
	bools  map[string]struct{}
}

// Allow returns a Filter accepting the given value flags (e.g. "-d", "--config").
func Allow(valueFlags ...string) *Filter {
	f := &Filter{
		values: make(map[string]struct{}, len(valueFlags)),
		bools:  make(map[string]struct{}),
	}
	for _, name := range valueFlags {
		f.values[name] = struct{}{}
	}
	return f
}

// Bools adds boolean flags to the filter.
func (f *Filter) Bools(boolFlags ...string) *Filter {
	for _, name := range boolFlags {
		f.bools[name] = struct{}{}
	}
	return f
}

// Apply returns the subset of args owned by the filter, preserving order.
//
// Supported forms:
//
//	-d value
//	--config=conf.json
//	-v            (bool flag)
//
// The result is never nil.
func (f *Filter) Apply(args []string) []string {
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if f.owns(name) {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := f.bools[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := f.values[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

func (f *Filter) owns(name string) bool {
	if _, ok := f.values[name]; ok {
		return true
	}
	_, ok := f.bools[name]
	return ok
}

// FilterArgs is shorthand for Allow(allowedFlags...).Apply(args).
func FilterArgs(args []string, allowedFlags []string) []string {
	return Allow(allowedFlags...).Apply(args)
}

// ValueOf returns the value of the first of names found in args, or "" when
// none is present. Other arguments are ignored.
func ValueOf(args []string, names ...string) string {
	var value string

	fs := flag.NewFlagSet("value", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, name := range names {
		name = strings.TrimLeft(name, "-")
		if fs.Lookup(name) == nil {
			fs.StringVar(&value, name, "", "")
		}
	}
	_ = fs.Parse(FilterArgs(args, names))

	return value
}

// ConfigFile extracts the JSON config path given via -c or -config.
// Other arguments are ignored; an empty string means no file was requested.
func ConfigFile(args []string) string {
	return ValueOf(args, "-c", "-config", "--config")
}
