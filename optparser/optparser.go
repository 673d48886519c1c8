// Package optparser is a minimal, non-POSIX command-line option parser.
//
// Any argument starting with '-' is an option, no matter how many dashes
// it has: -v, --v and ---v are the same. An option has a value only when
// it's attached with '=', e.g. --datafile=contacts.vcf. There's no
// distinction between short and long options and the parser doesn't know
// which options take values; that's up to the caller.
//
// A flag without a value has an empty string value. Use Has() to tell a
// flag from a missing option, Value() returns ErrOptionNotFound for the latter.
package optparser

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrOptionNotFound is returned by Value() for options that were not given
var ErrOptionNotFound = errors.New("option not found")

// Options is the result of parsing command-line arguments
type Options struct {
	prog    string
	options map[string]string
	args    []string
}

// Parse parses args, which don't include program name
func Parse(args []string) *Options {
	o := &Options{}
	o.parse(args)
	return o
}

// ParseArgv parses os.Args-like argv, where argv[0] is program name
func ParseArgv(argv []string) *Options {
	o := &Options{}
	if len(argv) > 0 {
		o.prog = argv[0]
		argv = argv[1:]
	}
	o.parse(argv)
	return o
}

func (o *Options) parse(args []string) {
	if o.options == nil {
		o.options = map[string]string{}
	}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			o.args = append(o.args, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		val := ""
		if idx := strings.IndexByte(name, '='); idx >= 0 {
			name, val = name[:idx], name[idx+1:]
		}
		o.options[name] = val
	}
}

// Prog returns program name (argv[0])
func (o *Options) Prog() string {
	return o.prog
}

// SetProg sets program name
func (o *Options) SetProg(name string) {
	o.prog = name
}

// Has returns true if option was given, with or without a value
func (o *Options) Has(name string) bool {
	_, ok := o.options[name]
	return ok
}

// HasAny returns true if any of the names was given e.g. HasAny("v", "version")
func (o *Options) HasAny(names ...string) bool {
	for _, name := range names {
		if o.Has(name) {
			return true
		}
	}
	return false
}

// Value returns value of an option or ErrOptionNotFound
func (o *Options) Value(name string) (string, error) {
	v, ok := o.options[name]
	if !ok {
		return "", fmt.Errorf("%w: '%s'", ErrOptionNotFound, name)
	}
	return v, nil
}

// Args returns arguments that are not options, in order
func (o *Options) Args() []string {
	return append([]string(nil), o.args...)
}

// Names returns names of all options, sorted
func (o *Options) Names() []string {
	var res []string
	for name := range o.options {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Reset forgets everything, including program name
func (o *Options) Reset() {
	o.prog = ""
	o.options = nil
	o.args = nil
}

// Dump writes options and arguments in human-readable form, for debugging
func (o *Options) Dump(w io.Writer) {
	fmt.Fprintf(w, "options:\n-------\n")
	for _, name := range o.Names() {
		fmt.Fprintf(w, "\t%s [%s]\n", name, o.options[name])
	}
	fmt.Fprintf(w, "\nargs:\n----\n")
	for _, arg := range o.args {
		fmt.Fprintf(w, "\t%s\n", arg)
	}
}
