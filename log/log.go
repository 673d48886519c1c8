package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/kjk/vcard/siser"
	"github.com/kjk/vcard/u"
	"github.com/toon-format/toon-go"
)

var (
	log       *dailyFile
	errorsLog *dailyFile
	eventsLog *dailyFile

	// Output is where Logf() prints. A command-line tool that
	// prints results to stdout should set it to os.Stderr
	Output io.Writer = os.Stdout

	// if true, Verbosef() will log messages
	Verbose bool
)

type Config struct {
	// directory where log files are stored
	// each log type (regular, error, event) has its own subdirectory
	Dir string
}

// Init enables logging to files in config.Dir.
// Without Init we only log to Output.
func Init(config *Config) {
	dir := config.Dir
	log = newDailyFile(filepath.Join(dir, "log"))
	errorsLog = newDailyFile(filepath.Join(dir, "errors"))
	// files are created on first write so if there are
	// no events, there's no events file
	eventsLog = newDailyFile(filepath.Join(dir, "events"))
}

func closeDailyFile(f **dailyFile) {
	if *f == nil {
		return
	}
	_ = (*f).close()
	*f = nil
}

// Close flushes and closes log files opened since Init
func Close() {
	closeDailyFile(&log)
	closeDailyFile(&errorsLog)
	closeDailyFile(&eventsLog)
}

func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	if Output != nil {
		fmt.Fprint(Output, s)
	}
	_ = log.WriteString(s)
}

func GetCallstackFrames(skip int) []string {
	var callers [32]uintptr
	n := runtime.Callers(skip+1, callers[:])
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		s := frame.File + ":" + strconv.Itoa(frame.Line)
		cs = append(cs, s)
	}
	return cs
}

func GetCallstack(skip int) string {
	frames := GetCallstackFrames(skip + 1)
	return strings.Join(frames, "\n")
}

func Verbosef(format string, args ...any) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

// Errorf logs an error message. The callstack only goes to the
// errors log file, if enabled.
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	Logf("%s", s)
	if errorsLog != nil {
		cs := GetCallstack(2)
		_ = errorsLog.WriteString(s + cs + "\n")
	}
}

// if err != nil, log and return true
// IfErrf(err) => logs err.Error()
// IfErrf(err, "error is: %v", err) => logs message formatted
func IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		Errorf("%s", err.Error())
		return true
	}
	s, ok := a[0].(string)
	if !ok {
		s = fmt.Sprintf("%s", a[0])
	}
	if len(a) > 1 {
		s = fmt.Sprintf(s, a[1:]...)
	}
	Errorf("%s", s)
	return true
}

// simpleTypeToStr converts simple types to string
// panics if v is of complex type
func simpleTypeToStr(v any) string {
	rt := reflect.TypeOf(v)
	kind := rt.Kind()
	switch kind {
	case reflect.Array, reflect.Slice, reflect.Struct, reflect.Map, reflect.Chan, reflect.Interface, reflect.Pointer:
		panic(fmt.Sprintf("toStr: value is of kind %v", kind))
	case reflect.String:
		return v.(string)
	}
	return fmt.Sprintf("%v", v)
}

// EncodeEvent encodes key / value pairs in toon format
func EncodeEvent(vals ...any) ([]byte, error) {
	n := len(vals)
	u.PanicIf(n%2 != 0, "EncodeEvent: odd number of values (%d)", n)
	if n == 0 {
		return nil, nil
	}
	m := map[string]any{}
	for i := 0; i < n; i += 2 {
		k := simpleTypeToStr(vals[i])
		m[k] = vals[i+1]
	}
	return toon.Marshal(m)
}

// Event logs an event with key / value pairs to events log.
// A no-op if logging to files wasn't enabled with Init.
func Event(name string, vals ...any) {
	if eventsLog == nil {
		return
	}
	d, err := EncodeEvent(vals...)
	if err != nil {
		Errorf("Event('%s'): toon.Marshal() failed with '%s'", name, err)
		return
	}
	d = siser.MarshalLine(name, time.Now().UTC(), d, nil)
	_ = eventsLog.Write(d)
}

func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durmicro", dur.Microseconds())
	Event(name, vals...)
}
