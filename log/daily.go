package log

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// dailyFile appends to ${dir}/YYYY-MM-DD.txt, switching to a new
// file when the UTC date changes. Methods are safe on a nil receiver.
type dailyFile struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

func newDailyFile(dir string) *dailyFile {
	return &dailyFile{
		dir: dir,
		now: time.Now,
	}
}

// must be called with mu held
func (f *dailyFile) open() error {
	day := f.now().UTC().Format("2006-01-02")
	if f.file != nil && f.day == day {
		return nil
	}
	if f.file != nil {
		_ = f.file.Close()
		f.file = nil
	}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(f.dir, day+".txt")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	f.file = file
	f.day = day
	return nil
}

func (f *dailyFile) Write(d []byte) error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.open(); err != nil {
		return err
	}
	_, err := f.file.Write(d)
	return err
}

func (f *dailyFile) WriteString(s string) error {
	return f.Write([]byte(s))
}

func (f *dailyFile) close() error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	_ = f.file.Sync()
	err := f.file.Close()
	f.file = nil
	f.day = ""
	return err
}
