package vcard

import (
	"bytes"
	"io"

	"github.com/kjk/vcard/atomicfile"
	"github.com/kjk/vcard/u"
)

var (
	beginMarker = Entry{Key: "BEGIN", Value: "VCARD"}
	endMarker   = Entry{Key: "END", Value: "VCARD"}
)

// Store is an ordered collection of vCard records
// as loaded from a single file
type Store struct {
	records []*Record
	// first error from printing in Query
	err error
}

// Count returns number of records
func (s *Store) Count() int {
	return len(s.records)
}

// Records returns records in the order they were loaded.
// Caller shouldn't modify them.
func (s *Store) Records() []*Record {
	return s.records
}

// Load loads records from a file at path. The file can be compressed
// (.gz, .bz2, .zst, .br). If the file can't be opened or read,
// returns an error and the store is not modified.
func (s *Store) Load(path string) error {
	f, err := u.OpenFileMaybeCompressed(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.LoadFrom(f)
}

// LoadFrom parses records from r and appends them to the store.
// Malformed input is not an error:
//   - lines without ':' are skipped
//   - properties outside of BEGIN:VCARD / END:VCARD are skipped
//   - a record without END:VCARD is dropped
//
// Folded (multi-line) values are not unfolded; each physical line
// is a separate property.
func (s *Store) LoadFrom(r io.Reader) error {
	d, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.records = append(s.records, parseRecords(d)...)
	return nil
}

func parseRecords(d []byte) []*Record {
	d = u.NormalizeNewlinesInPlace(d)
	var res []*Record
	var rec *Record
	for len(d) > 0 {
		var line []byte
		idx := bytes.IndexByte(d, '\n')
		if idx == -1 {
			line, d = d, nil
		} else {
			line, d = d[:idx], d[idx+1:]
		}
		line = bytes.TrimRight(line, " \t\r\n")
		idx = bytes.IndexByte(line, ':')
		if idx == -1 {
			continue
		}
		e := Entry{
			Key:   string(line[:idx]),
			Value: string(line[idx+1:]),
		}
		switch e {
		case beginMarker:
			rec = &Record{}
		case endMarker:
			if rec != nil {
				res = append(res, rec)
			}
			rec = nil
		default:
			if rec != nil {
				rec.Set(e.Key, e.Value)
			}
		}
	}
	return res
}

// Save writes all records to a file at path, atomically.
// If path ends with .gz, .zst or .br the data is compressed.
func (s *Store) Save(path string) error {
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()

	w, err := u.NewWriterMaybeCompressed(f, path)
	if err != nil {
		return err
	}
	if err = s.SaveTo(w); err != nil {
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	return f.Close()
}

// SaveTo writes all records to w in vCard format
func (s *Store) SaveTo(w io.Writer) error {
	for _, rec := range s.records {
		if err := rec.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// Query prints summaries of records that have a value matching
// pattern (ignoring case) to w and returns number of matching records.
// Records are printed in the order they were loaded.
func (s *Store) Query(w io.Writer, pattern string) int {
	n := 0
	for _, rec := range s.records {
		if !rec.Query(nil, pattern) {
			continue
		}
		n++
		if w == nil {
			continue
		}
		if err := rec.Print(w); err != nil && s.err == nil {
			s.err = err
		}
	}
	return n
}

// Err returns the first error from writing Query results, if any
func (s *Store) Err() error {
	return s.err
}

// Match is like Query but returns matching records instead of printing them
func (s *Store) Match(pattern string) []*Record {
	var res []*Record
	for _, rec := range s.records {
		if rec.Query(nil, pattern) {
			res = append(res, rec)
		}
	}
	return res
}
