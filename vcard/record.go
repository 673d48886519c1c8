package vcard

import (
	"io"
	"sort"
	"strings"
)

const (
	keyVersion = "VERSION"
	keyName    = "FN"
	keyEmail   = "EMAIL"
	keyPhone   = "TEL"

	crlf = "\r\n"
)

// Entry is a single "KEY:VALUE" property of a vCard
type Entry struct {
	Key   string
	Value string
}

// Summary is what we print for a matching record:
// one per email address
type Summary struct {
	Email string `json:"email" toon:"email"`
	Name  string `json:"name" toon:"name"`
	Phone string `json:"phone" toon:"phone"`
}

// Record is a single vCard entry i.e. what's between
// BEGIN:VCARD and END:VCARD.
// Entries are kept sorted by key so that iteration order
// (and therefore printed and saved output) is deterministic
// for a given input.
type Record struct {
	entries []Entry
}

func (r *Record) find(key string) (int, bool) {
	n := len(r.entries)
	i := sort.Search(n, func(i int) bool {
		return r.entries[i].Key >= key
	})
	return i, i < n && r.entries[i].Key == key
}

// Set adds a property or over-writes its value if key already exists
func (r *Record) Set(key, value string) {
	i, ok := r.find(key)
	if ok {
		r.entries[i].Value = value
		return
	}
	r.entries = append(r.entries, Entry{})
	copy(r.entries[i+1:], r.entries[i:])
	r.entries[i] = Entry{Key: key, Value: value}
}

// Get returns a value for a given key. Key is case-sensitive.
func (r *Record) Get(key string) (string, bool) {
	i, ok := r.find(key)
	if !ok {
		return "", false
	}
	return r.entries[i].Value, true
}

// Len returns number of properties
func (r *Record) Len() int {
	return len(r.entries)
}

// Entries returns a copy of properties, sorted by key
func (r *Record) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// FindKeys returns all keys that contain pattern, ignoring case
func (r *Record) FindKeys(pattern string) []string {
	var res []string
	for _, e := range r.entries {
		if ContainsFold(e.Key, pattern) {
			res = append(res, e.Key)
		}
	}
	return res
}

// Query returns true if any value contains pattern, ignoring case.
// If w is not nil, a matching record prints itself to w.
// Errors writing to w are not reported. Store.Query keeps them.
func (r *Record) Query(w io.Writer, pattern string) bool {
	for _, e := range r.entries {
		if !ContainsFold(e.Value, pattern) {
			continue
		}
		if w != nil {
			_ = r.Print(w)
		}
		return true
	}
	return false
}

// Summaries returns one summary for each EMAIL-like key
func (r *Record) Summaries() []Summary {
	emailKeys := r.FindKeys(keyEmail)
	if len(emailKeys) == 0 {
		return nil
	}
	name, _ := r.Get(keyName)
	phone := ""
	if phoneKeys := r.FindKeys(keyPhone); len(phoneKeys) > 0 {
		phone, _ = r.Get(phoneKeys[0])
	}
	res := make([]Summary, 0, len(emailKeys))
	for _, k := range emailKeys {
		email, _ := r.Get(k)
		res = append(res, Summary{
			Email: email,
			Name:  name,
			Phone: phone,
		})
	}
	return res
}

// Print writes "email\tname\tphone\n" line for each email address.
// Records without an email print nothing.
func (r *Record) Print(w io.Writer) error {
	var sb strings.Builder
	for _, s := range r.Summaries() {
		sb.WriteString(s.Email)
		sb.WriteByte('\t')
		sb.WriteString(s.Name)
		sb.WriteByte('\t')
		sb.WriteString(s.Phone)
		sb.WriteByte('\n')
	}
	if sb.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Write serializes the record in vCard format with CRLF line endings.
// VERSION is always written first, even if missing.
func (r *Record) Write(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("BEGIN:VCARD" + crlf)
	version, _ := r.Get(keyVersion)
	sb.WriteString(keyVersion + ":" + version + crlf)
	for _, e := range r.entries {
		if e.Key == keyVersion {
			continue
		}
		sb.WriteString(e.Key)
		sb.WriteByte(':')
		sb.WriteString(e.Value)
		sb.WriteString(crlf)
	}
	sb.WriteString("END:VCARD" + crlf)
	_, err := io.WriteString(w, sb.String())
	return err
}
