/*
Package vcard loads a flat file of vCard records and searches them.

The format is line-oriented, one property per line:

	BEGIN:VCARD
	VERSION:3.0
	FN:John Smith
	EMAIL;TYPE=WORK:john@example.com
	TEL:555-1234
	END:VCARD

Key is everything before the first ':', value everything after it.
Only what's needed for looking up contacts is supported: folded lines,
charsets and binary properties are not decoded.

Typical use:

	var s vcard.Store
	if err := s.Load(path); err != nil {
		return err
	}
	n := s.Query(os.Stdout, "smith")

Query prints "email\tfull name\tphone" for every email address
of every matching record.
*/
package vcard
