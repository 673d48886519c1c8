package siser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Reader reads blocks written with MarshalLine.
// Every block must have a timestamp.
type Reader struct {
	r *bufio.Reader

	// valid after Next() returns true, until the next call
	Data      []byte
	Name      string
	Timestamp time.Time

	err error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next reads the next block. Returns false at the end of data
// or on error. Check Err() to tell them apart.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	hdr, err := r.r.ReadBytes('\n')
	if err != nil {
		if err != io.EOF || len(hdr) > 0 {
			r.err = fmt.Errorf("reading header: %w", unexpectedEOF(err))
		}
		return false
	}
	rest, ok := bytes.CutPrefix(hdr[:len(hdr)-1], hdrPrefix)
	if !ok {
		r.err = fmt.Errorf("unexpected header '%s'", hdr)
		return false
	}
	parts := bytes.SplitN(rest, []byte{' '}, 3)
	if len(parts) < 2 {
		r.err = fmt.Errorf("unexpected header '%s'", hdr)
		return false
	}
	size, err := strconv.Atoi(string(parts[0]))
	if err != nil || size < 0 {
		r.err = fmt.Errorf("unexpected header '%s'", hdr)
		return false
	}
	ms, err := strconv.ParseInt(string(parts[1]), 10, 64)
	if err != nil {
		r.err = fmt.Errorf("unexpected header '%s'", hdr)
		return false
	}
	r.Timestamp = time.UnixMilli(ms)
	r.Name = ""
	if len(parts) == 3 {
		r.Name = string(parts[2])
	}

	r.Data = make([]byte, size)
	if _, err = io.ReadFull(r.r, r.Data); err != nil {
		r.err = unexpectedEOF(err)
		return false
	}
	if size > 0 && r.Data[size-1] != '\n' {
		if _, err = r.r.Discard(1); err != nil {
			r.err = unexpectedEOF(err)
			return false
		}
	}
	return true
}

func (r *Reader) Err() error {
	return r.err
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
