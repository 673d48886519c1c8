package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/kjk/vcard/log"
	"github.com/kjk/vcard/optparser"
	"github.com/kjk/vcard/source"
	"github.com/kjk/vcard/u"
	"github.com/kjk/vcard/vcard"
)

const appVersion = "1.1.0"

// set with -ldflags "-X main.appBuild=..."
var appBuild = "dev"

const (
	exitOK       = 0
	exitNoMatch  = 1
	exitUsage    = 1
	exitOpenFail = 2
	exitNoHome   = 3
)

// exitError tells main() what exit code to use.
// Message is printed to stderr, unless empty.
type exitError struct {
	Code    int
	Message string
}

func (e *exitError) Error() string {
	return e.Message
}

func main() {
	err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:])
	if err == nil {
		os.Exit(exitOK)
	}
	code := exitUsage
	msg := err.Error()
	if ee, ok := err.(*exitError); ok {
		code = ee.Code
	}
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code)
}

func usage(w io.Writer) {
	fmt.Fprint(w, `vcard [OPTIONS] [ARGS]
Prints email, full name and phone of contacts matching any of ARGS.

where OPTIONS are:
	-v | --version
		Print version info and exit
	-h | --help
		Print this help and exit
	--datafile=PATH
		Contacts file, default ~/.vcard/contacts.vcf
		Can be a url: https://, s3://bucket/key, sftp://user@host/path
	--format=tsv|json|toon
		Output format, default tsv
	--export=PATH
		Save loaded contacts to PATH (local file or url)
	--log-dir=DIR
		Write logs and events to DIR
	--verbose
		Log what's happening to stderr
	--dump
		Print parsed options and loaded contacts to stderr
`)
}

// run returns nil if at least one query matched
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	opts := optparser.Parse(args)
	opts.SetProg("vcard")

	if opts.HasAny("version", "v") {
		fmt.Fprintf(stdout, "vcard version %s (%s)\n", appVersion, appBuild)
		return nil
	}
	if opts.HasAny("help", "h") {
		usage(stdout)
		return nil
	}

	c, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log.Output = stderr
	log.Verbose = c.Verbose
	if c.LogDir != "" {
		log.Init(&log.Config{Dir: c.LogDir})
		defer log.Close()
	}
	if c.Dump {
		opts.Dump(stderr)
	}

	store, err := loadStore(ctx, c)
	if err != nil {
		log.Verbosef("loading '%s' failed with '%s'\n", c.DataFile, err)
		return &exitError{Code: exitOpenFail, Message: "Unable to open data file: " + c.DataFile}
	}
	if c.Dump {
		dumpRecords(stderr, store)
	}

	total, err := runQueries(stdout, store, c.Format, opts.Args())
	if err != nil {
		return err
	}

	if c.Export != "" {
		if err = export(ctx, store, c); err != nil {
			return &exitError{Code: exitOpenFail, Message: fmt.Sprintf("Unable to export to '%s': %s", c.Export, err)}
		}
		log.Verbosef("exported %d records to '%s'\n", store.Count(), c.Export)
	}

	if total == 0 {
		return &exitError{Code: exitNoMatch}
	}
	return nil
}

func loadStore(ctx context.Context, c *config) (*vcard.Store, error) {
	timeStart := time.Now()
	r, err := source.Open(ctx, c.DataFile, &c.Source)
	if err != nil {
		return nil, err
	}
	defer u.CloseNoError(r)

	store := &vcard.Store{}
	if err = store.LoadFrom(r); err != nil {
		return nil, err
	}
	dur := time.Since(timeStart)
	log.Verbosef("loaded %d records from '%s' in %s\n", store.Count(), c.DataFile, dur)
	log.EventWithDuration("load", dur, "records", store.Count())
	return store, nil
}

func dumpRecords(w io.Writer, store *vcard.Store) {
	cs := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	for _, rec := range store.Records() {
		cs.Fdump(w, rec.Entries())
	}
}

// export saves the store. Local files are written atomically by the
// store itself, remote locations get the serialized data uploaded.
func export(ctx context.Context, store *vcard.Store, c *config) error {
	l, err := source.Parse(c.Export)
	if err != nil {
		return err
	}
	if l.Kind == source.KindLocal {
		return store.Save(l.Path)
	}
	var buf bytes.Buffer
	if err = store.SaveTo(&buf); err != nil {
		return err
	}
	d, err := u.CompressData(buf.Bytes(), l.Name())
	if err != nil {
		return err
	}
	return source.Upload(ctx, c.Export, d, &c.Source)
}
