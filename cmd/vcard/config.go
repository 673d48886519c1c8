package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kjk/vcard/optparser"
	"github.com/kjk/vcard/source"
	"github.com/kjk/vcard/u"
)

const (
	formatTSV  = "tsv"
	formatJSON = "json"
	formatTOON = "toon"
)

type config struct {
	DataFile string
	Format   string
	Export   string
	LogDir   string
	Verbose  bool
	Dump     bool
	Source   source.Config
}

// env looks up settings in process environment first,
// then in ~/.vcard/config.env
type env struct {
	file map[string]string
}

// lookup returns ok == false only if key is set neither in
// environment nor in config file
func (e *env) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := e.file[key]
	return v, ok
}

func (e *env) get(key string) string {
	v, _ := e.lookup(key)
	return v
}

func (e *env) getBool(key string) bool {
	v, err := strconv.ParseBool(e.get(key))
	return err == nil && v
}

func vcardDir(home string) string {
	return filepath.Join(home, ".vcard")
}

// readConfigEnv reads ~/.vcard/config.env, if it exists
func readConfigEnv(home string) (map[string]string, error) {
	path := filepath.Join(vcardDir(home), "config.env")
	if !u.FileExists(path) {
		return nil, nil
	}
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return u.ParseEnv(d)
}

func optValue(opts *optparser.Options, name string, def string) string {
	v, err := opts.Value(name)
	if errors.Is(err, optparser.ErrOptionNotFound) {
		return def
	}
	return v
}

// loadConfig resolves settings from, in increasing priority:
// built-in defaults, ~/.vcard/config.env, environment variables
// and command-line options.
func loadConfig(opts *optparser.Options) (*config, error) {
	e := &env{}
	home, errHome := u.HomeDir()
	if errHome == nil {
		m, err := readConfigEnv(home)
		if err != nil {
			return nil, &exitError{Code: exitUsage, Message: "Invalid config file: " + err.Error()}
		}
		e.file = m
	}

	c := &config{
		LogDir:   e.get("VCARD_LOG_DIR"),
		Format:   formatTSV,
		Source: source.Config{
			S3: source.S3Config{
				Endpoint: e.get("VCARD_S3_ENDPOINT"),
				Access:   e.get("VCARD_S3_ACCESS"),
				Secret:   e.get("VCARD_S3_SECRET"),
				Region:   e.get("VCARD_S3_REGION"),
				Insecure: e.getBool("VCARD_S3_INSECURE"),
			},
			SSHKeyPath: e.get("VCARD_SSH_KEY"),
		},
	}

	// an explicitly empty data file is an error when opening it,
	// not a request for the default
	dataFile, isSet := e.lookup("VCARD_DATAFILE")
	if v, err := opts.Value("datafile"); err == nil {
		dataFile, isSet = v, true
	}
	c.DataFile = dataFile
	if !isSet {
		if errHome != nil {
			return nil, &exitError{Code: exitNoHome, Message: "Unable to get $HOME"}
		}
		c.DataFile = filepath.Join(vcardDir(home), "contacts.vcf")
	}
	c.LogDir = optValue(opts, "log-dir", c.LogDir)
	c.Export = optValue(opts, "export", "")
	c.Verbose = opts.Has("verbose")
	c.Dump = opts.Has("dump")

	c.Format = strings.ToLower(optValue(opts, "format", c.Format))
	switch c.Format {
	case formatTSV, formatJSON, formatTOON:
		// valid
	default:
		return nil, &exitError{Code: exitUsage, Message: "invalid format '" + c.Format + "': must be 'tsv', 'json' or 'toon'"}
	}
	return c, nil
}
