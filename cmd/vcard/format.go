package main

import (
	"encoding/json"
	"io"

	"github.com/kjk/vcard/log"
	"github.com/kjk/vcard/vcard"
	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"
)

// queryResult is what json and toon formats print for each query
type queryResult struct {
	Query    string          `json:"query" toon:"query"`
	Matches  int             `json:"matches" toon:"matches"`
	Contacts []vcard.Summary `json:"contacts" toon:"contacts"`
}

// runQueries runs every query and returns total number of matching records
func runQueries(w io.Writer, store *vcard.Store, format string, queries []string) (int, error) {
	if format == formatTSV {
		total := 0
		for _, q := range queries {
			n := store.Query(w, q)
			log.Verbosef("query '%s': %d matches\n", q, n)
			log.Event("query", "term", q, "matches", n)
			total += n
		}
		return total, store.Err()
	}

	total := 0
	results := []queryResult{}
	for _, q := range queries {
		recs := store.Match(q)
		res := queryResult{
			Query:    q,
			Matches:  len(recs),
			Contacts: []vcard.Summary{},
		}
		for _, rec := range recs {
			res.Contacts = append(res.Contacts, rec.Summaries()...)
		}
		results = append(results, res)
		log.Verbosef("query '%s': %d matches\n", q, len(recs))
		log.Event("query", "term", q, "matches", len(recs))
		total += len(recs)
	}
	d, err := marshalResults(results, format)
	if err != nil {
		return 0, err
	}
	_, err = w.Write(d)
	return total, err
}

func marshalResults(results []queryResult, format string) ([]byte, error) {
	if format == formatTOON {
		d, err := toon.Marshal(results)
		if err != nil {
			return nil, err
		}
		if len(d) > 0 && d[len(d)-1] != '\n' {
			d = append(d, '\n')
		}
		return d, nil
	}
	d, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(d), nil
}
