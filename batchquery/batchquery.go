// Package batchquery parses a batch of journey-query request bodies
// using a pooled fastjson parser, since the batch HTTP endpoint
// (raptorhttp) may be parsing many large bodies concurrently.
package batchquery

import (
	"fmt"

	"github.com/valyala/fastjson"
)

// defaultKMax is used when a request omits kMax or sets it to zero.
const defaultKMax = 4

// Request is one parsed journey query inside a batch.
type Request struct {
	Origin      string
	Destination string
	Depart      int64
	KMax        int
}

var parserPool fastjson.ParserPool

// Parse decodes a JSON array of batch query objects:
//
//	[{"origin":"A","destination":"B","depart":28800,"kMax":4}, ...]
func Parse(body []byte) ([]Request, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("batchquery: invalid JSON: %w", err)
	}

	items, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("batchquery: expected a JSON array: %w", err)
	}

	requests := make([]Request, 0, len(items))
	for i, item := range items {
		origin := item.GetStringBytes("origin")
		destination := item.GetStringBytes("destination")
		if len(origin) == 0 || len(destination) == 0 {
			return nil, fmt.Errorf("batchquery: item %d missing origin/destination", i)
		}

		kMax := item.GetInt("kMax")
		if kMax == 0 {
			kMax = defaultKMax
		}

		requests = append(requests, Request{
			Origin:      string(origin),
			Destination: string(destination),
			Depart:      item.GetInt64("depart"),
			KMax:        kMax,
		})
	}
	return requests, nil
}
