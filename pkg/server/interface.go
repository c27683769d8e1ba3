/*
Package server implements msgpack IPC for preset search.

The server reads a stream of msgpack maps from stdin and writes one msgpack
response per request to stdout. Every request carries an ID, echoed back in
the response, and an action.

# IPC

A search request ranks the presets that match a geometry:

	{"id": "req_001", "action": "search", "q": "caf", "g": "point", "l": 10}

The server responds with ranked presets, the count and the time taken in
microseconds:

	{"id": "req_001", "s": [{"i": "amenity/cafe", "n": "Cafe", "r": 1}], "c": 1, "t": 84}

Other actions:

	{"id": "req_002", "action": "item", "i": "amenity/cafe"}
	{"id": "req_003", "action": "geometry", "g": "area"}
	{"id": "req_004", "action": "batch", "qs": ["caf", "bak"], "g": "point"}
	{"id": "req_005", "action": "health"}

Batch queries run concurrently on a worker pool; their responses keep the
request order.

# Errors

Invalid requests get an ErrorResponse with a short message and an HTTP-like
status code. The stream keeps going after an error; only a broken stream ends
the loop.
*/
package server

import "errors"

// Actions understood by the server.
const (
	ActionSearch   = "search"
	ActionItem     = "item"
	ActionGeometry = "geometry"
	ActionBatch    = "batch"
	ActionHealth   = "health"
)

// CodeBadRequest is the status code carried in ErrorResponse.
const CodeBadRequest = 400

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrBatchTooLarge = errors.New("batch too large")
	ErrMissingID     = errors.New("missing preset id")
)

// Request is the single request shape; fields unused by an action are ignored.
type Request struct {
	ID       string   `msgpack:"id"`
	Action   string   `msgpack:"action"`
	Query    string   `msgpack:"q,omitempty"`
	Geometry string   `msgpack:"g,omitempty"`
	Limit    int      `msgpack:"l,omitempty"`
	PresetID string   `msgpack:"i,omitempty"`
	Queries  []string `msgpack:"qs,omitempty"`
}

// SearchResult - one ranked preset
type SearchResult struct {
	ID   string `msgpack:"i"`
	Name string `msgpack:"n"`
	Rank uint16 `msgpack:"r"`
}

// SearchResponse - search response
type SearchResponse struct {
	ID        string         `msgpack:"id"`
	Results   []SearchResult `msgpack:"s"`
	Count     int            `msgpack:"c"`
	TimeTaken int64          `msgpack:"t"`
}

// PresetInfo is the wire view of a single preset.
type PresetInfo struct {
	ID         string            `msgpack:"id"`
	Name       string            `msgpack:"name"`
	Terms      []string          `msgpack:"terms,omitempty"`
	Tags       map[string]string `msgpack:"tags,omitempty"`
	Searchable bool              `msgpack:"searchable"`
	Suggestion bool              `msgpack:"suggestion"`
	Score      float64           `msgpack:"score"`
}

// ItemResponse - preset lookup response
type ItemResponse struct {
	ID     string      `msgpack:"id"`
	Found  bool        `msgpack:"found"`
	Preset *PresetInfo `msgpack:"preset,omitempty"`
}

// GeometryResponse lists the preset IDs matching a geometry.
type GeometryResponse struct {
	ID       string   `msgpack:"id"`
	Geometry string   `msgpack:"g"`
	IDs      []string `msgpack:"ids"`
	Count    int      `msgpack:"c"`
}

// BatchResponse holds one SearchResponse per query, in request order.
type BatchResponse struct {
	ID        string           `msgpack:"id"`
	Results   []SearchResponse `msgpack:"rs"`
	Count     int              `msgpack:"c"`
	TimeTaken int64            `msgpack:"t"`
}

// StatusResponse answers health checks.
type StatusResponse struct {
	ID       string         `msgpack:"id"`
	Status   string         `msgpack:"status"`
	Presets  int            `msgpack:"presets"`
	Requests int            `msgpack:"requests"`
	Cache    map[string]int `msgpack:"cache"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
