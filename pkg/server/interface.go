/*
Package server implements msgpack IPC for reverse substitution requests.

The server package exposes the document transform over stdin/stdout using
binary msgpack encoding. Clients send one message per request and receive one
response per message. Messages are processed synchronously with timing info
included in responses.

# IPC

The server operates on a request response model where clients send structured
messages via stdin and receive responses through stdout. Each message carries
an ID field the client uses to pair responses with requests.

Transform requests use mainly this structure (shown decoded):

	{"id": "req_001", "action": "transform", "url": "http://a.com", "text": "The patient arrived."}

The server responds with one record per applied substitution:

	{"id": "req_001", "r": [{"a": "pt", "e": "patient", "k": "url=http://a.com,snippet_id=0", ...}], "c": 1, "t": 145}

Dictionary introspection reports the loaded abbreviation set:

	{"id": "dict_001", "action": "dict_info"}

Response structures include status information and error details when an op
fails. A "ready" status is announced on stdout before the first request is
read.

# Message Types

Request carries the action plus the transform payload. Supported actions:
"transform" runs extraction and substitution over the supplied text,
"dict_info" reports dictionary counts, and "ping" answers with a bare status.
An optional rate field overrides the configured substitution probability for
a single request.

TransformResponse contains record arrays with the substituted pair, the
snippet key and both snippet renderings, plus timing data in microseconds.

msgpack encoding has noticeably smaller message sizes compared to JSON and
the binary format parses faster, which matters when a client streams whole
documents through stdin.
*/
package server

// Request - incoming IPC message
type Request struct {
	ID     string   `msgpack:"id"`
	Action string   `msgpack:"action"` // "transform", "dict_info", "ping"
	URL    string   `msgpack:"url,omitempty"`
	Text   string   `msgpack:"text,omitempty"`
	Rate   *float64 `msgpack:"rate,omitempty"` // overrides configured rate
}

// RecordPayload - one substitution record in a transform response
type RecordPayload struct {
	Abbreviation string `msgpack:"a"`
	Expansion    string `msgpack:"e"`
	Key          string `msgpack:"k"`
	Original     string `msgpack:"o"`
	Abbreviated  string `msgpack:"b"`
}

// TransformResponse - transform response
type TransformResponse struct {
	ID        string          `msgpack:"id"`
	Records   []RecordPayload `msgpack:"r"`
	Count     int             `msgpack:"c"`
	TimeTaken int64           `msgpack:"t"`
}

// DictInfoResponse - dictionary introspection response
type DictInfoResponse struct {
	ID            string `msgpack:"id"`
	Status        string `msgpack:"status"`
	Abbreviations int    `msgpack:"abbreviations"`
	Pairs         int    `msgpack:"pairs"`
}

// StatusResponse - liveness announcement and ping reply
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// TransformError holds basic error information for failed requests
type TransformError struct {
	ID    string `msgpack:"id,omitempty"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
