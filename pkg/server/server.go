package server

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/abbrevlab/wsrs/pkg/config"
	"github.com/abbrevlab/wsrs/pkg/dictionary"
	"github.com/abbrevlab/wsrs/pkg/wsrs"
)

// maxTextBytes caps the text payload of a single transform request.
const maxTextBytes = 1 << 20

// Server handles the IPC for document transforms
type Server struct {
	dict         *dictionary.Index
	matcher      *wsrs.Matcher
	maxSentences int
	rate         float64
	seed         uint64
	reader       *bufio.Reader
	writer       io.Writer
}

// NewServer creates a transform server using stdin/stdout for IPC
func NewServer(dict *dictionary.Index, cfg *config.Config) *Server {
	return NewServerWithStreams(dict, cfg, os.Stdin, os.Stdout)
}

// NewServerWithStreams creates a transform server on explicit streams.
// Log output must go elsewhere: the out stream carries raw msgpack.
func NewServerWithStreams(dict *dictionary.Index, cfg *config.Config, in io.Reader, out io.Writer) *Server {
	return &Server{
		dict:         dict,
		matcher:      wsrs.NewMatcher(dict),
		maxSentences: cfg.Extract.MaxSentencesPerSnippet,
		rate:         cfg.Substitute.AbbreviationRate,
		seed:         uint64(cfg.Pipeline.Seed),
		reader:       bufio.NewReader(in),
		writer:       out,
	}
}

// Start begins listening for IPC requests
func (s *Server) Start() error {
	log.Debug("Starting server.")

	// Signal that the server is ready
	s.sendResponse(StatusResponse{Status: "ready"})

	dec := msgpack.NewDecoder(s.reader)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if err == io.EOF {
				return nil
			}
			// A failed decode leaves the stream position unknown, so
			// unlike a line protocol there is no next message boundary
			// to resync on.
			log.Errorf("Decoding request: %v", err)
			s.sendError("", "Invalid msgpack request", 400)
			return err
		}
		s.handleRequest(req)
	}
}

// handleRequest dispatches a decoded request
func (s *Server) handleRequest(req Request) {
	switch req.Action {
	case "transform":
		s.handleTransform(req)
	case "dict_info":
		s.handleDictInfo(req)
	case "ping":
		s.sendResponse(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown action: %s", req.Action), 400)
	}
}

// handleTransform processes a transform request. It validates the payload,
// runs extraction and substitution over the text, and answers with one
// record per applied pair. Snippets dropped by the length cap or the token
// floor are simply absent from the response.
func (s *Server) handleTransform(req Request) {
	if req.Text == "" {
		s.sendError(req.ID, "Missing 'text' parameter", 400)
		log.Debug("Text is empty in request")
		return
	}
	if len(req.Text) > maxTextBytes {
		s.sendError(req.ID, fmt.Sprintf("Text exceeds maximum length of %d bytes", maxTextBytes), 400)
		log.Debug("Text is too long in request")
		return
	}

	rate := s.rate
	if req.Rate != nil {
		rate = *req.Rate
		if rate < 0 || rate > 1 {
			s.sendError(req.ID, "Rate must be between 0 and 1", 400)
			return
		}
	}

	url := req.URL
	if url == "" {
		url = "ipc"
	}

	start := time.Now()
	doc := wsrs.Document{URL: url, Text: []byte(req.Text)}
	records, _ := wsrs.TransformDocument(doc, s.matcher, s.maxSentences, rate, s.seed)
	elapsed := time.Since(start)

	payload := make([]RecordPayload, len(records))
	for i, rec := range records {
		payload[i] = RecordPayload{
			Abbreviation: rec.Pair.Abbreviation,
			Expansion:    rec.Pair.Expansion,
			Key:          rec.Example.Key,
			Original:     rec.Example.OriginalSnippet,
			Abbreviated:  rec.Example.AbbreviatedSnippet,
		}
	}

	s.sendResponse(TransformResponse{
		ID:        req.ID,
		Records:   payload,
		Count:     len(payload),
		TimeTaken: elapsed.Microseconds(),
	})
}

// handleDictInfo reports the loaded dictionary counts
func (s *Server) handleDictInfo(req Request) {
	s.sendResponse(DictInfoResponse{
		ID:            req.ID,
		Status:        "ok",
		Abbreviations: s.dict.Len(),
		Pairs:         s.dict.NumPairs(),
	})
}

// sendResponse encodes the given response as msgpack and writes it to the
// client. msgpack values are self delimiting, so no framing is added.
func (s *Server) sendResponse(response any) {
	data, err := msgpack.Marshal(response)
	if err != nil {
		log.Errorf("Marshaling response: %v", err)
		s.sendError("", "Internal server error", 500)
		return
	}
	if _, err := s.writer.Write(data); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(TransformError{ID: id, Error: message, Code: code})
}
