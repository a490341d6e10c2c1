// Package cli handles cmd line input for trying substitutions live and testing dictionary coverage
package cli

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/abbrevlab/wsrs/pkg/wsrs"
)

// InputHandler processes user input from stdin, treating each line as one
// snippet and printing the abbreviated rendering. It accepts the substitution
// rate and seed so sessions can be replayed exactly.
type InputHandler struct {
	matcher      *wsrs.Matcher
	rate         float64
	seed         uint64
	showMatches  bool
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(matcher *wsrs.Matcher, rate float64, seed uint64, showMatches bool) *InputHandler {
	return &InputHandler{
		matcher:     matcher,
		rate:        rate,
		seed:        seed,
		showMatches: showMatches,
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin,
// and passes the trimmed input to handleInput() for processing.
// Loop terminates if an error occurs while reading from stdin
func (h *InputHandler) Start() error {
	log.Print("wsrs CLI")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a sentence and press Enter to see the substitution (Ctrl+C to exit):")

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

// handleInput processes a single line as a snippet. It normalizes the text
// the same way the corpus pipeline does, runs the matcher, and prints the
// abbreviated snippet along with every pair that fired.
func (h *InputHandler) handleInput(line string) {
	text := strings.TrimSpace(strings.ToLower(line))
	if utf8.RuneCountInString(text) > wsrs.MaxSnippetLen {
		log.Errorf("Input too long: max %d characters", wsrs.MaxSnippetLen)
		return
	}

	key := fmt.Sprintf("url=cli,snippet_id=%d", h.requestCount)
	h.requestCount++

	start := time.Now()

	matches := h.matcher.Match(text)
	if h.showMatches {
		// Abbreviate shuffles the candidate lists in place, so show
		// them before substituting
		h.printMatches(matches)
	}

	rng := wsrs.NewRand(h.seed, key)
	abbreviated, applied := wsrs.Abbreviate(text, matches, h.rate, rng)

	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for snippet '%s'", elapsed, key)

	records := wsrs.BuildRecords(wsrs.Snippet{Key: key, Text: text}, abbreviated, applied)
	if len(records) == 0 {
		log.Warnf("Snippet dropped: too few words after substitution")
		return
	}

	clSnippet := fmt.Sprintf("\033[38;5;75m%s\033[0m", abbreviated)
	log.Printf("=> %s", clSnippet)

	if len(applied) == 0 {
		log.Print("no substitutions applied")
		return
	}
	log.Printf("Applied %d substitutions:", len(applied))
	for i, p := range applied {
		clAbbr := fmt.Sprintf("\033[38;5;75m%s\033[0m", p.Abbreviation)
		log.Printf("%2d. %-20s (%s)", i+1, clAbbr, p.Expansion)
	}
}

// printMatches lists every match site in snippet order with its candidates
func (h *InputHandler) printMatches(matches wsrs.MatchMap) {
	if len(matches) == 0 {
		log.Print("no dictionary matches")
		return
	}

	indices := make([]int, 0, len(matches))
	for idx := range matches {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	log.Printf("Found %d match sites:", len(indices))
	for _, idx := range indices {
		words := make([]string, 0, len(matches[idx]))
		for _, p := range matches[idx] {
			words = append(words, fmt.Sprintf("%s > %s", p.Expansion, p.Abbreviation))
		}
		log.Printf("%4d. %s", idx, strings.Join(words, ", "))
	}
}
