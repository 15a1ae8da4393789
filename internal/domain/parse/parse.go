// Package parse turns raw announcement text into a structured day result.
//
// An announcement qualifies when it carries the daily-summary marker and at
// least one per-player result line. Everything else in the message is noise
// and is skipped line by line rather than failing the whole parse.
package parse

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/guessrank/guessrank/internal/domain/model"
	"github.com/guessrank/guessrank/pkg/logger"
)

var (
	// markerPattern detects the daily streak/summary header posted by the
	// results bot.
	markerPattern = regexp.MustCompile(`(?i)daily\s+(?:streak|summary|results)`)

	// linePattern matches one result line: optional winner glyph, a guess
	// token (1-6 or X for a failed attempt) over /6, a colon, then the
	// player references.
	linePattern = regexp.MustCompile(`^\s*(?:👑\s*)?([1-6Xx])/6\s*:\s*(.+)$`)

	// mentionPattern matches a structured mention embedding a stable id.
	mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

	// namePattern matches a bare @name token.
	namePattern = regexp.MustCompile(`@([\w.\-]+)`)

	// puzzlePattern extracts the optional external puzzle sequence number.
	puzzlePattern = regexp.MustCompile(`#(\d+)`)
)

// Extractor parses announcements. The zero value is usable; WithLogger adds
// a warning channel for dropped lines.
type Extractor struct {
	log logger.Logger
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for per-line warnings.
func WithLogger(log logger.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.log = log
		}
	}
}

// New constructs an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses text posted at ts. It returns nil when the message is not a
// qualifying announcement. The reported game date is the calendar day before
// ts, because the bot announces the previous day's results.
func (e *Extractor) Extract(ctx context.Context, text string, ts time.Time) *model.DayResult {
	if !markerPattern.MatchString(text) {
		return nil
	}

	var rows []model.ResultRow
	for _, line := range strings.Split(text, "\n") {
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		guessCount := parseGuessToken(m[1])
		refs := extractRefs(m[2])
		if len(refs) == 0 {
			e.warn(ctx, "result line without resolvable player references", line)
			continue
		}
		for _, ref := range refs {
			ref.GuessCount = guessCount
			rows = append(rows, ref)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	return &model.DayResult{
		GameDate:     model.GameDateFor(ts),
		PuzzleNumber: extractPuzzleNumber(text),
		Rows:         rows,
	}
}

// parseGuessToken maps the token before "/6" to a guess count. "X" is the
// failed sentinel.
func parseGuessToken(token string) int {
	if strings.EqualFold(token, "x") {
		return model.FailedGuessCount
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return model.FailedGuessCount
	}
	return n
}

// span is a half-open [start, end) byte range within a line.
type span struct {
	start int
	end   int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// extractRefs runs the two-pass tokenizer over the tail of a result line:
// structured mentions first, recording their spans, then bare names with any
// match overlapping a mention span discarded. Overlap is decided on spans,
// not on the matched text, so an id printed inside a mention can never be
// counted twice.
func extractRefs(tail string) []model.ResultRow {
	var refs []model.ResultRow
	var mentionSpans []span

	for _, idx := range mentionPattern.FindAllStringSubmatchIndex(tail, -1) {
		mentionSpans = append(mentionSpans, span{start: idx[0], end: idx[1]})
		refs = append(refs, model.ResultRow{PlayerID: tail[idx[2]:idx[3]]})
	}

	for _, idx := range namePattern.FindAllStringSubmatchIndex(tail, -1) {
		nameSpan := span{start: idx[0], end: idx[1]}
		overlapped := false
		for _, ms := range mentionSpans {
			if nameSpan.overlaps(ms) {
				overlapped = true
				break
			}
		}
		if overlapped {
			continue
		}
		refs = append(refs, model.ResultRow{Name: tail[idx[2]:idx[3]]})
	}

	return refs
}

// extractPuzzleNumber is best-effort; 0 means the announcement carried none.
func extractPuzzleNumber(text string) int {
	m := puzzlePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func (e *Extractor) warn(ctx context.Context, msg, line string) {
	if e.log == nil {
		return
	}
	e.log.Warn(ctx, msg, logger.String("line", strings.TrimSpace(line)))
}
