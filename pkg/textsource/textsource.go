// Package textsource reads the text that gets trained on or checked:
// delimited records, plain text lines, HTML articles and web pages.
package textsource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// Mode selects how a location is read.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeCSV  Mode = "csv"
	ModeTSV  Mode = "tsv"
	ModeText Mode = "text"
	ModeHTML Mode = "html"
	ModeURL  Mode = "url"
)

// AllColumns makes delimited sources yield every field of a record.
const AllColumns = -1

// DefaultMaxBodySize limits how much of a web page is read.
const DefaultMaxBodySize = 10 * 1024 * 1024 // 10 MB

// ErrMalformedInput is the target for errors.Is on any RecordError.
var ErrMalformedInput = errors.New("malformed input record")

// RecordError reports an input record that could not be parsed.
type RecordError struct {
	Location string
	Line     int
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %v", e.Location, e.Line, ErrMalformedInput, e.Err)
}

func (e *RecordError) Unwrap() []error { return []error{ErrMalformedInput, e.Err} }

// Options controls how a Source is read.
type Options struct {
	Mode Mode
	// Column is the 0-based field of delimited records to yield, or
	// AllColumns. Records without that field are skipped.
	Column int
	// Header skips the first record of delimited files.
	Header bool

	// Client fetches URL sources. nil uses a client with a 30s timeout.
	Client *http.Client
	// MaxBodySize caps URL responses. 0 means DefaultMaxBodySize.
	MaxBodySize int64
	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger
}

// Source is a readable text location.
type Source struct {
	Location string
	Mode     Mode
	// Title is set after reading an HTML or URL source.
	Title string

	opts Options
}

// Open resolves the mode of location. ModeAuto picks URL for http(s)
// locations, then goes by file extension: .csv, .tsv, .html/.htm, and plain
// text for everything else. Files are not opened until Each.
func Open(location string, opts Options) (*Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("input location must be non-empty")
	}
	mode := opts.Mode
	switch mode {
	case "", ModeAuto:
		mode = DetectMode(location)
	case ModeCSV, ModeTSV, ModeText, ModeHTML, ModeURL:
	default:
		return nil, fmt.Errorf("unknown input mode %q", opts.Mode)
	}
	if opts.Column < AllColumns {
		return nil, fmt.Errorf("column must be %d (all) or a 0-based index, got %d", AllColumns, opts.Column)
	}
	return &Source{Location: location, Mode: mode, opts: opts}, nil
}

// DetectMode guesses the mode of location.
func DetectMode(location string) Mode {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ModeURL
	}
	switch filepath.Ext(lower) {
	case ".csv":
		return ModeCSV
	case ".tsv":
		return ModeTSV
	case ".html", ".htm":
		return ModeHTML
	default:
		return ModeText
	}
}

// Each calls fn with every piece of text in the source, in order. It stops
// at the first error from fn, from parsing, or from ctx.
func (s *Source) Each(ctx context.Context, fn func(text string) error) error {
	switch s.Mode {
	case ModeCSV:
		return s.eachDelimited(ctx, ',', fn)
	case ModeTSV:
		return s.eachDelimited(ctx, '\t', fn)
	case ModeHTML:
		return s.eachHTMLFile(ctx, fn)
	case ModeURL:
		return s.eachURL(ctx, fn)
	default:
		return s.eachLine(ctx, fn)
	}
}

func (s *Source) eachDelimited(ctx context.Context, comma rune, fn func(string) error) error {
	f, err := os.Open(s.Location)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(s.Location), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	if comma == '\t' {
		reader.LazyQuotes = true
	}
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return &RecordError{Location: s.Location, Line: perr.Line, Err: perr.Err}
			}
			return fmt.Errorf("read %s: %w", filepath.Base(s.Location), err)
		}
		if first {
			first = false
			if s.opts.Header {
				continue
			}
		}
		if s.opts.Column == AllColumns {
			for _, field := range row {
				if err := fn(field); err != nil {
					return err
				}
			}
			continue
		}
		if s.opts.Column < len(row) {
			if err := fn(row[s.opts.Column]); err != nil {
				return err
			}
		}
	}
}

func (s *Source) eachLine(ctx context.Context, fn func(string) error) error {
	f, err := os.Open(s.Location)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(s.Location), err)
	}
	defer f.Close()
	return eachLineOf(ctx, f, fn)
}

// eachLineOf calls fn for every line of r with the line ending removed.
// Lines have no length limit.
func eachLineOf(ctx context.Context, r io.Reader, fn func(string) error) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if line == "" && err == io.EOF {
			return nil
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if ferr := fn(line); ferr != nil {
			return ferr
		}
		if err == io.EOF {
			return nil
		}
	}
}

func (s *Source) eachHTMLFile(ctx context.Context, fn func(string) error) error {
	f, err := os.Open(s.Location)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(s.Location), err)
	}
	defer f.Close()

	abs, err := filepath.Abs(s.Location)
	if err != nil {
		return err
	}
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return s.eachArticle(ctx, f, pageURL, fn)
}

func (s *Source) eachURL(ctx context.Context, fn func(string) error) error {
	pageURL, err := url.Parse(s.Location)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	body, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	return s.eachArticle(ctx, bytes.NewReader(body), pageURL, fn)
}

// eachArticle extracts the readable text of an HTML page and yields it
// line by line.
func (s *Source) eachArticle(ctx context.Context, r io.Reader, pageURL *url.URL, fn func(string) error) error {
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return fmt.Errorf("failed to extract article: %w", err)
	}
	s.Title = article.Title
	s.logf("Title: %s", article.Title)
	s.logf("Extracted Text Length: %d chars", len(article.TextContent))
	return eachLineOf(ctx, strings.NewReader(article.TextContent), fn)
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	s.logf("Fetching %s...", s.Location)

	req, err := http.NewRequestWithContext(ctx, "GET", s.Location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Some sites block the default Go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	client := s.opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: got status code %d", s.Location, resp.StatusCode)
	}

	maxBodySize := s.opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("content-length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}
	// Read one byte past the limit to tell a full page from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > maxBodySize {
		return nil, fmt.Errorf("response body exceeded maximum size limit of %d bytes", maxBodySize)
	}
	return body, nil
}

func (s *Source) logf(format string, args ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Printf(format, args...)
	}
}
