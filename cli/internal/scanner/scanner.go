package scanner

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ccboard/ccboard/internal/model"
	"github.com/ccboard/ccboard/internal/pricing"
)

// ErrNoData is returned when no JSONL files exist under the scan root.
var ErrNoData = errors.New("no usage data found")

const maxLineWarnings = 5

// rawEntry represents the raw JSON structure of a Claude Code JSONL line.
type rawEntry struct {
	Timestamp string   `json:"timestamp"`
	RequestID string   `json:"requestId"`
	CostUSD   *float64 `json:"costUSD"`
	Message   struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Usage struct {
			InputTokens              int64 `json:"input_tokens"`
			OutputTokens             int64 `json:"output_tokens"`
			CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// Options restricts which records a scan includes.
type Options struct {
	Since    time.Time
	Until    time.Time
	Project  string
	Location *time.Location
}

// Result is the outcome of one scan.
type Result struct {
	Days       []model.DailyAggregate // sorted by date descending
	Parsed     int                    // records aggregated
	Duplicates int                    // records dropped by the identity key
	Skipped    int                    // lines that could not be used
}

// Scanner locates and aggregates local usage logs. Scans are serialized:
// a Scan started while another is in flight blocks until it finishes.
type Scanner struct {
	mu    sync.Mutex
	root  string
	warnf func(format string, args ...any)
}

// New creates a Scanner rooted at dir. An empty dir means the default
// Claude data directories under the user's home.
func New(dir string) *Scanner {
	return &Scanner{
		root: dir,
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
}

// roots resolves the directories to walk. A directory named "projects" is
// used as-is; otherwise a projects subdirectory is preferred when present.
func (s *Scanner) roots() ([]string, error) {
	if s.root != "" {
		if filepath.Base(s.root) == "projects" {
			return []string{s.root}, nil
		}
		sub := filepath.Join(s.root, "projects")
		if info, err := os.Stat(sub); err == nil && info.IsDir() {
			return []string{sub}, nil
		}
		return []string{s.root}, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	var roots []string
	for _, candidate := range []string{
		filepath.Join(home, ".claude", "projects"),
		filepath.Join(home, ".config", "claude", "projects"),
	} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			roots = append(roots, candidate)
		}
	}
	return roots, nil
}

// findFiles walks the scan roots and returns every JSONL file.
func (s *Scanner) findFiles() ([]string, error) {
	roots, err := s.roots()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() && filepath.Ext(path) == ".jsonl" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// projectName derives the project from the path segment following the
// "projects" directory marker.
func projectName(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segments {
		if seg == "projects" && i+1 < len(segments)-1 {
			return segments[i+1]
		}
	}
	return "unknown"
}

// parseTimestamp accepts RFC3339 with or without fractional seconds.
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Scan walks the log files and produces per-day aggregates.
func (s *Scanner) Scan(opts Options) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.findFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoData
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	res := &Result{}
	seen := make(map[string]struct{})
	days := make(map[string]*model.DailyAggregate)
	dayModels := make(map[string]map[string]struct{})
	warnings := 0

	for _, file := range files {
		project := projectName(file)
		if opts.Project != "" && project != opts.Project {
			continue
		}
		if err := s.scanFile(file, project, opts, loc, seen, days, dayModels, res, &warnings); err != nil {
			s.warnf("skipping %s: %v", file, err)
		}
	}

	for date, agg := range days {
		for m := range dayModels[date] {
			agg.Models = append(agg.Models, m)
		}
		sort.Strings(agg.Models)
		res.Days = append(res.Days, *agg)
	}
	sort.Slice(res.Days, func(i, j int) bool {
		return res.Days[i].Date > res.Days[j].Date // newest first
	})

	return res, nil
}

func (s *Scanner) scanFile(path, project string, opts Options, loc *time.Location,
	seen map[string]struct{}, days map[string]*model.DailyAggregate,
	dayModels map[string]map[string]struct{}, res *Result, warnings *int) error {

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)

	// Increase buffer size for large lines
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 1024*1024)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw rawEntry
		if err := json.Unmarshal(line, &raw); err != nil {
			res.Skipped++
			continue
		}

		usage := model.TokenUsage{
			InputTokens:              raw.Message.Usage.InputTokens,
			OutputTokens:             raw.Message.Usage.OutputTokens,
			CacheCreationInputTokens: raw.Message.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     raw.Message.Usage.CacheReadInputTokens,
		}

		// Lines without any usage are progress/summary entries, not records.
		if usage == (model.TokenUsage{}) && raw.CostUSD == nil {
			res.Skipped++
			continue
		}

		ts, err := parseTimestamp(raw.Timestamp)
		if err != nil {
			res.Skipped++
			if *warnings < maxLineWarnings {
				s.warnf("unparseable timestamp %q in %s", raw.Timestamp, filepath.Base(path))
				*warnings++
			}
			continue
		}

		rec := model.UsageRecord{
			Timestamp: ts,
			MessageID: raw.Message.ID,
			RequestID: raw.RequestID,
			Project:   project,
			Model:     raw.Message.Model,
			Usage:     usage,
			CostUSD:   raw.CostUSD,
		}

		if key := rec.DedupKey(); key != "" {
			if _, dup := seen[key]; dup {
				res.Duplicates++
				continue
			}
			seen[key] = struct{}{}
		}

		local := ts.In(loc)
		if !opts.Since.IsZero() && local.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && local.After(opts.Until) {
			continue
		}

		date := local.Format("2006-01-02")
		agg, ok := days[date]
		if !ok {
			agg = &model.DailyAggregate{Date: date}
			days[date] = agg
			dayModels[date] = make(map[string]struct{})
		}

		agg.Usage.Add(rec.Usage)
		agg.Cost += recordCost(rec)
		agg.RecordCount++
		if rec.Model != "" && rec.Model != "<synthetic>" {
			dayModels[date][rec.Model] = struct{}{}
		}
		res.Parsed++
	}

	return sc.Err()
}

// recordCost uses the precomputed cost when the log line carries one,
// otherwise prices the tokens from the static table.
func recordCost(rec model.UsageRecord) float64 {
	if rec.CostUSD != nil {
		return *rec.CostUSD
	}
	return pricing.CalculateCost(rec.Usage, pricing.GetPricing(rec.Model))
}
