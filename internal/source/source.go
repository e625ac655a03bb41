package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// Strategy selects how a source is fetched.
type Strategy string

const (
	// StrategyAuto tries static retrieval first and escalates to browser
	// rendering when the result looks like a client-rendered shell.
	StrategyAuto    Strategy = "auto"
	StrategyStatic  Strategy = "static"
	StrategyDynamic Strategy = "dynamic"
)

// Category tags the kind of entity a source describes.
type Category string

const (
	CategoryCompany   Category = "company"
	CategoryFreelance Category = "freelance"
	CategoryDirectory Category = "directory"
)

// Source is one crawl target. Immutable once loaded.
type Source struct {
	URL      string
	Name     string
	Strategy Strategy
	Category Category
}

// Domain returns the lower-cased host of the source URL, without a
// leading "www.". Empty when the URL does not parse.
func (s Source) Domain() string {
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Load reads a source list from a CSV file. The first row is a header;
// recognized columns are url, name, strategy and category, in any order.
// Only url is required. Unknown strategies and categories fall back to
// auto and company respectively rather than failing the whole list.
func Load(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads sources from CSV content.
func Parse(r io.Reader) ([]Source, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	urlCol, ok := cols["url"]
	if !ok {
		return nil, fmt.Errorf("source list has no url column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Source
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source row: %w", err)
		}
		raw := strings.TrimSpace(row[urlCol])
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		s := Source{
			URL:      raw,
			Name:     field(row, "name"),
			Strategy: parseStrategy(field(row, "strategy")),
			Category: parseCategory(field(row, "category")),
		}
		if s.Name == "" {
			s.Name = s.Domain()
		}
		out = append(out, s)
	}
	return out, nil
}

func parseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(s)) {
	case StrategyStatic:
		return StrategyStatic
	case StrategyDynamic:
		return StrategyDynamic
	default:
		return StrategyAuto
	}
}

func parseCategory(s string) Category {
	switch Category(strings.ToLower(s)) {
	case CategoryFreelance:
		return CategoryFreelance
	case CategoryDirectory:
		return CategoryDirectory
	default:
		return CategoryCompany
	}
}
