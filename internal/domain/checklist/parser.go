package checklist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/spacecheck/internal/domain/analysis"
	"github.com/felixgeelhaar/spacecheck/internal/domain/space"
)

// Checklist document grammar:
//
//	## `data_sources`
//	### `tables`
//	- [ ] **[P]** At most 20 tables are configured <!-- {rule: max_items, limit: 20} -->
//	- [ ] **[L]** Table descriptions explain business meaning
//
// Headings carry backticked path segments; h2/h3/h4 nest into a dotted
// section path. Items tagged [P] are programmatic and may carry a YAML flow
// mapping of rule params in a trailing HTML comment; [L] (or untagged) items
// are judged. Unknown param keys are ignored for forward compatibility.
var (
	headingNameRe = regexp.MustCompile("`([^`]+)`")
	itemTagRe     = regexp.MustCompile(`^\*\*\[([PL])\]\*\*\s*`)
	paramsRe      = regexp.MustCompile(`<!--\s*(\{.*\})\s*-->\s*$`)
	slugStripRe   = regexp.MustCompile("[`'\"]")
	slugSpaceRe   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugHyphenRe  = regexp.MustCompile(`\s+`)
	slugDedupeRe  = regexp.MustCompile(`-+`)
)

// Slugify converts an item description into a stable ID.
//
//	"At least 1 table is configured" -> "at-least-1-table-is-configured"
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugSpaceRe.ReplaceAllString(slug, " ")
	slug = slugHyphenRe.ReplaceAllString(strings.TrimSpace(slug), "-")
	return slugDedupeRe.ReplaceAllString(slug, "-")
}

// Parse reads a checklist document and builds a Spec snapshot. Individual
// malformed entries are skipped and logged, never fatal; a source with zero
// valid sections yields a SpecLoadError.
func Parse(r io.Reader, logger zerolog.Logger) (*Spec, error) {
	recognized := make(map[string]bool, len(space.SectionNames))
	for _, name := range space.SectionNames {
		recognized[name] = true
	}

	sections := make(map[string][]Item)
	var source strings.Builder
	var h2, h3, h4 string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := scanner.Text()
		source.WriteString(raw)
		source.WriteByte('\n')

		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "#### "):
			h4 = headingName(line)
		case strings.HasPrefix(line, "### "):
			h3, h4 = headingName(line), ""
		case strings.HasPrefix(line, "## "):
			h2, h3, h4 = headingName(line), "", ""
		case strings.HasPrefix(line, "- [ ]"):
			section := joinPath(h2, h3, h4)
			if !recognized[section] {
				continue
			}
			item, err := parseItem(section, strings.TrimSpace(line[len("- [ ]"):]))
			if err != nil {
				logger.Debug().Str("section", section).Err(err).Msg("skipping malformed checklist entry")
				continue
			}
			sections[section] = append(sections[section], item)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &analysis.SpecLoadError{Source: "checklist", Err: err}
	}

	if len(sections) == 0 {
		return nil, &analysis.SpecLoadError{Source: "checklist", Err: fmt.Errorf("no valid sections found")}
	}

	return newSpec(sections, source.String()), nil
}

// ParseFile parses the checklist document at path.
func ParseFile(path string, logger zerolog.Logger) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &analysis.SpecLoadError{Source: path, Err: err}
	}
	defer f.Close() //nolint:errcheck // read-only handle

	spec, err := Parse(f, logger)
	if err != nil {
		var loadErr *analysis.SpecLoadError
		if errors.As(err, &loadErr) {
			loadErr.Source = path
		}
		return nil, err
	}
	return spec, nil
}

func parseItem(section, text string) (Item, error) {
	kind := KindJudged
	if m := itemTagRe.FindStringSubmatch(text); m != nil {
		if m[1] == "P" {
			kind = KindProgrammatic
		}
		text = text[len(m[0]):]
	}

	var params map[string]any
	if m := paramsRe.FindStringSubmatch(text); m != nil {
		if err := yaml.Unmarshal([]byte(m[1]), &params); err != nil {
			return Item{}, fmt.Errorf("invalid rule params %q: %w", m[1], err)
		}
		// YAML tolerates a key with no value (`limit: `) and yields nil;
		// a param without a value is malformed.
		for key, val := range params {
			if val == nil {
				return Item{}, fmt.Errorf("rule param %q in %q has no value", key, m[1])
			}
		}
		text = strings.TrimSpace(text[:len(text)-len(m[0])])
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}, fmt.Errorf("empty item description")
	}

	severity := SeverityMedium
	if s, ok := params["severity"].(string); ok {
		switch Severity(s) {
		case SeverityHigh, SeverityMedium, SeverityLow:
			severity = Severity(s)
		default:
			return Item{}, fmt.Errorf("unknown severity %q", s)
		}
	}

	if kind == KindProgrammatic {
		if _, ok := params["rule"].(string); !ok {
			return Item{}, fmt.Errorf("programmatic item %q missing rule param", text)
		}
	}

	return Item{
		ID:          Slugify(text),
		Section:     section,
		Description: text,
		Kind:        kind,
		Severity:    severity,
		Params:      params,
	}, nil
}

func headingName(line string) string {
	if m := headingNameRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

func joinPath(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p == "" {
			break
		}
		nonEmpty = append(nonEmpty, p)
	}
	return strings.Join(nonEmpty, ".")
}
