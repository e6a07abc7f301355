package parser

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

type normalizer struct {
	prefixes    []string
	removeChars *regexp.Regexp
	collapse    bool
}

func newNormalizer(cfg Normalization) (*normalizer, error) {
	n := &normalizer{collapse: cfg.NormalizeWhitespace}
	for _, p := range cfg.Prefixes {
		p = strings.ToLower(p)
		if cfg.NormalizeWhitespace {
			p = whitespaceRe.ReplaceAllString(p, " ")
		}
		if strings.TrimSpace(p) == "" {
			continue
		}
		n.prefixes = append(n.prefixes, p)
	}
	if cfg.RemoveChars != "" {
		re, err := regexp.Compile(cfg.RemoveChars)
		if err != nil {
			return nil, err
		}
		n.removeChars = re
	}
	return n, nil
}

// normalize lowercases and trims raw, drops removable characters, collapses
// whitespace and strips leading filler phrases until none is left. Each step
// is a fixed point of the steps before it, so normalizing twice changes nothing.
func (n *normalizer) normalize(raw string) string {
	s := strings.ToLower(raw)
	if n.removeChars != nil {
		s = n.removeChars.ReplaceAllString(s, "")
	}
	if n.collapse {
		s = whitespaceRe.ReplaceAllString(s, " ")
	}
	s = strings.TrimSpace(s)

	for stripped := true; stripped; {
		stripped = false
		for _, p := range n.prefixes {
			if rest, ok := strings.CutPrefix(s, p); ok {
				s = strings.TrimSpace(rest)
				stripped = true
			}
		}
	}
	return s
}
