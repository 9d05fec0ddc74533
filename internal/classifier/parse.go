package classifier

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"prodclass/pkg/types"
)

// FallbackConfidence is assigned whenever a category is recovered by keyword
// search instead of structured output.
const FallbackConfidence = 0.6

const (
	reasonFromText = "extracted from text"
	reasonNotFound = "not found in response"
)

// Tier records how a classification was recovered from model output.
type Tier string

const (
	TierJSON    Tier = "json"
	TierKeyword Tier = "keyword"
	TierNone    Tier = "none"
)

// Parsed is one classification recovered from model output.
type Parsed struct {
	Category   string
	Confidence float64
	Reasoning  string
	Tier       Tier
}

// ParseSingle extracts a {category, confidence, reasoning} object from the
// model response, falling back to keyword search over categories.
func ParseSingle(response string, categories []string) Parsed {
	span, ok := bracketSpan(response, '{', '}')
	if ok && gjson.Valid(span) {
		if obj := gjson.Parse(span); obj.IsObject() {
			return fromJSON(obj, categories)
		}
	}
	return keywordFallback(response, categories)
}

// ParseBatch extracts an indexed array of classifications for n products.
// structured is false when the response held no decodable array and every
// entry came from keyword search.
func ParseBatch(response string, n int, categories []string) (items []Parsed, structured bool) {
	items = make([]Parsed, n)
	span, ok := bracketSpan(response, '[', ']')
	if ok && gjson.Valid(span) {
		if arr := gjson.Parse(span); arr.IsArray() {
			entries := arr.Array()
			for i := range items {
				items[i] = Parsed{Category: types.CategoryUnknown, Reasoning: reasonNotFound, Tier: TierNone}
				if e, found := entryForIndex(entries, i+1); found {
					items[i] = fromJSON(e, categories)
				}
			}
			return items, true
		}
	}
	fb := keywordFallback(response, categories)
	for i := range items {
		items[i] = fb
	}
	return items, false
}

// bracketSpan returns the text between the first open and the last close
// rune. ok is false when either is missing.
func bracketSpan(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end < 0 {
		return "", false
	}
	if end < start {
		// Present but out of order; decoding the empty span fails.
		return "", true
	}
	return s[start : end+1], true
}

func entryForIndex(entries []gjson.Result, idx int) (gjson.Result, bool) {
	for _, e := range entries {
		if !e.IsObject() {
			continue
		}
		v := e.Get("index")
		if v.Type == gjson.Number && v.Num == float64(idx) {
			return e, true
		}
	}
	return gjson.Result{}, false
}

func fromJSON(obj gjson.Result, categories []string) Parsed {
	p := Parsed{
		Category:   types.CategoryUnknown,
		Confidence: confidence(obj.Get("confidence")),
		Reasoning:  obj.Get("reasoning").String(),
		Tier:       TierJSON,
	}
	c := obj.Get("category")
	if c.Type != gjson.String {
		p.Confidence = 0
		return p
	}
	if canon, ok := canonicalCategory(c.Str, categories); ok {
		p.Category = canon
		return p
	}
	if !strings.EqualFold(strings.TrimSpace(c.Str), types.CategoryUnknown) {
		// Labels outside the closed set are not usable.
		p.Confidence = 0
	}
	return p
}

func confidence(v gjson.Result) float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func canonicalCategory(label string, categories []string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, c := range categories {
		if strings.EqualFold(label, c) {
			return c, true
		}
	}
	return "", false
}

// keywordFallback returns the first category, in configured order, whose name
// occurs case-insensitively in the response.
func keywordFallback(response string, categories []string) Parsed {
	lower := strings.ToLower(response)
	for _, c := range categories {
		if c != "" && strings.Contains(lower, strings.ToLower(c)) {
			return Parsed{Category: c, Confidence: FallbackConfidence, Reasoning: reasonFromText, Tier: TierKeyword}
		}
	}
	return Parsed{Category: types.CategoryUnknown, Confidence: 0, Tier: TierNone}
}
