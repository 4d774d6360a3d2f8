package importer

import (
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxRawJSONLDBytes caps a salvaged raw_jsonld payload.
const MaxRawJSONLDBytes = 65500

var (
	whitespace   = regexp.MustCompile(`\s+`)
	digitRun     = regexp.MustCompile(`\d+`)
	clockGHz     = regexp.MustCompile(`(?i)([0-9.]+)\s*ghz`)
	clockMHz     = regexp.MustCompile(`(?i)([0-9.]+)\s*mhz`)
	priceNumber  = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?`)
	controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	numericOnly  = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)
)

var scrapedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeVRAM strips all whitespace, e.g. "8 GB" becomes "8GB".
func NormalizeVRAM(s string) string {
	return whitespace.ReplaceAllString(s, "")
}

// ParseInteger casts a purely numeric value, otherwise extracts the first
// digit run. It returns nil when no digits are present or the value does not
// fit in an int.
func ParseInteger(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	} else if errors.Is(err, strconv.ErrRange) {
		return nil
	}
	if numericOnly.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || f >= math.MaxInt || f < math.MinInt {
			return nil
		}
		n := int(f)
		return &n
	}
	m := digitRun.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// ParseClockMHz converts "2.52 GHz" to 2520 and "1710 MHz" to 1710. A bare
// number is taken as MHz.
func ParseClockMHz(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if m := clockGHz.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			n := int(math.Round(f * 1000))
			return &n
		}
	}
	if m := clockMHz.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			n := int(math.Round(f))
			return &n
		}
	}
	m := digitRun.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// ExtractPriceNumbers returns every number in a free text price, in order,
// with thousands separators removed: "$1,299.99 was $1,499.00" yields
// [1299.99 1499].
func ExtractPriceNumbers(s string) []float64 {
	var out []float64
	for _, m := range priceNumber.FindAllString(s, -1) {
		f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ConvertToCents converts a USD amount to integer cents of the local
// currency.
func ConvertToCents(usd float64, rate decimal.Decimal) int64 {
	return decimal.NewFromFloat(usd).
		Mul(rate).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// SalvageJSONLD keeps valid JSON untouched. Anything else has control
// characters blanked and is cut to MaxRawJSONLDBytes.
func SalvageJSONLD(raw string) string {
	if json.Valid([]byte(raw)) {
		return raw
	}
	cleaned := controlChars.ReplaceAllString(raw, " ")
	return truncateBytes(cleaned, MaxRawJSONLDBytes)
}

func truncateBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// DecodeSpecTables returns the raw JSON when it is valid and nil otherwise.
func DecodeSpecTables(raw string) json.RawMessage {
	if !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}

// DecodeImageURLs decodes a JSON array of URLs. A JSON null decodes to no
// URLs; anything else that is not a JSON array becomes a single element list
// holding the raw string.
func DecodeImageURLs(raw string) []string {
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return []string{raw}
	}
	switch list := decoded.(type) {
	case nil:
		return nil
	case []interface{}:
		urls := make([]string, 0, len(list))
		for _, v := range list {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				urls = append(urls, strings.TrimSpace(s))
			}
		}
		return urls
	default:
		return []string{raw}
	}
}

// SourceVariantID extracts the source system id from a product URL: the
// Item or item query parameter, else the last path segment.
func SourceVariantID(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, key := range []string{"Item", "item"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	if u.Path == "" {
		return ""
	}
	seg := path.Base(u.Path)
	if seg == "/" || seg == "." {
		return ""
	}
	return seg
}

// ParseScrapedAt accepts the timestamp shapes the crawler emits.
func ParseScrapedAt(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range scrapedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
