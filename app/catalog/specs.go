package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

const shortSpecLimit = 6

// specBlacklist holds key fragments that are listing noise rather than
// product specifications.
var specBlacklist = []string{
	"best seller",
	"first listed",
	"rating",
	"reviews",
	"price",
	"source",
	"date first available",
	"merchantreturnpolicy",
	"unique id",
	"upc",
	"ean",
	"gtin",
	"table",
	"sold by",
	"products",
}

func blacklisted(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, term := range specBlacklist {
		if strings.Contains(k, term) {
			return true
		}
	}
	return false
}

// cleanKey collapses a doubled key such as "Brand Brand" or
// "Max Resolution Max Resolution".
func cleanKey(key string) string {
	key = strings.TrimSpace(key)
	words := strings.Fields(key)
	if n := len(words); n >= 2 && n%2 == 0 {
		first := strings.Join(words[:n/2], " ")
		if strings.EqualFold(first, strings.Join(words[n/2:], " ")) {
			return first
		}
	}
	return key
}

// specSanitizer drops noise keys and repeated key/value pairs across every
// spec structure of one payload.
type specSanitizer struct {
	seen map[string]struct{}
}

func newSpecSanitizer() *specSanitizer {
	return &specSanitizer{seen: map[string]struct{}{}}
}

func (s *specSanitizer) firstSighting(key string, value interface{}) bool {
	sig := strings.ToLower(key) + "|" + valueSignature(value)
	if _, ok := s.seen[sig]; ok {
		return false
	}
	s.seen[sig] = struct{}{}
	return true
}

func valueSignature(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case bool, float64, int, int64, json.Number:
		return fmt.Sprint(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func (s *specSanitizer) sanitize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return s.sanitizeMap(t)
	case []interface{}:
		return s.sanitizeList(t)
	}
	return v
}

func (s *specSanitizer) sanitizeMap(m map[string]interface{}) map[string]interface{} {
	keys := sortedKeys(m)
	children := make(map[string]interface{}, len(m))
	for _, k := range keys {
		children[k] = s.sanitize(m[k])
	}

	out := make(map[string]interface{}, len(m))
	for _, k := range keys {
		if blacklisted(k) {
			continue
		}
		clean := cleanKey(k)
		if !s.firstSighting(clean, children[k]) {
			continue
		}
		out[clean] = children[k]
	}
	return out
}

func (s *specSanitizer) sanitizeList(list []interface{}) []interface{} {
	if key, value, ok := asTuple(list); ok {
		if blacklisted(key) {
			return []interface{}{}
		}
		key = cleanKey(key)
		if !s.firstSighting(key, value) {
			return []interface{}{}
		}
		return []interface{}{key, value}
	}

	out := make([]interface{}, 0, len(list))
	for _, item := range list {
		item = s.sanitize(item)
		if isEmptySpec(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// asTuple recognizes ["Key", "Value"] rows.
func asTuple(list []interface{}) (string, string, bool) {
	if len(list) != 2 {
		return "", "", false
	}
	key, ok1 := list[0].(string)
	value, ok2 := list[1].(string)
	return key, value, ok1 && ok2
}

func isEmptySpec(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// shortSpecs keeps the first few specs in key order.
func shortSpecs(specs map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for i, k := range sortedKeys(specs) {
		if i == shortSpecLimit {
			break
		}
		out[k] = specs[k]
	}
	return out
}

// synthesizeSpecs builds readable specs for a variant without an explicit
// specs map, from normalized attributes and then the scalar spec columns.
func synthesizeSpecs(v *models.ProductVariant) map[string]interface{} {
	specs := map[string]interface{}{}
	for k, val := range v.AttributesNormalized {
		if val == nil {
			continue
		}
		if s := fmt.Sprint(val); s != "" {
			specs[k] = s
		}
	}

	setIf := func(key string, values ...string) {
		for _, val := range values {
			if val != "" {
				specs[key] = val
				return
			}
		}
	}
	setIf("Memory", deref(v.VramGB), itoa(v.VramGBInt, ""))
	setIf("Memory Type", deref(v.VramType))
	setIf("Bus Width", deref(v.BusWidthBit), itoa(v.BusWidthInt, "-Bit"))
	setIf("Boost Clock", deref(v.BoostClockGHz), itoa(v.BoostClockMHz, " MHz"))
	setIf("TDP", deref(v.TDPWatts), itoa(v.TDPWattsInt, ""))
	setIf("Cores", deref(v.Cores), itoa(v.CoresInt, ""))
	setIf("Threads", deref(v.Threads), itoa(v.ThreadsInt, ""))
	return specs
}

// specFields exposes the raw scraped columns that carry a value.
func specFields(v *models.ProductVariant) map[string]interface{} {
	fields := map[string]interface{}{}
	setString := func(key string, val *string) {
		if val != nil && *val != "" {
			fields[key] = *val
		}
	}
	setInt := func(key string, val *int) {
		if val != nil {
			fields[key] = *val
		}
	}

	setString("raw_jsonld", v.RawJSONLD)
	if len(v.RawSpecTables) > 0 {
		fields["raw_spec_tables"] = json.RawMessage(v.RawSpecTables)
	}
	if len(v.ImageURLs) > 0 {
		fields["image_urls"] = []string(v.ImageURLs)
	}
	setString("vram_gb", v.VramGB)
	setString("vram_type", v.VramType)
	setString("bus_width_bit", v.BusWidthBit)
	setString("boost_clock_ghz", v.BoostClockGHz)
	setString("tdp_watts", v.TDPWatts)
	setString("cores", v.Cores)
	setString("threads", v.Threads)
	setInt("vram_gb_int", v.VramGBInt)
	setInt("bus_width_int", v.BusWidthInt)
	setInt("boost_clock_mhz", v.BoostClockMHz)
	setInt("tdp_watts_int", v.TDPWattsInt)
	setInt("cores_int", v.CoresInt)
	setInt("threads_int", v.ThreadsInt)
	setString("mpn", v.MPN)
	setString("source_name", v.SourceName)
	setString("source_url", v.SourceURL)
	return fields
}

// decodeSpecTables returns the stored spec tables when they are a JSON
// object or array.
func decodeSpecTables(raw []byte) (interface{}, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	switch decoded.(type) {
	case map[string]interface{}, []interface{}:
		return decoded, true
	}
	return nil, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func itoa(n *int, suffix string) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n) + suffix
}
