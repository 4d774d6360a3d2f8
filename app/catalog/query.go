package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

// ParseListQuery turns listing query parameters into a validated query.
// routeCategory is the category slug bound by the route, if any, and wins
// over category_slug and type. Unknown enum values and non-integer price
// bounds are rejected; malformed pagination falls back to defaults.
func ParseListQuery(values url.Values, routeCategory string) (models.ListQuery, error) {
	q := models.ListQuery{
		Type:   strings.TrimSpace(values.Get("type")),
		Search: strings.TrimSpace(values.Get("q")),
		Tag:    strings.TrimSpace(values.Get("tag")),
	}

	q.CategorySlug = firstNonEmpty(
		strings.TrimSpace(routeCategory),
		strings.TrimSpace(values.Get("category_slug")),
		q.Type,
	)

	for _, flag := range []models.ProductFlag{models.FlagFeatured, models.FlagPopular, models.FlagNew} {
		if values.Has(string(flag)) {
			q.Flags = append(q.Flags, flag)
		}
	}

	q.Manufacturers = splitList(values["manufacturer"])

	for _, raw := range splitList(values["stock_status"]) {
		status, err := models.ParseStockStatus(raw)
		if err != nil {
			return models.ListQuery{}, err
		}
		q.StockStatuses = append(q.StockStatuses, status)
	}

	priceMin, err := parseCents(values, "price_min")
	if err != nil {
		return models.ListQuery{}, err
	}
	priceMax, err := parseCents(values, "price_max")
	if err != nil {
		return models.ListQuery{}, err
	}
	if priceMin != nil || priceMax != nil {
		q.Price = &models.PriceRange{Max: priceMax}
		if priceMin != nil {
			q.Price.Min = *priceMin
		}
	}

	if q.Sort, err = models.ParseSortKey(values.Get("sort")); err != nil {
		return models.ListQuery{}, err
	}
	if q.Order, err = models.ParseSortOrder(values.Get("order")); err != nil {
		return models.ListQuery{}, err
	}

	q.Page = atoiOrZero(values.Get("page"))
	q.PerPage = atoiOrZero(values.Get("per_page"))
	return q, nil
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseCents(values url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer amount in cents", key)
	}
	return &n, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
