package utils

import (
	"strconv"
	"strings"
)

const RFPListCachePrefix = "rfps:list:v1:"

// BuildRFPListCacheKey keys the public RFP listing by its normalised filters.
func BuildRFPListCacheKey(page, perPage int, category, status string) string {
	return RFPListCachePrefix +
		"page=" + strconv.Itoa(page) +
		":per_page=" + strconv.Itoa(perPage) +
		":category=" + strings.ToLower(strings.TrimSpace(category)) +
		":status=" + strings.ToLower(strings.TrimSpace(status))
}

func BuildTemplateCacheKey(category string) string {
	return "concierge:template:" + strings.ToLower(strings.TrimSpace(category))
}
