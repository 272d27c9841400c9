package shared

import (
	"net/http"
	"strconv"
	"strings"
)

const TotalCountHeader = "X-Total-Count"

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset. Malformed or out-of-range values
// fall back to the defaults instead of failing the list.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	query := r.URL.Query()
	page := Pagination{
		Limit:  intAtLeast(query.Get("limit"), 1, defaultLimit),
		Offset: intAtLeast(query.Get("offset"), 0, 0),
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}

// SetTotal publishes the unpaginated row count.
func SetTotal(w http.ResponseWriter, total int) {
	w.Header().Set(TotalCountHeader, strconv.Itoa(total))
}

func intAtLeast(raw string, floor, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < floor {
		return fallback
	}
	return value
}
