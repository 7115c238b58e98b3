package intake

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jfp99/pizza-falchi-sub001/internal/repository"
)

var (
	ErrSlotNotFound     = errors.New("slot not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotAttached = errors.New("order not attached to slot")
	ErrRateLimited      = errors.New("rate limited")
)

// ValidationError carries field-level detail for malformed input. It is
// always produced before the transaction opens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// translateNotFound maps the repository's not-found sentinel to a
// service-level one, leaving other errors untouched.
func translateNotFound(err error, sentinel error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return err
}
