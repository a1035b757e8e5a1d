package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/activity-desk/internal/events"
)

// DashboardPreview is how many rows dashboard cards show.
const DashboardPreview = 3

// Page is one window of a scoped listing.
type Page[T any] struct {
	Items  []T
	Total  int
	Limit  int
	Offset int
}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

// stringPreview cuts body to at most max runes.
func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// dedupe keeps the first occurrence of every non-empty id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
