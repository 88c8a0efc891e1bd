// Package queue defines the activity events exchanged over the message
// broker, the publisher used by the service layer and the background
// consumer that records them in logs/activity.log.
package queue

import (
	"fmt"
	"strings"
	"time"
)

// ActivityQueueName is the durable queue every activity event is routed to.
const ActivityQueueName = "movieweb.activity"

// Kind names what happened.
type Kind string

const (
	UserAdded     Kind = "user.added"
	UserDeleted   Kind = "user.deleted"
	MovieAdded    Kind = "movie.added"
	MovieUpdated  Kind = "movie.updated"
	MovieDeleted  Kind = "movie.deleted"
	ReviewAdded   Kind = "review.added"
	ReviewUpdated Kind = "review.updated"
	ReviewDeleted Kind = "review.deleted"
)

// ActivityEvent is published after a successful mutation. It carries
// enough context for the activity log without querying the store.
type ActivityEvent struct {
	Kind       Kind   `json:"kind"`
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username,omitempty"`
	MovieKey   string `json:"movie_key,omitempty"`
	ReviewID   uint64 `json:"review_id,omitempty"`
	Title      string `json:"title,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// NewEvent stamps an event with the current UTC time.
func NewEvent(kind Kind, userID uint64) ActivityEvent {
	return ActivityEvent{
		Kind:       kind,
		UserID:     userID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// Line renders the event as one line of the activity log.
func (e ActivityEvent) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | user_id=%d", e.OccurredAt, e.Kind, e.UserID)
	if e.Username != "" {
		fmt.Fprintf(&b, " | username=%q", e.Username)
	}
	if e.MovieKey != "" {
		fmt.Fprintf(&b, " | movie=%s", e.MovieKey)
	}
	if e.ReviewID != 0 {
		fmt.Fprintf(&b, " | review_id=%d", e.ReviewID)
	}
	if e.Title != "" {
		fmt.Fprintf(&b, " | title=%q", e.Title)
	}
	b.WriteByte('\n')
	return b.String()
}
