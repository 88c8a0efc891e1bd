// Package service holds the operations both front ends call. Library
// composes the metadata lookup with the configured store and reports
// successful mutations as activity events.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movieweb/internal/model"
	"github.com/iliyamo/movieweb/internal/queue"
	"github.com/iliyamo/movieweb/internal/repository"
)

// ErrReviewsUnsupported is returned by review operations when the
// configured store has no review support.
var ErrReviewsUnsupported = errors.New("reviews are not supported by this store")

// Lookuper resolves a title to a metadata record.
type Lookuper interface {
	Lookup(ctx context.Context, title string) (model.MovieRecord, error)
}

type Library struct {
	store   repository.Store
	reviews repository.ReviewStore
	lookup  Lookuper
	events  queue.Publisher
	log     *logrus.Logger
}

// NewLibrary wires a Library. Review support is enabled when store also
// implements repository.ReviewStore. A nil events publisher drops events.
func NewLibrary(store repository.Store, lookup Lookuper, events queue.Publisher, log *logrus.Logger) *Library {
	if events == nil {
		events = queue.NopPublisher{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	l := &Library{store: store, lookup: lookup, events: events, log: log}
	if rs, ok := store.(repository.ReviewStore); ok {
		l.reviews = rs
	}
	return l
}

// ReviewsEnabled reports whether review operations are available.
func (l *Library) ReviewsEnabled() bool { return l.reviews != nil }

func (l *Library) publish(ctx context.Context, ev queue.ActivityEvent) {
	if err := l.events.Publish(ctx, ev); err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"kind":    ev.Kind,
			"user_id": ev.UserID,
		}).Warn("activity event not published")
	}
}

// ---- users ----

func (l *Library) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	return l.store.ListUsers(ctx)
}

func (l *Library) GetUserName(ctx context.Context, userID uint64) (string, error) {
	return l.store.GetUserName(ctx, userID)
}

func (l *Library) AddUser(ctx context.Context, username string) (uint64, error) {
	id, err := l.store.AddUser(ctx, username)
	if err != nil {
		return 0, err
	}
	ev := queue.NewEvent(queue.UserAdded, id)
	ev.Username = strings.TrimSpace(username)
	l.publish(ctx, ev)
	return id, nil
}

func (l *Library) DeleteUser(ctx context.Context, userID uint64) error {
	if err := l.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	l.publish(ctx, queue.NewEvent(queue.UserDeleted, userID))
	return nil
}

// ---- movies ----

func (l *Library) GetUserMovies(ctx context.Context, userID uint64) ([]model.Movie, error) {
	return l.store.GetUserMovies(ctx, userID)
}

func (l *Library) GetMovie(ctx context.Context, userID uint64, movieKey string) (model.Movie, error) {
	return l.store.GetMovie(ctx, userID, movieKey)
}

// AddMovie stores caller-supplied movie fields without a lookup.
func (l *Library) AddMovie(ctx context.Context, userID uint64, in model.MovieInput) (string, error) {
	key, err := l.store.AddMovieToUser(ctx, userID, in)
	if err != nil {
		return "", err
	}
	ev := queue.NewEvent(queue.MovieAdded, userID)
	ev.MovieKey = key
	ev.Title = in.Title
	l.publish(ctx, ev)
	return key, nil
}

// AddMovieByTitle looks the title up and stores the result for the user.
// The user is checked first so an unknown user never costs an outbound
// request. Lookup errors are returned unchanged.
func (l *Library) AddMovieByTitle(ctx context.Context, userID uint64, title string) (string, model.MovieRecord, error) {
	if _, err := l.store.GetUserName(ctx, userID); err != nil {
		return "", model.MovieRecord{}, err
	}
	rec, err := l.lookup.Lookup(ctx, title)
	if err != nil {
		return "", model.MovieRecord{}, err
	}
	key, err := l.AddMovie(ctx, userID, rec.Input())
	if err != nil {
		return "", rec, err
	}
	return key, rec, nil
}

func (l *Library) UpdateMovie(ctx context.Context, userID uint64, movieKey, newTitle, newRating string) (repository.UpdateResult, error) {
	res, err := l.store.UpdateMovie(ctx, userID, movieKey, newTitle, newRating)
	if err != nil || !res.OK() {
		return res, err
	}
	ev := queue.NewEvent(queue.MovieUpdated, userID)
	ev.MovieKey = movieKey
	ev.Title = newTitle
	l.publish(ctx, ev)
	return res, nil
}

func (l *Library) DeleteMovie(ctx context.Context, userID uint64, movieKey string) error {
	if err := l.store.DeleteMovie(ctx, userID, movieKey); err != nil {
		return err
	}
	ev := queue.NewEvent(queue.MovieDeleted, userID)
	ev.MovieKey = movieKey
	l.publish(ctx, ev)
	return nil
}

// ---- reviews ----

func (l *Library) GetReviewsForMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	if l.reviews == nil {
		return nil, ErrReviewsUnsupported
	}
	return l.reviews.GetReviewsForMovie(ctx, movieID)
}

func (l *Library) AddReview(ctx context.Context, userID, movieID uint64, text string, rating int) (uint64, error) {
	if l.reviews == nil {
		return 0, ErrReviewsUnsupported
	}
	id, err := l.reviews.AddReview(ctx, userID, movieID, text, rating)
	if err != nil {
		return 0, err
	}
	l.publish(ctx, reviewEvent(queue.ReviewAdded, userID, movieID, id))
	return id, nil
}

func (l *Library) UpdateReview(ctx context.Context, userID, movieID, reviewID uint64, text string, rating int) error {
	if l.reviews == nil {
		return ErrReviewsUnsupported
	}
	if err := l.reviews.UpdateReview(ctx, userID, movieID, reviewID, text, rating); err != nil {
		return err
	}
	l.publish(ctx, reviewEvent(queue.ReviewUpdated, userID, movieID, reviewID))
	return nil
}

func (l *Library) DeleteReview(ctx context.Context, userID, movieID, reviewID uint64) error {
	if l.reviews == nil {
		return ErrReviewsUnsupported
	}
	if err := l.reviews.DeleteReview(ctx, userID, movieID, reviewID); err != nil {
		return err
	}
	l.publish(ctx, reviewEvent(queue.ReviewDeleted, userID, movieID, reviewID))
	return nil
}

func reviewEvent(kind queue.Kind, userID, movieID, reviewID uint64) queue.ActivityEvent {
	ev := queue.NewEvent(kind, userID)
	ev.MovieKey = strconv.FormatUint(movieID, 10)
	ev.ReviewID = reviewID
	return ev
}
