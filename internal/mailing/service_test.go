package mailing_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookdrop/bookdrop/internal/event"
	"github.com/bookdrop/bookdrop/internal/mailing"
)

type mailingFixture struct {
	service  *mailing.Service
	repo     *mailing.InMemoryRepository
	notifier *event.InMemoryNotifier
	now      time.Time
}

func newMailingFixture(t *testing.T) *mailingFixture {
	t.Helper()

	f := &mailingFixture{
		repo:     mailing.NewInMemoryRepository(),
		notifier: event.NewInMemoryNotifier(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.service = mailing.NewService(mailing.ServiceConfig{
		Repository: f.repo,
		Notifier:   f.notifier,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return f.now },
	})
	return f
}

func TestCreate_NewSubscriber(t *testing.T) {
	f := newMailingFixture(t)

	sub, err := f.service.Create(context.Background(), "reader@example.com", "Reader")
	require.NoError(t, err)

	assert.Equal(t, "reader@example.com", sub.Email)
	assert.Equal(t, "Reader", sub.Name)
	assert.True(t, sub.IsSubscribed)
	assert.False(t, sub.IsValidated)
	assert.Nil(t, sub.ValidatedAt)

	events := f.notifier.PublishedOfType(event.TypeMailingCreated)
	require.Len(t, events, 1)
	assert.Equal(t, event.SourceEmailService, events[0].Source)
}

func TestCreate_IsIdempotentPerEmail(t *testing.T) {
	f := newMailingFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, "reader@example.com", "Reader")
	require.NoError(t, err)

	// Repeat delivery of the same book.requested event
	second, err := f.service.Create(ctx, "reader@example.com", "Reader Again")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Reader", second.Name, "existing record is returned unchanged")
	assert.Len(t, f.notifier.PublishedOfType(event.TypeMailingCreated), 1)
}

func TestValidate_MarksSubscriberValidated(t *testing.T) {
	f := newMailingFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "reader@example.com", "Reader")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)

	sub, err := f.service.Validate(ctx, "reader@example.com")
	require.NoError(t, err)

	assert.True(t, sub.IsValidated)
	require.NotNil(t, sub.ValidatedAt)
	assert.Equal(t, f.now, *sub.ValidatedAt)
	assert.Len(t, f.notifier.PublishedOfType(event.TypeMailingValidated), 1)
}

func TestValidate_IsIdempotent(t *testing.T) {
	f := newMailingFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "reader@example.com", "Reader")
	require.NoError(t, err)

	first, err := f.service.Validate(ctx, "reader@example.com")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)

	second, err := f.service.Validate(ctx, "reader@example.com")
	require.NoError(t, err)

	assert.Equal(t, *first.ValidatedAt, *second.ValidatedAt, "first validation timestamp is kept")
	assert.Len(t, f.notifier.PublishedOfType(event.TypeMailingValidated), 1)
}

func TestValidate_UnknownSubscriberFails(t *testing.T) {
	f := newMailingFixture(t)

	_, err := f.service.Validate(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, mailing.ErrSubscriberNotFound)
}

func TestUnsubscribe_RemovesFromList(t *testing.T) {
	f := newMailingFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "reader@example.com", "Reader")
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)

	require.NoError(t, f.service.Unsubscribe(ctx, "reader@example.com"))

	sub, err := f.repo.GetByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.False(t, sub.IsSubscribed)
	require.NotNil(t, sub.UnsubscribedAt)
	assert.Equal(t, f.now, *sub.UnsubscribedAt)
	assert.Len(t, f.notifier.PublishedOfType(event.TypeMailingUnsubscribed), 1)
}

func TestUnsubscribe_UnknownEmailSucceedsSilently(t *testing.T) {
	f := newMailingFixture(t)

	require.NoError(t, f.service.Unsubscribe(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.notifier.Published(), "no event for unknown email")
}

func TestResubscribe_RestoresSubscription(t *testing.T) {
	f := newMailingFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, "reader@example.com", "Reader")
	require.NoError(t, err)
	require.NoError(t, f.service.Unsubscribe(ctx, "reader@example.com"))

	require.NoError(t, f.service.Resubscribe(ctx, "reader@example.com"))

	sub, err := f.repo.GetByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.True(t, sub.IsSubscribed)
	assert.Nil(t, sub.UnsubscribedAt, "unsubscription timestamp is cleared")
	assert.Len(t, f.notifier.PublishedOfType(event.TypeMailingResubscribed), 1)
}

func TestResubscribe_UnknownEmailSucceedsSilently(t *testing.T) {
	f := newMailingFixture(t)

	require.NoError(t, f.service.Resubscribe(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.notifier.Published())
}
