package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/common/metrics"
	"activity-signup/internal/notify"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func testSeed() []Activity {
	return []Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Drama Club",
			Description:     "Act, direct, and produce plays and performances",
			Schedule:        "Mondays and Wednesdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 2,
			Participants:    []string{"noah@mergington.edu", "ava@mergington.edu"},
		},
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

// blockingNotifier waits for its context to end and records whether a
// deadline was set.
type blockingNotifier struct {
	hadDeadline bool
}

func (b *blockingNotifier) Name() string { return "blocking" }

func (b *blockingNotifier) Notify(ctx context.Context, _ notify.Event) error {
	_, b.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func newTestRegistry(t *testing.T, n notify.Notifier) *Registry {
	t.Helper()
	return New(testSeed(), WithNotifier(n), WithLogger(logger.NewTestLogger(t)))
}

// ==========================
// List / Get
// ==========================

func TestList_ReturnsEveryActivity(t *testing.T) {
	r := newTestRegistry(t, nil)

	all := r.List()
	require.Len(t, all, 2)
	chess := all["Chess Club"]
	assert.Equal(t, "Fridays, 3:30 PM - 5:00 PM", chess.Schedule)
	assert.Equal(t, 12, chess.MaxParticipants)
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, chess.Participants)
}

func TestList_IsASnapshot(t *testing.T) {
	r := newTestRegistry(t, nil)

	all := r.List()
	chess := all["Chess Club"]
	chess.Participants[0] = "mutated@mergington.edu"

	got, err := r.Get("Chess Club")
	require.NoError(t, err)
	assert.Equal(t, "michael@mergington.edu", got.Participants[0])
}

func TestNew_CopiesSeed(t *testing.T) {
	seed := testSeed()
	r := New(seed)
	seed[0].Participants[0] = "mutated@mergington.edu"

	got, err := r.Get("Chess Club")
	require.NoError(t, err)
	assert.Equal(t, "michael@mergington.edu", got.Participants[0])
}

func TestGet_UnknownActivity(t *testing.T) {
	r := newTestRegistry(t, nil)

	_, err := r.Get("Nonexistent Club")
	assert.True(t, errors.Is(err, apperrors.ErrActivityNotFound))
}

func TestNames_Sorted(t *testing.T) {
	r := newTestRegistry(t, nil)
	assert.Equal(t, []string{"Chess Club", "Drama Club"}, r.Names())
}

// ==========================
// Signup
// ==========================

func TestSignup_Success(t *testing.T) {
	n := &recordingNotifier{}
	r := newTestRegistry(t, n)

	msg, err := r.Signup(context.Background(), "Chess Club", "new_student@mergington.edu")
	require.NoError(t, err)
	assert.Equal(t, "Signed up new_student@mergington.edu for Chess Club", msg)

	chess, _ := r.Get("Chess Club")
	assert.Len(t, chess.Participants, 3)
	assert.Equal(t, "new_student@mergington.edu", chess.Participants[2])

	require.Len(t, n.events, 1)
	assert.Equal(t, notify.EventSignup, n.events[0].Type)
	assert.Equal(t, 9, n.events[0].AvailableSpots)
}

func TestSignup_ActivityNotFound(t *testing.T) {
	n := &recordingNotifier{}
	r := newTestRegistry(t, n)

	_, err := r.Signup(context.Background(), "Nonexistent Club", "student@mergington.edu")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrActivityNotFound))
	assert.Equal(t, "Activity not found", apperrors.Normalize(err).Message)
	assert.Equal(t, "signup", apperrors.Normalize(err).Metadata["operation"])
	assert.Equal(t, "Nonexistent Club", apperrors.Normalize(err).Metadata["activity"])
	assert.Empty(t, n.events)
}

func TestSignup_Duplicate(t *testing.T) {
	r := newTestRegistry(t, nil)

	_, err := r.Signup(context.Background(), "Chess Club", "michael@mergington.edu")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadySignedUp))

	chess, _ := r.Get("Chess Club")
	assert.Len(t, chess.Participants, 2)
}

func TestSignup_RepeatIsRejected(t *testing.T) {
	r := newTestRegistry(t, nil)
	ctx := context.Background()

	_, err := r.Signup(ctx, "Chess Club", "multi_student@mergington.edu")
	require.NoError(t, err)
	_, err = r.Signup(ctx, "Chess Club", "multi_student@mergington.edu")
	assert.True(t, errors.Is(err, apperrors.ErrAlreadySignedUp))

	chess, _ := r.Get("Chess Club")
	count := 0
	for _, p := range chess.Participants {
		if p == "multi_student@mergington.edu" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSignup_FullActivityIsAccepted(t *testing.T) {
	r := newTestRegistry(t, nil)

	avail, err := r.Availability("Drama Club")
	require.NoError(t, err)
	require.Equal(t, 0, avail)

	_, err = r.Signup(context.Background(), "Drama Club", "late@mergington.edu")
	require.NoError(t, err)

	avail, err = r.Availability("Drama Club")
	require.NoError(t, err)
	assert.Equal(t, -1, avail)
}

func TestSignup_NotifierFailureDoesNotFailSignup(t *testing.T) {
	n := &recordingNotifier{err: errors.New("redis down")}
	r := newTestRegistry(t, n)

	msg, err := r.Signup(context.Background(), "Chess Club", "new_student@mergington.edu")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.Len(t, n.events, 1)
}

func TestSignup_NotifierFailureCountedPerChannel(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("redis down")}
	r := newTestRegistry(t, notify.Multi{failing, &recordingNotifier{}})

	childBefore := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("recording"))
	multiBefore := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("multi"))

	_, err := r.Signup(context.Background(), "Chess Club", "counted@mergington.edu")
	require.NoError(t, err)

	assert.Equal(t, childBefore+1, testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("recording")))
	assert.Equal(t, multiBefore, testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("multi")))
}

func TestSignup_SlowNotifierIsBounded(t *testing.T) {
	n := &blockingNotifier{}
	r := New(testSeed(),
		WithNotifier(n),
		WithNotifyTimeout(50*time.Millisecond),
		WithLogger(logger.NewTestLogger(t)),
	)

	start := time.Now()
	_, err := r.Signup(context.Background(), "Chess Club", "slow@mergington.edu")
	require.NoError(t, err)

	assert.True(t, n.hadDeadline)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWithNotifyTimeout_IgnoresNonPositive(t *testing.T) {
	r := New(testSeed(), WithNotifyTimeout(0))
	assert.Equal(t, DefaultNotifyTimeout, r.notifyTimeout)
}

// ==========================
// Unregister
// ==========================

func TestUnregister_Success(t *testing.T) {
	n := &recordingNotifier{}
	r := newTestRegistry(t, n)

	msg, err := r.Unregister(context.Background(), "Chess Club", "michael@mergington.edu")
	require.NoError(t, err)
	assert.Equal(t, "Unregistered michael@mergington.edu from Chess Club", msg)

	chess, _ := r.Get("Chess Club")
	assert.Equal(t, []string{"daniel@mergington.edu"}, chess.Participants)

	require.Len(t, n.events, 1)
	assert.Equal(t, notify.EventUnregister, n.events[0].Type)
	assert.Equal(t, 11, n.events[0].AvailableSpots)
}

func TestUnregister_PreservesOrder(t *testing.T) {
	r := newTestRegistry(t, nil)
	ctx := context.Background()

	_, err := r.Signup(ctx, "Chess Club", "third@mergington.edu")
	require.NoError(t, err)
	_, err = r.Unregister(ctx, "Chess Club", "daniel@mergington.edu")
	require.NoError(t, err)

	chess, _ := r.Get("Chess Club")
	assert.Equal(t, []string{"michael@mergington.edu", "third@mergington.edu"}, chess.Participants)
}

func TestUnregister_ActivityNotFound(t *testing.T) {
	r := newTestRegistry(t, nil)

	_, err := r.Unregister(context.Background(), "Nonexistent Club", "student@mergington.edu")
	assert.True(t, errors.Is(err, apperrors.ErrActivityNotFound))
}

func TestUnregister_NotSignedUp(t *testing.T) {
	r := newTestRegistry(t, nil)

	_, err := r.Unregister(context.Background(), "Chess Club", "not_signed_up@mergington.edu")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotSignedUp))
	assert.Equal(t, "Student is not signed up for this activity", apperrors.Normalize(err).Message)
	assert.Equal(t, "unregister", apperrors.Normalize(err).Metadata["operation"])
}

func TestUnregister_RepeatIsRejected(t *testing.T) {
	r := newTestRegistry(t, nil)
	ctx := context.Background()

	_, err := r.Unregister(ctx, "Chess Club", "michael@mergington.edu")
	require.NoError(t, err)
	_, err = r.Unregister(ctx, "Chess Club", "michael@mergington.edu")
	assert.True(t, errors.Is(err, apperrors.ErrNotSignedUp))
}

// ==========================
// Availability
// ==========================

func TestAvailability_TracksMutations(t *testing.T) {
	r := newTestRegistry(t, nil)
	ctx := context.Background()

	start, err := r.Availability("Chess Club")
	require.NoError(t, err)
	assert.Equal(t, 10, start)

	_, err = r.Signup(ctx, "Chess Club", "tennis_player@mergington.edu")
	require.NoError(t, err)
	after, _ := r.Availability("Chess Club")
	assert.Equal(t, start-1, after)

	_, err = r.Unregister(ctx, "Chess Club", "michael@mergington.edu")
	require.NoError(t, err)
	after, _ = r.Availability("Chess Club")
	assert.Equal(t, start, after)
}

func TestAvailability_UnknownActivity(t *testing.T) {
	r := newTestRegistry(t, nil)
	_, err := r.Availability("Nonexistent Club")
	assert.True(t, errors.Is(err, apperrors.ErrActivityNotFound))
}

// ==========================
// Reset / concurrency
// ==========================

func TestReset_RestoresSeed(t *testing.T) {
	r := newTestRegistry(t, nil)
	_, err := r.Signup(context.Background(), "Chess Club", "new_student@mergington.edu")
	require.NoError(t, err)

	r.Reset(testSeed())

	chess, _ := r.Get("Chess Club")
	assert.Len(t, chess.Participants, 2)
}

func TestConcurrentSignups_EachEmailOnce(t *testing.T) {
	r := New([]Activity{{Name: "Gym Class", MaxParticipants: 30}})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("student%d@mergington.edu", i%25)
			_, _ = r.Signup(ctx, "Gym Class", email)
		}(i)
	}
	wg.Wait()

	gym, err := r.Get("Gym Class")
	require.NoError(t, err)
	assert.Len(t, gym.Participants, 25)
}
