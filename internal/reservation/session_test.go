package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "eventify/internal/errors"
	"eventify/internal/models"
)

func scenarioMap(eventID string) *models.SeatMap {
	return &models.SeatMap{
		ID:      "map-" + eventID,
		EventID: eventID,
		Rows:    2,
		Columns: 3,
		Sections: []models.Section{
			{
				ID:   "section-1",
				Name: "Main floor",
				Rows: []string{"A"},
				Seats: []models.Seat{
					{ID: "A-1", Row: "A", Number: 1, Status: models.SeatAvailable, CategoryID: "standard"},
					{ID: "A-2", Row: "A", Number: 2, Status: models.SeatSold, CategoryID: "standard"},
					{ID: "A-3", Row: "A", Number: 3, Status: models.SeatReserved, CategoryID: "standard"},
				},
			},
			{
				ID:   "section-2",
				Name: "Balcony",
				Rows: []string{"B"},
				Seats: []models.Seat{
					{ID: "B-1", Row: "B", Number: 1, Status: models.SeatAvailable, CategoryID: "vip"},
					{ID: "B-2", Row: "B", Number: 2, Status: models.SeatAvailable, CategoryID: "standard"},
					{ID: "B-3", Row: "B", Number: 3, Status: models.SeatAvailable, CategoryID: "standard"},
				},
			},
		},
		Categories: []models.SeatCategory{
			{ID: "standard", Name: "Standard", Price: 7500, Color: "#87CEEB"},
			{ID: "vip", Name: "VIP", Price: 15000, Color: "#FFD700"},
		},
	}
}

func staticSource(m *models.SeatMap) SeatMapSource {
	return SeatMapSourceFunc(func(ctx context.Context, eventID string) (*models.SeatMap, error) {
		if m == nil || m.EventID != eventID {
			return nil, fmt.Errorf("event %s: %w", eventID, apperrors.ErrMapUnavailable)
		}
		return m.Clone(), nil
	})
}

type recordingSink struct {
	mu       sync.Mutex
	bookings []*models.Booking
	err      error
}

func (r *recordingSink) SubmitBooking(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.bookings = append(r.bookings, b)
	return nil
}

func (r *recordingSink) WithdrawBooking(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.bookings {
		if stored.ID == b.ID {
			r.bookings = append(r.bookings[:i], r.bookings[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("booking %s was never submitted", b.ID)
}

type recordingObserver struct {
	rejections []Rejection
	discarded  []OpKind
}

func (r *recordingObserver) SeatRejected(rej Rejection) { r.rejections = append(r.rejections, rej) }
func (r *recordingObserver) ResultDiscarded(_ string, op OpKind) {
	r.discarded = append(r.discarded, op)
}

func newLoadedSession(t *testing.T, opts ...Option) (*Session, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	s := NewSession("session-1", "user-1", Sources{SeatMaps: staticSource(scenarioMap("1")), Bookings: sink}, opts...)
	require.NoError(t, s.LoadSeatMap(context.Background(), "1"))
	return s, sink
}

// assertMirrored checks that seats marked selected on the map are exactly the
// seats in the selection.
func assertMirrored(t *testing.T, s *Session) {
	t.Helper()
	st := s.State()
	onMap := st.SeatMap.SeatIDsWithStatus(models.SeatSelected)
	var inSelection []string
	for _, seat := range st.Selection {
		assert.Equal(t, models.SeatSelected, seat.Status)
		inSelection = append(inSelection, seat.ID)
	}
	sort.Strings(onMap)
	sort.Strings(inSelection)
	assert.Equal(t, inSelection, onMap)
}

func seatStatus(t *testing.T, s *Session, id string) models.SeatStatus {
	t.Helper()
	seat, ok := s.State().SeatMap.FindSeat(id)
	require.True(t, ok, id)
	return seat.Status
}

func TestNewSessionInitialState(t *testing.T) {
	s := NewSession("s", "u", Sources{})
	st := s.State()

	assert.Equal(t, StepSelection, st.Step)
	assert.Nil(t, st.SeatMap)
	assert.Empty(t, st.Selection)
	assert.Nil(t, st.Booking)
	assert.False(t, st.Loading)
	assert.Equal(t, "JPY", st.Currency)
	assert.Equal(t, "s", s.ID())
	assert.Equal(t, "u", s.UserID())
}

func TestSelectSeatScenario(t *testing.T) {
	s, sink := newLoadedSession(t)

	assert.True(t, s.SelectSeat("A-1"))
	st := s.State()
	require.Len(t, st.Selection, 1)
	assert.Equal(t, "A-1", st.Selection[0].ID)
	assert.Equal(t, models.SeatSelected, seatStatus(t, s, "A-1"))

	assert.False(t, s.SelectSeat("A-2"))
	assert.Len(t, s.State().Selection, 1)
	assert.Equal(t, models.SeatSold, seatStatus(t, s, "A-2"))

	booking, err := s.CreateBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7500), booking.TotalAmount)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, StepCheckout, s.State().Step)
	require.Len(t, sink.bookings, 1)
	assert.Equal(t, booking.ID, sink.bookings[0].ID)
}

func TestSelectSeatRejections(t *testing.T) {
	obs := &recordingObserver{}
	s, _ := newLoadedSession(t, WithObserver(obs))

	require.True(t, s.SelectSeat("B-1"))
	before := s.State()

	assert.False(t, s.SelectSeat("B-1"))
	assert.False(t, s.SelectSeat("A-2"))
	assert.False(t, s.SelectSeat("A-3"))
	assert.False(t, s.SelectSeat("Z-9"))
	assert.False(t, s.DeselectSeat("B-2"))

	after := s.State()
	assert.Equal(t, before.Selection, after.Selection)
	assert.Equal(t, before.SeatMap, after.SeatMap)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, 5, s.Rejections())
	last, ok := s.LastRejection()
	require.True(t, ok)
	assert.Equal(t, "deselect", last.Op)
	assert.Equal(t, "B-2", last.SeatID)

	reasons := make([]Reason, 0, len(obs.rejections))
	for _, r := range obs.rejections {
		reasons = append(reasons, r.Reason)
		assert.Equal(t, "session-1", r.SessionID)
	}
	assert.Equal(t, []Reason{
		ReasonAlreadySelected,
		ReasonNotAvailable,
		ReasonNotAvailable,
		ReasonUnknownSeat,
		ReasonNotSelected,
	}, reasons)
	assertMirrored(t, s)
}

func TestSelectSeatWithoutSeatMap(t *testing.T) {
	s := NewSession("s", "u", Sources{})
	_, ok := s.LastRejection()
	assert.False(t, ok)
	assert.False(t, s.SelectSeat("A-1"))
	assert.Empty(t, s.State().Selection)
	assert.Equal(t, 1, s.Rejections())
}

func TestDeselectSeatIsIdempotent(t *testing.T) {
	s, _ := newLoadedSession(t)
	require.True(t, s.SelectSeat("A-1"))
	require.True(t, s.SelectSeat("B-2"))

	assert.True(t, s.DeselectSeat("A-1"))
	once := s.State()

	assert.False(t, s.DeselectSeat("A-1"))
	twice := s.State()

	assert.Equal(t, once.Selection, twice.Selection)
	assert.Equal(t, once.SeatMap, twice.SeatMap)
	assert.Equal(t, models.SeatAvailable, seatStatus(t, s, "A-1"))
	assertMirrored(t, s)
}

func TestClearSelection(t *testing.T) {
	s, _ := newLoadedSession(t)
	for _, id := range []string{"A-1", "B-1", "B-2"} {
		require.True(t, s.SelectSeat(id))
	}
	before := s.State().Version

	assert.True(t, s.ClearSelection())
	st := s.State()
	assert.Empty(t, st.Selection)
	assert.Equal(t, before+1, st.Version)
	for _, id := range []string{"A-1", "B-1", "B-2"} {
		assert.Equal(t, models.SeatAvailable, seatStatus(t, s, id))
	}
	assertMirrored(t, s)
}

func TestClearSelectionNoopWhenEmpty(t *testing.T) {
	s, _ := newLoadedSession(t)
	before := s.State()

	assert.False(t, s.ClearSelection())
	after := s.State()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.SeatMap, after.SeatMap)
}

func TestSelectionInvariantHoldsForSequences(t *testing.T) {
	s, _ := newLoadedSession(t)
	ops := []func(){
		func() { s.SelectSeat("A-1") },
		func() { s.SelectSeat("B-1") },
		func() { s.SelectSeat("A-2") },
		func() { s.DeselectSeat("A-1") },
		func() { s.SelectSeat("B-3") },
		func() { s.DeselectSeat("A-3") },
		func() { s.ClearSelection() },
		func() { s.SelectSeat("A-1") },
		func() { s.SelectSeat("A-1") },
		func() { s.DeselectSeat("B-3") },
	}
	for i, op := range ops {
		op()
		t.Run(fmt.Sprintf("after op %d", i), func(t *testing.T) {
			assertMirrored(t, s)
		})
	}
}

func TestPricingMixedCategories(t *testing.T) {
	s, _ := newLoadedSession(t)
	require.True(t, s.SelectSeat("B-1"))
	require.True(t, s.SelectSeat("B-2"))
	assert.Equal(t, int64(22500), s.State().Total)

	booking, err := s.CreateBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(22500), booking.TotalAmount)
	assert.Equal(t, []models.BookedSeat{
		{SeatID: "B-1", Price: 15000},
		{SeatID: "B-2", Price: 7500},
	}, booking.Seats)
	assert.Equal(t, "JPY", booking.Currency)
	assert.Equal(t, "1", booking.EventID)
	assert.Equal(t, "user-1", booking.UserID)
}

func TestCreateBookingEmptySelection(t *testing.T) {
	s, sink := newLoadedSession(t)

	booking, err := s.CreateBooking(context.Background())
	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrEmptySelection)

	st := s.State()
	assert.Equal(t, StepSelection, st.Step)
	assert.Equal(t, apperrors.Message(apperrors.ErrEmptySelection), st.Error)
	assert.False(t, st.Loading)
	assert.Empty(t, sink.bookings)

	s.ClearError()
	assert.Empty(t, s.State().Error)
}

func TestCreateBookingProducesNewIDs(t *testing.T) {
	ids := []string{"b-1", "b-2"}
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	s, _ := newLoadedSession(t,
		WithIDGenerator(func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}),
		WithClock(func() time.Time { return now }),
		WithCurrency("USD"),
	)
	require.True(t, s.SelectSeat("A-1"))

	first, err := s.CreateBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b-1", first.ID)
	assert.Equal(t, now, first.CreatedAt)
	assert.Equal(t, now, first.UpdatedAt)
	assert.Equal(t, "USD", first.Currency)

	require.NoError(t, s.SetStep(StepSelection))
	require.True(t, s.SelectSeat("B-1"))

	second, err := s.CreateBooking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b-2", second.ID)
	assert.Equal(t, int64(7500), first.TotalAmount)
	assert.Equal(t, int64(22500), second.TotalAmount)
}

func TestCreateBookingSinkFailure(t *testing.T) {
	s, sink := newLoadedSession(t)
	sink.err = errors.New("connection refused")
	require.True(t, s.SelectSeat("A-1"))

	_, err := s.CreateBooking(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTransientFailure)

	st := s.State()
	assert.Equal(t, StepSelection, st.Step)
	assert.Nil(t, st.Booking)
	assert.False(t, st.Loading)
	assert.Equal(t, apperrors.Message(apperrors.ErrTransientFailure), st.Error)
	require.Len(t, st.Selection, 1)
	assertMirrored(t, s)
}

func TestCreateBookingSeatsHeld(t *testing.T) {
	s, sink := newLoadedSession(t)
	sink.err = fmt.Errorf("seat A-1: %w", apperrors.ErrSeatsHeld)
	require.True(t, s.SelectSeat("A-1"))

	_, err := s.CreateBooking(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrSeatsHeld)
	assert.NotErrorIs(t, err, apperrors.ErrTransientFailure)
	assert.Len(t, s.State().Selection, 1)
}

func TestSetStep(t *testing.T) {
	s := NewSession("s", "u", Sources{})

	require.NoError(t, s.SetStep(StepConfirmation))
	assert.Equal(t, StepConfirmation, s.State().Step)

	require.NoError(t, s.SetStep(StepSelection))
	assert.Equal(t, StepSelection, s.State().Step)

	err := s.SetStep(Step("payment"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidStep)
	assert.Equal(t, StepSelection, s.State().Step)
}

func TestLoadSeatMapUnavailable(t *testing.T) {
	s, _ := newLoadedSession(t)
	require.True(t, s.SelectSeat("A-1"))
	before := s.State()

	err := s.LoadSeatMap(context.Background(), "404")
	assert.ErrorIs(t, err, apperrors.ErrMapUnavailable)

	after := s.State()
	assert.Equal(t, before.SeatMap, after.SeatMap)
	assert.Equal(t, before.Selection, after.Selection)
	assert.Equal(t, apperrors.Message(apperrors.ErrMapUnavailable), after.Error)
	assert.False(t, after.Loading)
	assertMirrored(t, s)
}

func TestLoadSeatMapTransientFailure(t *testing.T) {
	src := SeatMapSourceFunc(func(ctx context.Context, eventID string) (*models.SeatMap, error) {
		return nil, context.DeadlineExceeded
	})
	s := NewSession("s", "u", Sources{SeatMaps: src})

	err := s.LoadSeatMap(context.Background(), "1")
	assert.ErrorIs(t, err, apperrors.ErrTransientFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, apperrors.Message(apperrors.ErrTransientFailure), s.State().Error)
}

func TestLoadSeatMapRejectsInvalidMap(t *testing.T) {
	bad := scenarioMap("1")
	bad.Sections[0].Seats[0].CategoryID = "missing"
	s := NewSession("s", "u", Sources{SeatMaps: staticSource(bad)})

	err := s.LoadSeatMap(context.Background(), "1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSeatMap)
	assert.Nil(t, s.State().SeatMap)
}

func TestLoadSeatMapSupersedesWorkflow(t *testing.T) {
	s, _ := newLoadedSession(t)
	require.True(t, s.SelectSeat("A-1"))
	_, err := s.CreateBooking(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.LoadSeatMap(context.Background(), "1"))
	st := s.State()
	assert.Empty(t, st.Selection)
	assert.Nil(t, st.Booking)
	assert.Equal(t, StepSelection, st.Step)
	assert.Equal(t, models.SeatAvailable, seatStatus(t, s, "A-1"))
}

func TestStaleSeatMapResultIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	src := SeatMapSourceFunc(func(ctx context.Context, eventID string) (*models.SeatMap, error) {
		if eventID == "slow" {
			close(started)
			<-release
		}
		return scenarioMap(eventID), nil
	})
	obs := &recordingObserver{}
	s := NewSession("s", "u", Sources{SeatMaps: src}, WithObserver(obs))

	done := make(chan error, 1)
	go func() { done <- s.LoadSeatMap(context.Background(), "slow") }()
	<-started
	assert.True(t, s.State().Loading)

	require.NoError(t, s.LoadSeatMap(context.Background(), "fast"))
	close(release)

	err := <-done
	assert.ErrorIs(t, err, apperrors.ErrSuperseded)

	st := s.State()
	assert.Equal(t, "fast", st.SeatMap.EventID)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, 1, s.Discarded())
	assert.Equal(t, []OpKind{OpSeatMap}, obs.discarded)
}

type blockingSink struct {
	recordingSink
	started chan struct{}
	release chan struct{}
}

func (b *blockingSink) SubmitBooking(ctx context.Context, booking *models.Booking) error {
	if err := b.recordingSink.SubmitBooking(ctx, booking); err != nil {
		return err
	}
	close(b.started)
	<-b.release
	return nil
}

func TestBookingInFlightDiscardedWhenMapReloaded(t *testing.T) {
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	s := NewSession("s", "u", Sources{SeatMaps: staticSource(scenarioMap("1")), Bookings: sink})
	require.NoError(t, s.LoadSeatMap(context.Background(), "1"))
	require.True(t, s.SelectSeat("A-1"))

	done := make(chan error, 1)
	go func() {
		_, err := s.CreateBooking(context.Background())
		done <- err
	}()
	<-sink.started

	sink.mu.Lock()
	require.Len(t, sink.bookings, 1)
	sink.mu.Unlock()

	require.NoError(t, s.LoadSeatMap(context.Background(), "1"))
	close(sink.release)

	assert.ErrorIs(t, <-done, apperrors.ErrSuperseded)
	st := s.State()
	assert.Nil(t, st.Booking)
	assert.Equal(t, StepSelection, st.Step)

	// The discarded booking is taken back from the sink
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Empty(t, sink.bookings)
}

type fakeHistory struct {
	bookings []models.Booking
	err      error
}

func (f fakeHistory) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return f.bookings, f.err
}

func TestFetchUserBookings(t *testing.T) {
	t0 := time.Date(2024, 4, 20, 14, 15, 0, 0, time.UTC)
	history := fakeHistory{bookings: []models.Booking{
		{ID: "booking-2", Status: models.BookingConfirmed, CreatedAt: t0},
		{ID: "booking-3", Status: models.BookingPending, CreatedAt: t0.Add(48 * time.Hour)},
		{ID: "booking-1", Status: models.BookingRefunded, CreatedAt: t0.Add(24 * time.Hour)},
	}}
	s, _ := newLoadedSession(t)
	s.history = history
	require.True(t, s.SelectSeat("A-1"))
	before := s.State()

	list, err := s.FetchUserBookings(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "booking-1", list[0].ID)
	assert.Equal(t, "booking-2", list[1].ID)

	after := s.State()
	assert.Len(t, after.Bookings, 2)
	assert.Equal(t, before.Selection, after.Selection)
	assert.Equal(t, before.SeatMap, after.SeatMap)
}

func TestFetchUserBookingsFailure(t *testing.T) {
	s := NewSession("s", "u", Sources{History: fakeHistory{err: errors.New("timeout")}})

	_, err := s.FetchUserBookings(context.Background(), "u")
	assert.ErrorIs(t, err, apperrors.ErrTransientFailure)
	assert.NotEmpty(t, s.State().Error)
	assert.False(t, s.State().Loading)
}

func TestConcurrentSelectionKeepsInvariant(t *testing.T) {
	s, _ := newLoadedSession(t)
	ids := []string{"A-1", "B-1", "B-2", "B-3"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ids[i%len(ids)]
			if i%3 == 0 {
				s.DeselectSeat(id)
			} else {
				s.SelectSeat(id)
			}
		}(i)
	}
	wg.Wait()
	assertMirrored(t, s)
}
