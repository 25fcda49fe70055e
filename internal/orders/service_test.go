package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/metrics"
	"github.com/angelmondragon/cafehop-backend/pkg/money"
	"github.com/angelmondragon/cafehop-backend/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHarness struct {
	svc   *service
	clock *testClock
	reg   *prometheus.Registry
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func newTestService(t *testing.T) (*service, *testClock) {
	h := newTestHarness(t)
	return h.svc, h.clock
}

func newTestHarness(t *testing.T) testHarness {
	t.Helper()
	clock := &testClock{now: fixedNow}
	reg := prometheus.NewRegistry()
	svc, err := NewService(NewRepository(newTestDB(t)), ServiceConfig{
		TaxRate:          tenPercent(),
		MaxPickupMinutes: 180,
		Now:              clock.Now,
		Metrics:          metrics.NewOrderMetrics(reg),
	})
	require.NoError(t, err)
	impl := svc.(*service)
	seq := 0
	impl.generateID = func() string {
		seq++
		return fmt.Sprintf("ord_%03d", seq)
	}
	return testHarness{svc: impl, clock: clock, reg: reg}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, pair := range metric.GetLabel() {
		if want, ok := labels[pair.GetName()]; ok {
			if want != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

func espressoLines() []LineSnapshot {
	return []LineSnapshot{{ItemID: "espresso", Name: "Espresso", UnitPrice: money.MustParse("5.00"), Quantity: 2}}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil, ServiceConfig{})
	require.Error(t, err)
}

func TestServicePlacePersistsOrder(t *testing.T) {
	h := newTestHarness(t)
	svc := h.svc
	ctx := context.Background()

	placed, err := svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines(), PickupOffsetMinutes: 15})
	require.NoError(t, err)
	assert.Equal(t, "ord_001", placed.ID)
	assert.Equal(t, enums.OrderStatusNew, placed.Status)
	assert.Equal(t, money.MustParse("10.00"), placed.Subtotal)
	assert.Equal(t, money.MustParse("1.00"), placed.Tax)
	assert.Equal(t, money.MustParse("11.00"), placed.Total)
	assert.True(t, placed.PickupAt().Equal(fixedNow.Add(15*time.Minute)))

	got, err := svc.Get(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.Total, got.Total)
	assert.Equal(t, placed.Lines, got.Lines)

	assert.Equal(t, float64(1), counterValue(t, h.reg, "orders_placed_total", map[string]string{"cafe": "cafe-1"}))
}

func TestServicePlaceValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Place(ctx, PlaceInput{CafeID: "cafe-1"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidOrder))

	_, err = svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines(), PickupOffsetMinutes: 181})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	long := strings.Repeat("a", maxNoteLength+1)
	_, err = svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines(), Note: &long})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceAdvanceWalksLifecycle(t *testing.T) {
	h := newTestHarness(t)
	svc, clock := h.svc, h.clock
	ctx := context.Background()

	placed, err := svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines()})
	require.NoError(t, err)

	expected := []enums.OrderStatus{enums.OrderStatusPreparing, enums.OrderStatusReady, enums.OrderStatusCompleted}
	for _, status := range expected {
		clock.now = clock.now.Add(time.Minute)
		next, err := svc.Advance(ctx, placed.ID)
		require.NoError(t, err)
		assert.Equal(t, status, next.Status)
	}

	_, err = svc.Advance(ctx, placed.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition))

	got, err := svc.Get(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, got.Status)
	assert.Equal(t, float64(1), counterValue(t, h.reg, "order_transitions_total", map[string]string{"from": "ready", "to": "completed"}))
}

func TestServiceUpdateStatusRejectsIllegalEdges(t *testing.T) {
	h := newTestHarness(t)
	svc := h.svc
	ctx := context.Background()

	placed, err := svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines()})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, placed.ID, enums.OrderStatusCompleted)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition))

	_, err = svc.UpdateStatus(ctx, placed.ID, enums.OrderStatus("shipped"))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	got, err := svc.Get(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusNew, got.Status)
	assert.Equal(t, float64(1), counterValue(t, h.reg, "order_transitions_rejected_total", map[string]string{"from": "new", "to": "completed"}))
}

func TestServiceCancel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	placed, err := svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines()})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, placed.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIllegalTransition))
}

func TestServiceGetMissing(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "ord_missing")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(context.Background(), " ")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceListByCafePaginates(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		clock.now = fixedNow.Add(time.Duration(i) * time.Minute)
		_, err := svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines()})
		require.NoError(t, err)
	}

	var seen []string
	cursor := ""
	for page := 0; page < 5; page++ {
		result, err := svc.ListByCafe(ctx, ListInput{CafeID: "cafe-1", Params: pagination.Params{Limit: 2, Cursor: cursor}})
		require.NoError(t, err)
		for _, order := range result.Orders {
			seen = append(seen, order.ID)
		}
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	assert.Equal(t, []string{"ord_005", "ord_004", "ord_003", "ord_002", "ord_001"}, seen)
}

func TestServiceListByCafeFiltersStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines()})
	require.NoError(t, err)
	_, err = svc.Place(ctx, PlaceInput{CafeID: "cafe-1", Lines: espressoLines()})
	require.NoError(t, err)
	_, err = svc.Advance(ctx, first.ID)
	require.NoError(t, err)

	result, err := svc.ListByCafe(ctx, ListInput{CafeID: "cafe-1", Statuses: []enums.OrderStatus{enums.OrderStatusPreparing}})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, first.ID, result.Orders[0].ID)
	assert.Empty(t, result.NextCursor)

	_, err = svc.ListByCafe(ctx, ListInput{CafeID: "cafe-1", Params: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.ListByCafe(ctx, ListInput{CafeID: "cafe-1", Statuses: []enums.OrderStatus{"bogus"}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceListBySessionSplitsCurrentAndPast(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	place := func(cafeID, sessionID string) Order {
		clock.now = clock.now.Add(time.Minute)
		order, err := svc.Place(ctx, PlaceInput{CafeID: cafeID, SessionID: sessionID, Lines: espressoLines()})
		require.NoError(t, err)
		return order
	}
	waiting := place("cafe-1", "sess-1")
	picked := place("cafe-2", "sess-1")
	dropped := place("cafe-1", "sess-1")
	place("cafe-1", "sess-other")

	for i := 0; i < 3; i++ {
		_, err := svc.Advance(ctx, picked.ID)
		require.NoError(t, err)
	}
	_, err := svc.Cancel(ctx, dropped.ID)
	require.NoError(t, err)

	ids := func(result ListResult) []string {
		out := make([]string, 0, len(result.Orders))
		for _, order := range result.Orders {
			assert.Equal(t, "sess-1", order.SessionID)
			out = append(out, order.ID)
		}
		return out
	}

	current, err := svc.ListBySession(ctx, SessionListInput{SessionID: "sess-1", Scope: HistoryScopeCurrent})
	require.NoError(t, err)
	assert.Equal(t, []string{waiting.ID}, ids(current))

	past, err := svc.ListBySession(ctx, SessionListInput{SessionID: "sess-1", Scope: HistoryScopePast})
	require.NoError(t, err)
	assert.Equal(t, []string{dropped.ID, picked.ID}, ids(past))

	all, err := svc.ListBySession(ctx, SessionListInput{SessionID: " sess-1 "})
	require.NoError(t, err)
	assert.Equal(t, []string{dropped.ID, picked.ID, waiting.ID}, ids(all))
}

func TestServiceListBySessionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ListBySession(ctx, SessionListInput{SessionID: " "})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.ListBySession(ctx, SessionListInput{SessionID: "sess-1", Scope: "upcoming"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestParseHistoryScope(t *testing.T) {
	for raw, want := range map[string]HistoryScope{"": HistoryScopeAll, "all": HistoryScopeAll, "Current": HistoryScopeCurrent, " past ": HistoryScopePast} {
		got, err := ParseHistoryScope(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	assert.Nil(t, HistoryScopeAll.Statuses())
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusNew, enums.OrderStatusPreparing, enums.OrderStatusReady}, HistoryScopeCurrent.Statuses())
	assert.Equal(t, []enums.OrderStatus{enums.OrderStatusCompleted, enums.OrderStatusCancelled}, HistoryScopePast.Statuses())
}

func TestNewOrderResponseDerivedFields(t *testing.T) {
	order := newTestOrder(t, enums.OrderStatusReady)
	order.PickupOffsetMinutes = 10

	resp := NewOrderResponse(order)
	require.NotNil(t, resp.NextStatus)
	assert.Equal(t, "completed", *resp.NextStatus)
	assert.Equal(t, 2, resp.ItemCount)
	assert.True(t, resp.PickupAt.Equal(fixedNow.Add(10*time.Minute)))
	assert.Equal(t, "0.1", resp.TaxRate)

	order.Status = enums.OrderStatusCompleted
	assert.Nil(t, NewOrderResponse(order).NextStatus)
}
