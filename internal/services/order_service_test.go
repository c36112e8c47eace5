package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pos_manager/internal/cache"
	"pos_manager/internal/connectivity"
	"pos_manager/internal/gateway"
	"pos_manager/internal/models"
	"pos_manager/internal/offline"
	"pos_manager/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- in-memory fakes ---

type fakeOrderRepo struct {
	orders   map[string]*models.Order
	failList bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*models.Order)}
}

func (r *fakeOrderRepo) Create(o *models.Order) error {
	clone := *o
	clone.Items = append([]models.OrderItem(nil), o.Items...)
	r.orders[o.ID] = &clone
	return nil
}

func (r *fakeOrderRepo) GetByID(id string) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *o
	clone.Items = append([]models.OrderItem(nil), o.Items...)
	return &clone, nil
}

func (r *fakeOrderRepo) GetByRestaurant(restaurantID string, filter repository.OrderFilter) ([]models.Order, error) {
	if r.failList {
		return nil, errors.New("connection refused")
	}
	var out []models.Order
	for _, o := range r.orders {
		if o.RestaurantID != restaurantID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.OrderType != "" && o.OrderType != filter.OrderType {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) Update(o *models.Order) error {
	return r.Create(o)
}

func (r *fakeOrderRepo) UpdateFields(id string, fields map[string]interface{}) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			o.Status = v.(string)
		case "payment_status":
			o.PaymentStatus = v.(string)
		case "payment_method":
			o.PaymentMethod = v.(string)
		case "served_at":
			o.ServedAt = v.(*time.Time)
		case "subtotal":
			o.Subtotal = v.(float64)
		case "discount":
			o.Discount = v.(float64)
		case "total":
			o.Total = v.(float64)
		}
	}
	return nil
}

type fakeItemRepo struct {
	orders *fakeOrderRepo
}

func (r *fakeItemRepo) Create(item *models.OrderItem) error {
	o, ok := r.orders.orders[item.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Items = append(o.Items, *item)
	return nil
}

func (r *fakeItemRepo) GetByOrder(orderID string) ([]models.OrderItem, error) {
	o, ok := r.orders.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return append([]models.OrderItem(nil), o.Items...), nil
}

func (r *fakeItemRepo) Update(item *models.OrderItem) error {
	o, ok := r.orders.orders[item.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range o.Items {
		if o.Items[i].ID == item.ID {
			o.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeItemRepo) Delete(id string) error {
	for _, o := range r.orders.orders {
		for i := range o.Items {
			if o.Items[i].ID == id {
				o.Items = append(o.Items[:i], o.Items[i+1:]...)
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeTableRepo struct {
	tables   map[string]*models.DiningTable
	failList bool
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{tables: make(map[string]*models.DiningTable)}
}

func (r *fakeTableRepo) Create(t *models.DiningTable) error {
	clone := *t
	r.tables[t.ID] = &clone
	return nil
}

func (r *fakeTableRepo) GetByID(id string) (*models.DiningTable, error) {
	t, ok := r.tables[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTableRepo) GetByRestaurant(restaurantID string) ([]models.DiningTable, error) {
	if r.failList {
		return nil, errors.New("connection refused")
	}
	var out []models.DiningTable
	for _, t := range r.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTableRepo) GetOccupied(restaurantID string) ([]models.DiningTable, error) {
	var out []models.DiningTable
	for _, t := range r.tables {
		if t.RestaurantID == restaurantID && t.Status == string(models.TableOccupied) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTableRepo) Update(t *models.DiningTable) error {
	return r.Create(t)
}

func (r *fakeTableRepo) SetStatus(id, status string, currentOrderID *string) error {
	t, ok := r.tables[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	t.CurrentOrderID = currentOrderID
	return nil
}

type fakeRestaurantRepo struct {
	restaurants []models.Restaurant
}

func (r *fakeRestaurantRepo) Create(rest *models.Restaurant) error {
	r.restaurants = append(r.restaurants, *rest)
	return nil
}

func (r *fakeRestaurantRepo) GetByID(id string) (*models.Restaurant, error) {
	for i := range r.restaurants {
		if r.restaurants[i].ID == id {
			return &r.restaurants[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRestaurantRepo) GetAll() ([]models.Restaurant, error) {
	return append([]models.Restaurant(nil), r.restaurants...), nil
}

func (r *fakeRestaurantRepo) Update(*models.Restaurant) error { return nil }

type remoteOp struct {
	kind       string
	collection string
	record     gateway.Record
}

type fakeGateway struct {
	ops []remoteOp
}

func (f *fakeGateway) Insert(ctx context.Context, collection string, record gateway.Record) (gateway.Record, error) {
	f.ops = append(f.ops, remoteOp{kind: "insert", collection: collection, record: record})
	return record, nil
}

func (f *fakeGateway) Update(ctx context.Context, collection string, partial gateway.Record, id string) (gateway.Record, error) {
	f.ops = append(f.ops, remoteOp{kind: "update", collection: collection, record: partial})
	return partial, nil
}

func (f *fakeGateway) Select(ctx context.Context, collection string, filters map[string]interface{}, ordering string, limit int) ([]gateway.Record, error) {
	return nil, nil
}

func (f *fakeGateway) Subscribe(ctx context.Context, collection string, onChange func(gateway.ChangeEvent)) error {
	return nil
}

func (f *fakeGateway) Ping(ctx context.Context) error { return nil }

// --- fixture ---

type fixture struct {
	svc         OrderService
	orders      *fakeOrderRepo
	tables      *fakeTableRepo
	restaurants *fakeRestaurantRepo
	queue       *offline.Queue
	gw          *fakeGateway
	monitor     *connectivity.Monitor
}

func newFixture() *fixture {
	orders := newFakeOrderRepo()
	tables := newFakeTableRepo()
	restaurants := &fakeRestaurantRepo{}
	gw := &fakeGateway{}
	monitor := connectivity.NewMonitor(true)
	queue := offline.NewQueue(offline.NewMemoryStore(), gw, 5)
	readCache := cache.NewReadCache(cache.NewMemoryStore(), 0)

	// same wiring as cmd/server: reconnect triggers a flush
	monitor.OnTransition(func(online bool) {
		if online {
			queue.Flush(context.Background())
		}
	})

	svc := NewOrderService(orders, &fakeItemRepo{orders: orders}, tables, restaurants, readCache, queue, monitor)
	return &fixture{svc: svc, orders: orders, tables: tables, restaurants: restaurants, queue: queue, gw: gw, monitor: monitor}
}

func (f *fixture) addTable(id, restaurantID, number string) {
	f.tables.Create(&models.DiningTable{
		ID:           id,
		RestaurantID: restaurantID,
		Number:       number,
		Capacity:     4,
		Shape:        string(models.ShapeSquare),
		Status:       string(models.TableAvailable),
	})
}

func tagineAndJuice() []LineItemInput {
	return []LineItemInput{
		{Name: "Tagine", UnitPrice: 80, Quantity: 1},
		{Name: "Juice", UnitPrice: 20, Quantity: 2},
	}
}

// --- tests ---

func TestOpenTableAndCloseWithPayment(t *testing.T) {
	f := newFixture()
	f.addTable("t1", "r1", "4")

	result, err := f.svc.OpenTable("t1", CreateOrderInput{
		RestaurantID: "r1",
		Items:        tagineAndJuice(),
		Discount:     20,
		GuestCount:   2,
	})
	require.NoError(t, err)
	require.False(t, result.QueuedOffline)

	order := result.Order
	assert.Equal(t, string(models.OrderPending), order.Status)
	assert.Equal(t, string(models.OrderPending), order.KitchenStatus)
	assert.Equal(t, 120.0, order.Subtotal)
	assert.Equal(t, 100.0, order.Total)
	assert.Equal(t, "4", order.TableNumber)

	table, err := f.tables.GetByID("t1")
	require.NoError(t, err)
	assert.Equal(t, string(models.TableOccupied), table.Status)
	require.NotNil(t, table.CurrentOrderID)
	assert.Equal(t, order.ID, *table.CurrentOrderID)

	for _, event := range []models.OrderEvent{models.EventStartPreparing, models.EventMarkReady, models.EventComplete} {
		_, applied, err := f.svc.Transition(order.ID, event)
		require.NoError(t, err)
		require.True(t, applied)
	}

	closed, err := f.svc.GetOrder(order.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.OrderCompleted), closed.Status)
	assert.Equal(t, string(models.PaymentPaid), closed.PaymentStatus)
	require.NotNil(t, closed.ServedAt)

	table, err = f.tables.GetByID("t1")
	require.NoError(t, err)
	assert.Equal(t, string(models.TableAvailable), table.Status)
	assert.Nil(t, table.CurrentOrderID)
}

func TestOfflineOrderCreationAndFlush(t *testing.T) {
	f := newFixture()
	f.monitor.SetOnline(false)

	result, err := f.svc.CreateOrder(CreateOrderInput{
		RestaurantID: "r1",
		OrderType:    string(models.TypePickup),
		Items:        []LineItemInput{{Name: "Harira", UnitPrice: 15, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.True(t, result.QueuedOffline)

	// no remote call attempted while offline
	assert.Empty(t, f.gw.ops)
	length, err := f.queue.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, length) // order insert + item insert

	// reconnect triggers the flush
	f.monitor.SetOnline(true)

	length, err = f.queue.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, length)

	require.Len(t, f.gw.ops, 2)
	assert.Equal(t, "insert", f.gw.ops[0].kind)
	assert.Equal(t, "orders", f.gw.ops[0].collection)
	assert.Equal(t, result.Order.ID, f.gw.ops[0].record["id"])
	assert.Equal(t, "insert", f.gw.ops[1].kind)
	assert.Equal(t, "order_items", f.gw.ops[1].collection)
}

func TestOpenTableOfflineQueuesTableUpdate(t *testing.T) {
	f := newFixture()
	f.addTable("t1", "r1", "1")
	f.monitor.SetOnline(false)

	result, err := f.svc.OpenTable("t1", CreateOrderInput{
		RestaurantID: "r1",
		Items:        []LineItemInput{{Name: "Couscous", UnitPrice: 60}},
	})
	require.NoError(t, err)
	assert.True(t, result.QueuedOffline)
	// cache was never warmed, so the occupancy check could not run
	assert.True(t, result.TableUnverified)

	f.monitor.SetOnline(true)

	require.Len(t, f.gw.ops, 3)
	assert.Equal(t, "orders", f.gw.ops[0].collection)
	assert.Equal(t, "order_items", f.gw.ops[1].collection)
	assert.Equal(t, "update", f.gw.ops[2].kind)
	assert.Equal(t, "dining_tables", f.gw.ops[2].collection)
	assert.Equal(t, string(models.TableOccupied), f.gw.ops[2].record["status"])
}

func TestOpenTableOfflineUsesCachedFloorState(t *testing.T) {
	f := newFixture()
	f.addTable("t1", "r1", "7")

	// warm the cache while online, then drop the connection
	_, err := f.svc.ListTables("r1")
	require.NoError(t, err)
	f.monitor.SetOnline(false)

	result, err := f.svc.OpenTable("t1", CreateOrderInput{
		RestaurantID: "r1",
		Items:        []LineItemInput{{Name: "Couscous", UnitPrice: 60}},
	})
	require.NoError(t, err)
	assert.True(t, result.QueuedOffline)
	assert.False(t, result.TableUnverified)
	assert.Equal(t, "7", result.Order.TableNumber)
}

func TestOpenTableOfflineRejectsCachedOccupied(t *testing.T) {
	f := newFixture()
	f.addTable("t1", "r1", "7")

	_, err := f.svc.OpenTable("t1", CreateOrderInput{RestaurantID: "r1", Items: tagineAndJuice()})
	require.NoError(t, err)

	// cache the occupied floor state, then go offline
	_, err = f.svc.ListTables("r1")
	require.NoError(t, err)
	f.monitor.SetOnline(false)

	_, err = f.svc.OpenTable("t1", CreateOrderInput{RestaurantID: "r1", Items: tagineAndJuice()})
	assert.ErrorIs(t, err, ErrTableOccupied)

	// nothing queued for the rejected open beyond the first order's actions
	pending, err := f.queue.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOpenTableRejectsOccupied(t *testing.T) {
	f := newFixture()
	f.addTable("t1", "r1", "1")

	_, err := f.svc.OpenTable("t1", CreateOrderInput{RestaurantID: "r1", Items: tagineAndJuice()})
	require.NoError(t, err)

	_, err = f.svc.OpenTable("t1", CreateOrderInput{RestaurantID: "r1", Items: tagineAndJuice()})
	assert.ErrorIs(t, err, ErrTableOccupied)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateOrder(CreateOrderInput{RestaurantID: "r1"})
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestAddItemMergesSameNameWithoutNote(t *testing.T) {
	f := newFixture()
	result, err := f.svc.CreateOrder(CreateOrderInput{
		RestaurantID: "r1",
		Items:        []LineItemInput{{Name: "Juice", UnitPrice: 20}},
	})
	require.NoError(t, err)

	order, err := f.svc.AddItem(result.Order.ID, LineItemInput{Name: "Juice", UnitPrice: 20})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, 40.0, order.Total)

	// a note makes it a distinct line
	order, err = f.svc.AddItem(result.Order.ID, LineItemInput{Name: "Juice", UnitPrice: 20, Note: "no ice"})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 60.0, order.Total)
}

func TestSetItemQuantityFloorsAtOne(t *testing.T) {
	f := newFixture()
	result, err := f.svc.CreateOrder(CreateOrderInput{
		RestaurantID: "r1",
		Items:        []LineItemInput{{Name: "Tagine", UnitPrice: 80, Quantity: 3}},
	})
	require.NoError(t, err)
	itemID := result.Order.Items[0].ID

	order, err := f.svc.SetItemQuantity(result.Order.ID, itemID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, 80.0, order.Total)
}

func TestRemoveItemRecomputesTotals(t *testing.T) {
	f := newFixture()
	result, err := f.svc.CreateOrder(CreateOrderInput{
		RestaurantID: "r1",
		Items:        tagineAndJuice(),
	})
	require.NoError(t, err)

	order, err := f.svc.RemoveItem(result.Order.ID, result.Order.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 40.0, order.Subtotal)
	assert.Equal(t, 40.0, order.Total)
}

func TestApplyDiscountNeverGoesNegative(t *testing.T) {
	f := newFixture()
	result, err := f.svc.CreateOrder(CreateOrderInput{
		RestaurantID: "r1",
		Items:        []LineItemInput{{Name: "Mint Tea", UnitPrice: 10}},
	})
	require.NoError(t, err)

	order, err := f.svc.ApplyDiscount(result.Order.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.Total)

	order, err = f.svc.ApplyDiscount(result.Order.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.Discount)
	assert.Equal(t, 10.0, order.Total)
}

func TestTransitionOnTerminalOrderIsNoOp(t *testing.T) {
	f := newFixture()
	result, err := f.svc.CreateOrder(CreateOrderInput{
		RestaurantID: "r1",
		Items:        []LineItemInput{{Name: "Harira", UnitPrice: 15}},
	})
	require.NoError(t, err)

	_, applied, err := f.svc.Transition(result.Order.ID, models.EventCancel)
	require.NoError(t, err)
	require.True(t, applied)

	// a stale view retries the cancel: benign, nothing changes
	order, applied, err := f.svc.Transition(result.Order.ID, models.EventCancel)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, string(models.OrderCancelled), order.Status)
	assert.Equal(t, string(models.PaymentUnpaid), order.PaymentStatus)
}

func TestTransitionRejectsSkippedStates(t *testing.T) {
	f := newFixture()
	result, err := f.svc.CreateOrder(CreateOrderInput{
		RestaurantID: "r1",
		Items:        []LineItemInput{{Name: "Harira", UnitPrice: 15}},
	})
	require.NoError(t, err)

	_, _, err = f.svc.Transition(result.Order.ID, models.EventComplete)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCancelReleasesTableKeepsPaymentUntouched(t *testing.T) {
	f := newFixture()
	f.addTable("t1", "r1", "1")

	result, err := f.svc.OpenTable("t1", CreateOrderInput{RestaurantID: "r1", Items: tagineAndJuice()})
	require.NoError(t, err)

	order, applied, err := f.svc.Transition(result.Order.ID, models.EventCancel)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, string(models.PaymentUnpaid), order.PaymentStatus)

	table, err := f.tables.GetByID("t1")
	require.NoError(t, err)
	assert.Equal(t, string(models.TableAvailable), table.Status)
	assert.Nil(t, table.CurrentOrderID)
}

func TestListTablesFallsBackToCache(t *testing.T) {
	f := newFixture()
	f.addTable("t1", "r1", "1")

	live, err := f.svc.ListTables("r1")
	require.NoError(t, err)
	assert.False(t, live.Cached)

	// network read fails: serve last known-good payload
	f.tables.failList = true
	fallback, err := f.svc.ListTables("r1")
	require.NoError(t, err)
	assert.True(t, fallback.Cached)
	assert.JSONEq(t, string(live.Payload), string(fallback.Payload))

	// offline skips the network entirely
	f.monitor.SetOnline(false)
	stale, err := f.svc.ListTables("r1")
	require.NoError(t, err)
	assert.True(t, stale.Cached)
	assert.JSONEq(t, string(live.Payload), string(stale.Payload))
}

func TestListTablesOfflineWithoutCache(t *testing.T) {
	f := newFixture()
	f.monitor.SetOnline(false)

	_, err := f.svc.ListTables("r1")
	assert.ErrorIs(t, err, ErrOffline)
}

func TestExecuteSplitClosesOrderAndReleasesTable(t *testing.T) {
	f := newFixture()
	f.addTable("t1", "r1", "1")

	result, err := f.svc.OpenTable("t1", CreateOrderInput{
		RestaurantID: "r1",
		Items:        tagineAndJuice(),
		GuestCount:   3,
	})
	require.NoError(t, err)

	order, err := f.svc.ExecuteSplit(result.Order.ID, SplitRequest{Mode: SplitEqual, Guests: 3})
	require.NoError(t, err)
	assert.Equal(t, string(models.OrderCompleted), order.Status)
	assert.Equal(t, "split", order.PaymentMethod)
	assert.Equal(t, string(models.PaymentPaid), order.PaymentStatus)

	table, err := f.tables.GetByID("t1")
	require.NoError(t, err)
	assert.Equal(t, string(models.TableAvailable), table.Status)
}

func TestReconcileTablesRepairsStaleOccupation(t *testing.T) {
	f := newFixture()
	f.restaurants.Create(&models.Restaurant{ID: "r1", Name: "Demo"})
	f.addTable("t1", "r1", "1")
	f.addTable("t2", "r1", "2")
	f.addTable("t3", "r1", "3")

	// t1: healthy occupation
	active, err := f.svc.OpenTable("t1", CreateOrderInput{RestaurantID: "r1", Items: tagineAndJuice()})
	require.NoError(t, err)

	// t2: references an order that no longer exists
	missing := "gone"
	f.tables.SetStatus("t2", string(models.TableOccupied), &missing)

	// t3: occupied with no order reference at all
	f.tables.SetStatus("t3", string(models.TableOccupied), nil)

	repaired, err := f.svc.ReconcileTables()
	require.NoError(t, err)
	assert.Equal(t, 2, repaired)

	t1, _ := f.tables.GetByID("t1")
	assert.Equal(t, string(models.TableOccupied), t1.Status)
	require.NotNil(t, t1.CurrentOrderID)
	assert.Equal(t, active.Order.ID, *t1.CurrentOrderID)

	t2, _ := f.tables.GetByID("t2")
	assert.Equal(t, string(models.TableAvailable), t2.Status)
	t3, _ := f.tables.GetByID("t3")
	assert.Equal(t, string(models.TableAvailable), t3.Status)
}

func TestMutationsRequireConnectivity(t *testing.T) {
	f := newFixture()
	result, err := f.svc.CreateOrder(CreateOrderInput{
		RestaurantID: "r1",
		Items:        []LineItemInput{{Name: "Harira", UnitPrice: 15}},
	})
	require.NoError(t, err)

	f.monitor.SetOnline(false)

	_, err = f.svc.AddItem(result.Order.ID, LineItemInput{Name: "Bread", UnitPrice: 5})
	assert.ErrorIs(t, err, ErrOffline)
	_, _, err = f.svc.Transition(result.Order.ID, models.EventStartPreparing)
	assert.ErrorIs(t, err, ErrOffline)
}
