package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pos_manager/internal/cache"
	"pos_manager/internal/connectivity"
	"pos_manager/internal/models"
	"pos_manager/internal/offline"
	"pos_manager/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyOrder    = errors.New("order must have at least one item")
	ErrTableOccupied = errors.New("table is already occupied")
	ErrOffline       = errors.New("operation requires connectivity")
	ErrItemNotFound  = errors.New("order item not found")
)

type LineItemInput struct {
	Name      string  `json:"name" binding:"required"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note"`
}

type CreateOrderInput struct {
	RestaurantID  string          `json:"restaurant_id" binding:"required"`
	OrderType     string          `json:"order_type"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	Items         []LineItemInput `json:"items"`
	Discount      float64         `json:"discount"`
	Notes         string          `json:"notes"`
	PaymentMethod string          `json:"payment_method"`
	GuestCount    int             `json:"guest_count"`
}

// CreateResult reports whether the order reached the gateway or was
// absorbed by the offline queue. TableUnverified marks an offline table
// open whose occupancy precondition could not be checked against the
// cached floor state.
type CreateResult struct {
	Order           *models.Order `json:"order"`
	QueuedOffline   bool          `json:"queued_offline"`
	TableUnverified bool          `json:"table_unverified,omitempty"`
}

// CachedList is a read served either live or from the read cache.
type CachedList struct {
	Payload json.RawMessage `json:"payload"`
	Cached  bool            `json:"cached"`
}

type OrderService interface {
	CreateOrder(input CreateOrderInput) (*CreateResult, error)
	OpenTable(tableID string, input CreateOrderInput) (*CreateResult, error)
	GetOrder(id string) (*models.Order, error)
	AddItem(orderID string, item LineItemInput) (*models.Order, error)
	SetItemQuantity(orderID, itemID string, quantity int) (*models.Order, error)
	RemoveItem(orderID, itemID string) (*models.Order, error)
	ApplyDiscount(orderID string, discount float64) (*models.Order, error)
	Transition(orderID string, event models.OrderEvent) (*models.Order, bool, error)
	ListOrders(restaurantID string, filter repository.OrderFilter) (*CachedList, error)
	ListTables(restaurantID string) (*CachedList, error)
	PreviewSplit(orderID string, req SplitRequest) (*SplitResult, error)
	ExecuteSplit(orderID string, req SplitRequest) (*models.Order, error)
	ReconcileTables() (int, error)
}

type orderService struct {
	orderRepo      repository.OrderRepository
	itemRepo       repository.OrderItemRepository
	tableRepo      repository.TableRepository
	restaurantRepo repository.RestaurantRepository
	cache          *cache.ReadCache
	queue          *offline.Queue
	monitor        *connectivity.Monitor
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	itemRepo repository.OrderItemRepository,
	tableRepo repository.TableRepository,
	restaurantRepo repository.RestaurantRepository,
	readCache *cache.ReadCache,
	queue *offline.Queue,
	monitor *connectivity.Monitor,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		itemRepo:       itemRepo,
		tableRepo:      tableRepo,
		restaurantRepo: restaurantRepo,
		cache:          readCache,
		queue:          queue,
		monitor:        monitor,
	}
}

func (s *orderService) CreateOrder(input CreateOrderInput) (*CreateResult, error) {
	order, err := buildOrder(input)
	if err != nil {
		return nil, err
	}

	if !s.monitor.IsOnline() {
		if err := s.enqueueOrderInsert(order); err != nil {
			return nil, err
		}
		return &CreateResult{Order: order, QueuedOffline: true}, nil
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return &CreateResult{Order: order}, nil
}

// OpenTable creates a table-bound order and marks the table occupied. The
// two writes are separate remote calls with no atomicity across them; a
// crash in between is repaired by ReconcileTables on the next start.
func (s *orderService) OpenTable(tableID string, input CreateOrderInput) (*CreateResult, error) {
	input.OrderType = string(models.TypeTable)

	if !s.monitor.IsOnline() {
		// best effort precondition: the cached floor state is the last
		// truth we saw before going offline
		cached, known := s.cachedTable(input.RestaurantID, tableID)
		if known && models.TableStatus(cached.Status) == models.TableOccupied {
			return nil, ErrTableOccupied
		}

		order, err := buildOrder(input)
		if err != nil {
			return nil, err
		}
		order.TableID = &tableID
		if known {
			order.TableNumber = cached.Number
		}
		if err := s.enqueueOrderInsert(order); err != nil {
			return nil, err
		}
		err = s.queue.Enqueue(offline.ActionUpdate, "dining_tables", map[string]interface{}{
			"id":               tableID,
			"status":           string(models.TableOccupied),
			"current_order_id": order.ID,
		})
		if err != nil {
			return nil, err
		}
		return &CreateResult{Order: order, QueuedOffline: true, TableUnverified: !known}, nil
	}

	table, err := s.tableRepo.GetByID(tableID)
	if err != nil {
		return nil, err
	}
	if models.TableStatus(table.Status) == models.TableOccupied {
		return nil, ErrTableOccupied
	}

	order, err := buildOrder(input)
	if err != nil {
		return nil, err
	}
	order.TableID = &table.ID
	order.TableNumber = table.Number

	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	if err := s.tableRepo.SetStatus(table.ID, string(models.TableOccupied), &order.ID); err != nil {
		return nil, fmt.Errorf("order %s created but table update failed: %w", order.ID, err)
	}
	return &CreateResult{Order: order}, nil
}

func (s *orderService) GetOrder(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// AddItem merges into an existing no-note line with the same name,
// otherwise appends a new line.
func (s *orderService) AddItem(orderID string, item LineItemInput) (*models.Order, error) {
	if !s.monitor.IsOnline() {
		return nil, ErrOffline
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, models.ErrInvalidTransition
	}

	quantity := item.Quantity
	if quantity < 1 {
		quantity = 1
	}

	merged := false
	if item.Note == "" {
		for i := range order.Items {
			if order.Items[i].Name == item.Name && order.Items[i].Note == "" {
				order.Items[i].Quantity += quantity
				if err := s.itemRepo.Update(&order.Items[i]); err != nil {
					return nil, err
				}
				merged = true
				break
			}
		}
	}
	if !merged {
		newItem := models.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  quantity,
			Note:      item.Note,
		}
		if err := s.itemRepo.Create(&newItem); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, newItem)
	}

	return s.persistTotals(order)
}

// SetItemQuantity updates a line's quantity, floored at 1. Use RemoveItem
// to drop a line entirely.
func (s *orderService) SetItemQuantity(orderID, itemID string, quantity int) (*models.Order, error) {
	if !s.monitor.IsOnline() {
		return nil, ErrOffline
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, models.ErrInvalidTransition
	}
	if quantity < 1 {
		quantity = 1
	}

	for i := range order.Items {
		if order.Items[i].ID == itemID {
			order.Items[i].Quantity = quantity
			if err := s.itemRepo.Update(&order.Items[i]); err != nil {
				return nil, err
			}
			return s.persistTotals(order)
		}
	}
	return nil, ErrItemNotFound
}

func (s *orderService) RemoveItem(orderID, itemID string) (*models.Order, error) {
	if !s.monitor.IsOnline() {
		return nil, ErrOffline
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, models.ErrInvalidTransition
	}

	for i := range order.Items {
		if order.Items[i].ID == itemID {
			if err := s.itemRepo.Delete(itemID); err != nil {
				return nil, err
			}
			order.Items = append(order.Items[:i], order.Items[i+1:]...)
			return s.persistTotals(order)
		}
	}
	return nil, ErrItemNotFound
}

func (s *orderService) ApplyDiscount(orderID string, discount float64) (*models.Order, error) {
	if !s.monitor.IsOnline() {
		return nil, ErrOffline
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, models.ErrInvalidTransition
	}
	if discount < 0 {
		discount = 0
	}

	order.Discount = discount
	return s.persistTotals(order)
}

// Transition applies a lifecycle event. Events against a terminal order
// return applied=false with no error: the UI may race a stale view against
// a just-completed order and that race is benign.
func (s *orderService) Transition(orderID string, event models.OrderEvent) (*models.Order, bool, error) {
	if !s.monitor.IsOnline() {
		return nil, false, ErrOffline
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, false, err
	}
	if order.IsTerminal() {
		return order, false, nil
	}

	next, err := models.NextStatus(models.OrderStatus(order.Status), event)
	if err != nil {
		return nil, false, err
	}

	order.Status = string(next)
	fields := map[string]interface{}{"status": order.Status}

	switch next {
	case models.OrderCompleted:
		if models.PaymentStatus(order.PaymentStatus) != models.PaymentPaid {
			order.PaymentStatus = string(models.PaymentPaid)
			fields["payment_status"] = order.PaymentStatus
		}
		now := time.Now()
		order.ServedAt = &now
		fields["served_at"] = order.ServedAt
	case models.OrderCancelled:
		// payment status untouched on cancel
	}

	if err := s.orderRepo.UpdateFields(order.ID, fields); err != nil {
		return nil, false, err
	}

	if (next == models.OrderCompleted || next == models.OrderCancelled) && order.TableID != nil {
		if err := s.tableRepo.SetStatus(*order.TableID, string(models.TableAvailable), nil); err != nil {
			return nil, false, fmt.Errorf("order %s is %s but table release failed: %w", order.ID, order.Status, err)
		}
	}
	return order, true, nil
}

func (s *orderService) ListOrders(restaurantID string, filter repository.OrderFilter) (*CachedList, error) {
	purpose := "orders"
	if filter.Status != "" {
		purpose += ":" + filter.Status
	}
	if filter.OrderType != "" {
		purpose += ":" + filter.OrderType
	}
	key := cache.Key(restaurantID, purpose)

	return s.cachedRead(key, func() (interface{}, error) {
		return s.orderRepo.GetByRestaurant(restaurantID, filter)
	})
}

func (s *orderService) ListTables(restaurantID string) (*CachedList, error) {
	key := cache.Key(restaurantID, "tables")
	return s.cachedRead(key, func() (interface{}, error) {
		return s.tableRepo.GetByRestaurant(restaurantID)
	})
}

func (s *orderService) PreviewSplit(orderID string, req SplitRequest) (*SplitResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	return ComputeSplit(order, req)
}

// ExecuteSplit closes the order with payment method "split". The split
// itself is a display convenience; no per-guest payment record is kept.
func (s *orderService) ExecuteSplit(orderID string, req SplitRequest) (*models.Order, error) {
	if !s.monitor.IsOnline() {
		return nil, ErrOffline
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return order, nil
	}
	if _, err := ComputeSplit(order, req); err != nil {
		return nil, err
	}

	now := time.Now()
	order.Status = string(models.OrderCompleted)
	order.PaymentMethod = "split"
	order.PaymentStatus = string(models.PaymentPaid)
	order.ServedAt = &now
	err = s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"status":         order.Status,
		"payment_method": order.PaymentMethod,
		"payment_status": order.PaymentStatus,
		"served_at":      order.ServedAt,
	})
	if err != nil {
		return nil, err
	}

	if order.TableID != nil {
		if err := s.tableRepo.SetStatus(*order.TableID, string(models.TableAvailable), nil); err != nil {
			return nil, fmt.Errorf("order %s split-closed but table release failed: %w", order.ID, err)
		}
	}
	return order, nil
}

// ReconcileTables repairs tables left occupied by an interrupted open-table
// sequence: occupied with no order reference, or referencing a missing or
// terminal order. Returns how many tables were released.
func (s *orderService) ReconcileTables() (int, error) {
	restaurants, err := s.restaurantRepo.GetAll()
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, restaurant := range restaurants {
		tables, err := s.tableRepo.GetOccupied(restaurant.ID)
		if err != nil {
			return repaired, err
		}
		for _, table := range tables {
			if table.CurrentOrderID != nil {
				order, err := s.orderRepo.GetByID(*table.CurrentOrderID)
				if err == nil && !order.IsTerminal() {
					continue
				}
			}
			if err := s.tableRepo.SetStatus(table.ID, string(models.TableAvailable), nil); err != nil {
				return repaired, err
			}
			log.Printf("Reconciled table %s: released stale occupation", table.Number)
			repaired++
		}
	}
	return repaired, nil
}

// cachedRead is the read strategy shared by list endpoints: offline serves
// the cache, online fetches and overwrites the cache, a failed fetch falls
// back to the cache when one exists.
func (s *orderService) cachedRead(key string, fetch func() (interface{}, error)) (*CachedList, error) {
	if !s.monitor.IsOnline() {
		return s.fromCache(key)
	}

	data, err := fetch()
	if err != nil {
		if list, cacheErr := s.fromCache(key); cacheErr == nil {
			return list, nil
		}
		return nil, err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(key, payload); err != nil {
		log.Printf("Warning: failed to cache %s: %v", key, err)
	}
	return &CachedList{Payload: payload, Cached: false}, nil
}

func (s *orderService) fromCache(key string) (*CachedList, error) {
	payload, found, err := s.cache.Get(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOffline
	}
	return &CachedList{Payload: payload, Cached: true}, nil
}

// cachedTable looks a table up in the cached floor payload written by
// ListTables. found=false when the cache is cold or the table is absent.
func (s *orderService) cachedTable(restaurantID, tableID string) (*models.DiningTable, bool) {
	payload, found, err := s.cache.Get(cache.Key(restaurantID, "tables"))
	if err != nil || !found {
		return nil, false
	}
	var tables []models.DiningTable
	if err := json.Unmarshal(payload, &tables); err != nil {
		return nil, false
	}
	for i := range tables {
		if tables[i].ID == tableID {
			return &tables[i], true
		}
	}
	return nil, false
}

func (s *orderService) enqueueOrderInsert(order *models.Order) error {
	if err := s.queue.Enqueue(offline.ActionInsert, "orders", orderRecord(order)); err != nil {
		return err
	}
	for i := range order.Items {
		if err := s.queue.Enqueue(offline.ActionInsert, "order_items", itemRecord(&order.Items[i])); err != nil {
			return err
		}
	}
	return nil
}

func (s *orderService) persistTotals(order *models.Order) (*models.Order, error) {
	order.Recalculate()
	err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"subtotal": order.Subtotal,
		"discount": order.Discount,
		"total":    order.Total,
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func buildOrder(input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	orderType := input.OrderType
	if orderType == "" {
		orderType = string(models.TypeDineIn)
	}

	now := time.Now()
	order := &models.Order{
		ID:            uuid.NewString(),
		RestaurantID:  input.RestaurantID,
		OrderType:     orderType,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		Discount:      input.Discount,
		Notes:         input.Notes,
		Status:        string(models.OrderPending),
		KitchenStatus: string(models.OrderPending),
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: string(models.PaymentUnpaid),
		GuestCount:    input.GuestCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if order.Discount < 0 {
		order.Discount = 0
	}

	for _, item := range input.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  quantity,
			Note:      item.Note,
		})
	}

	order.Recalculate()
	return order, nil
}

func orderRecord(o *models.Order) map[string]interface{} {
	record := map[string]interface{}{
		"id":             o.ID,
		"restaurant_id":  o.RestaurantID,
		"order_type":     o.OrderType,
		"table_number":   o.TableNumber,
		"customer_name":  o.CustomerName,
		"customer_phone": o.CustomerPhone,
		"subtotal":       o.Subtotal,
		"discount":       o.Discount,
		"total":          o.Total,
		"notes":          o.Notes,
		"status":         o.Status,
		"kitchen_status": o.KitchenStatus,
		"payment_method": o.PaymentMethod,
		"payment_status": o.PaymentStatus,
		"guest_count":    o.GuestCount,
		"created_at":     o.CreatedAt,
		"updated_at":     o.UpdatedAt,
	}
	if o.TableID != nil {
		record["table_id"] = *o.TableID
	}
	return record
}

func itemRecord(i *models.OrderItem) map[string]interface{} {
	return map[string]interface{}{
		"id":         i.ID,
		"order_id":   i.OrderID,
		"name":       i.Name,
		"unit_price": i.UnitPrice,
		"quantity":   i.Quantity,
		"note":       i.Note,
	}
}
