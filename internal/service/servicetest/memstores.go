// Package servicetest содержит in-memory реализации хранилищ для тестов
// сервисного слоя и HTTP-хендлеров. Семантика повторяет SQL-репозитории:
// Get* возвращают (nil, nil) для отсутствующих сущностей, переходы статусов
// обусловлены текущим значением и возвращают ошибку Conflict при гонке,
// транзакция либо применяется целиком, либо откатывается.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/slotswap/swap_backend/internal/apperr"
	"github.com/slotswap/swap_backend/internal/model"
	"github.com/slotswap/swap_backend/internal/service"
)

type DB struct {
	mu    sync.Mutex
	txMu  sync.Mutex // сериализует транзакции целиком
	users map[int64]model.User
	slots map[int64]model.Slot
	swaps map[int64]model.SwapRequest

	nextUserID int64
	nextSlotID int64
	nextSwapID int64
	clock      int64 // монотонные created_at для сортировок
}

func NewDB() *DB {
	return &DB{
		users: make(map[int64]model.User),
		slots: make(map[int64]model.Slot),
		swaps: make(map[int64]model.SwapRequest),
	}
}

// Stores возвращает набор хранилищ поверх общей базы
func (d *DB) Stores() service.Stores {
	return service.Stores{
		Users: &UserStore{db: d},
		Slots: &SlotStore{db: d},
		Swaps: &SwapStore{db: d},
	}
}

// TxRunner возвращает исполнитель транзакций поверх базы
func (d *DB) TxRunner() service.TxRunner {
	return &TxRunner{db: d}
}

func (d *DB) now() time.Time {
	d.clock++
	return time.Unix(1700000000, 0).Add(time.Duration(d.clock) * time.Second)
}

// Slot возвращает копию слота напрямую, минуя интерфейсы (для assert'ов)
func (d *DB) Slot(id int64) *model.Slot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot, ok := d.slots[id]; ok {
		return &slot
	}
	return nil
}

// SetSlotStatus выставляет статус слота в обход проверок переходов
// (для подготовки сценариев)
func (d *DB) SetSlotStatus(id int64, status model.SlotStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if slot, ok := d.slots[id]; ok {
		slot.Status = status
		d.slots[id] = slot
	}
}

// Swap возвращает копию запроса обмена напрямую (для assert'ов)
func (d *DB) Swap(id int64) *model.SwapRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	if req, ok := d.swaps[id]; ok {
		return &req
	}
	return nil
}

type snapshot struct {
	users map[int64]model.User
	slots map[int64]model.Slot
	swaps map[int64]model.SwapRequest
}

func (d *DB) snapshot() snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := snapshot{
		users: make(map[int64]model.User, len(d.users)),
		slots: make(map[int64]model.Slot, len(d.slots)),
		swaps: make(map[int64]model.SwapRequest, len(d.swaps)),
	}
	for id, u := range d.users {
		s.users[id] = u
	}
	for id, sl := range d.slots {
		s.slots[id] = sl
	}
	for id, r := range d.swaps {
		s.swaps[id] = r
	}
	return s
}

func (d *DB) restore(s snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = s.users
	d.slots = s.slots
	d.swaps = s.swaps
}

// TxRunner исполняет fn атомарно: снимок перед началом, откат при ошибке
type TxRunner struct {
	db *DB
}

func (r *TxRunner) InTx(ctx context.Context, fn func(s service.Stores) error) error {
	r.db.txMu.Lock()
	defer r.db.txMu.Unlock()

	before := r.db.snapshot()
	if err := fn(r.db.Stores()); err != nil {
		r.db.restore(before)
		return err
	}
	return nil
}

type UserStore struct {
	db *DB
}

func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, existing := range s.db.users {
		if existing.Email == user.Email {
			return apperr.Conflict("user with this email already exists")
		}
	}

	s.db.nextUserID++
	user.ID = s.db.nextUserID
	user.CreatedAt = s.db.now()
	s.db.users[user.ID] = *user
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if user, ok := s.db.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, user := range s.db.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (s *UserStore) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var users []*model.User
	for _, id := range ids {
		if user, ok := s.db.users[id]; ok {
			u := user
			users = append(users, &u)
		}
	}
	return users, nil
}

type SlotStore struct {
	db *DB
}

func (s *SlotStore) Create(ctx context.Context, slot *model.Slot) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	s.db.nextSlotID++
	slot.ID = s.db.nextSlotID
	slot.CreatedAt = s.db.now()
	slot.UpdatedAt = slot.CreatedAt
	stored := *slot
	stored.Owner = nil
	s.db.slots[slot.ID] = stored
	return nil
}

func (s *SlotStore) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if slot, ok := s.db.slots[id]; ok {
		return &slot, nil
	}
	return nil, nil
}

func (s *SlotStore) GetByIDs(ctx context.Context, ids []int64) ([]*model.Slot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var slots []*model.Slot
	for _, id := range ids {
		if slot, ok := s.db.slots[id]; ok {
			sl := slot
			slots = append(slots, &sl)
		}
	}
	return slots, nil
}

func (s *SlotStore) GetByOwnerID(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var slots []*model.Slot
	for _, slot := range s.db.slots {
		if slot.OwnerID == ownerID {
			sl := slot
			slots = append(slots, &sl)
		}
	}
	sortByStartTime(slots)
	return slots, nil
}

func (s *SlotStore) GetSwappableExcluding(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var slots []*model.Slot
	for _, slot := range s.db.slots {
		if slot.Status == model.SlotStatusSwappable && slot.OwnerID != ownerID {
			sl := slot
			slots = append(slots, &sl)
		}
	}
	sortByStartTime(slots)
	return slots, nil
}

func (s *SlotStore) Update(ctx context.Context, slot *model.Slot) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	current, ok := s.db.slots[slot.ID]
	if !ok || current.Status == model.SlotStatusSwapPending {
		return apperr.Conflict("slot is locked by a pending swap")
	}

	slot.UpdatedAt = s.db.now()
	stored := *slot
	stored.Owner = nil
	stored.CreatedAt = current.CreatedAt
	s.db.slots[slot.ID] = stored
	return nil
}

func (s *SlotStore) LockForPending(ctx context.Context, firstID, secondID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	first, okA := s.db.slots[firstID]
	second, okB := s.db.slots[secondID]
	if !okA || !okB ||
		first.Status != model.SlotStatusSwappable ||
		second.Status != model.SlotStatusSwappable {
		return apperr.Conflict("both slots must be SWAPPABLE to create a swap request")
	}

	first.Status = model.SlotStatusSwapPending
	first.UpdatedAt = s.db.now()
	second.Status = model.SlotStatusSwapPending
	second.UpdatedAt = s.db.now()
	s.db.slots[firstID] = first
	s.db.slots[secondID] = second
	return nil
}

func (s *SlotStore) ExchangeAndClose(ctx context.Context, a, b model.Handover) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	first, okA := s.db.slots[a.SlotID]
	second, okB := s.db.slots[b.SlotID]
	if !okA || !okB ||
		first.Status != model.SlotStatusSwapPending ||
		second.Status != model.SlotStatusSwapPending {
		return apperr.Conflict("slot is not locked for a pending swap")
	}

	first.OwnerID = a.NewOwnerID
	first.Status = model.SlotStatusBusy
	first.UpdatedAt = s.db.now()
	second.OwnerID = b.NewOwnerID
	second.Status = model.SlotStatusBusy
	second.UpdatedAt = s.db.now()
	s.db.slots[a.SlotID] = first
	s.db.slots[b.SlotID] = second
	return nil
}

func (s *SlotStore) RevertToSwappable(ctx context.Context, firstID, secondID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	first, okA := s.db.slots[firstID]
	second, okB := s.db.slots[secondID]
	if !okA || !okB ||
		first.Status != model.SlotStatusSwapPending ||
		second.Status != model.SlotStatusSwapPending {
		return apperr.Conflict("slot is not locked for a pending swap")
	}

	first.Status = model.SlotStatusSwappable
	first.UpdatedAt = s.db.now()
	second.Status = model.SlotStatusSwappable
	second.UpdatedAt = s.db.now()
	s.db.slots[firstID] = first
	s.db.slots[secondID] = second
	return nil
}

type SwapStore struct {
	db *DB
}

func (s *SwapStore) Create(ctx context.Context, req *model.SwapRequest) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	s.db.nextSwapID++
	req.ID = s.db.nextSwapID
	req.CreatedAt = s.db.now()
	req.UpdatedAt = req.CreatedAt
	stored := *req
	stored.RequesterSlot = nil
	stored.ResponderSlot = nil
	stored.Requester = nil
	stored.Responder = nil
	s.db.swaps[req.ID] = stored
	return nil
}

func (s *SwapStore) GetByID(ctx context.Context, id int64) (*model.SwapRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if req, ok := s.db.swaps[id]; ok {
		return &req, nil
	}
	return nil, nil
}

func (s *SwapStore) FindPendingForPair(ctx context.Context, slotA, slotB int64) (*model.SwapRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, req := range s.db.swaps {
		if req.Status != model.SwapStatusPending {
			continue
		}
		if (req.RequesterSlotID == slotA && req.ResponderSlotID == slotB) ||
			(req.RequesterSlotID == slotB && req.ResponderSlotID == slotA) {
			r := req
			return &r, nil
		}
	}
	return nil, nil
}

func (s *SwapStore) SetStatus(ctx context.Context, id int64, status model.SwapStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	req, ok := s.db.swaps[id]
	if !ok || req.Status != model.SwapStatusPending {
		return apperr.Conflict("swap request has already been processed")
	}

	req.Status = status
	req.UpdatedAt = s.db.now()
	s.db.swaps[id] = req
	return nil
}

func (s *SwapStore) GetByRequesterID(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var reqs []*model.SwapRequest
	for _, req := range s.db.swaps {
		if req.RequesterID == userID {
			r := req
			reqs = append(reqs, &r)
		}
	}
	sortNewestFirst(reqs)
	return reqs, nil
}

func (s *SwapStore) GetByResponderID(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var reqs []*model.SwapRequest
	for _, req := range s.db.swaps {
		if req.ResponderID == userID {
			r := req
			reqs = append(reqs, &r)
		}
	}
	sortNewestFirst(reqs)
	return reqs, nil
}

func sortByStartTime(slots []*model.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
}

func sortNewestFirst(reqs []*model.SwapRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}
