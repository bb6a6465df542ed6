package service

import (
	"context"

	"github.com/slotswap/swap_backend/internal/model"
)

// UserStore хранилище пользователей.
// Методы Get* возвращают (nil, nil) если сущность не найдена.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
}

// SlotStore хранилище слотов с примитивами переходов статуса.
// LockForPending / ExchangeAndClose / RevertToSwappable обусловлены текущим
// статусом и возвращают ошибку Conflict при проигранной гонке — вызывать их
// имеет право только координатор внутри транзакции.
type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Slot, error)
	GetByOwnerID(ctx context.Context, ownerID int64) ([]*model.Slot, error)
	GetSwappableExcluding(ctx context.Context, ownerID int64) ([]*model.Slot, error)
	Update(ctx context.Context, slot *model.Slot) error
	LockForPending(ctx context.Context, firstID, secondID int64) error
	ExchangeAndClose(ctx context.Context, a, b model.Handover) error
	RevertToSwappable(ctx context.Context, firstID, secondID int64) error
}

// SwapStore журнал запросов обмена
type SwapStore interface {
	Create(ctx context.Context, req *model.SwapRequest) error
	GetByID(ctx context.Context, id int64) (*model.SwapRequest, error)
	FindPendingForPair(ctx context.Context, slotA, slotB int64) (*model.SwapRequest, error)
	SetStatus(ctx context.Context, id int64, status model.SwapStatus) error
	GetByRequesterID(ctx context.Context, userID int64) ([]*model.SwapRequest, error)
	GetByResponderID(ctx context.Context, userID int64) ([]*model.SwapRequest, error)
}

// Stores набор хранилищ, привязанных к одному контексту исполнения:
// либо к пулу (обычные чтения), либо к открытой транзакции (внутри InTx)
type Stores struct {
	Users UserStore
	Slots SlotStore
	Swaps SwapStore
}

// TxRunner исполняет fn в одной транзакции стора: все хранилища,
// переданные в fn, привязаны к ней. Ошибка из fn откатывает транзакцию
// целиком, частичных записей не остаётся.
type TxRunner interface {
	InTx(ctx context.Context, fn func(s Stores) error) error
}
