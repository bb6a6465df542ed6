package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotswap/swap_backend/internal/apperr"
	"github.com/slotswap/swap_backend/internal/service"
)

// TxManager реализует service.TxRunner поверх pgx-транзакций
type TxManager struct {
	pool  *pgxpool.Pool
	users *UserRepository
	slots *SlotRepository
	swaps *SwapRequestRepository
}

func NewTxManager(pool *pgxpool.Pool, users *UserRepository, slots *SlotRepository, swaps *SwapRequestRepository) *TxManager {
	return &TxManager{
		pool:  pool,
		users: users,
		slots: slots,
		swaps: swaps,
	}
}

// InTx исполняет fn внутри одной транзакции. Все хранилища в переданном
// Stores привязаны к ней, поэтому чтения и записи fn изолированы и
// применяются только целиком.
func (m *TxManager) InTx(ctx context.Context, fn func(s service.Stores) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return apperr.Transaction("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	stores := service.Stores{
		Users: m.users.WithTx(tx),
		Slots: m.slots.WithTx(tx),
		Swaps: m.swaps.WithTx(tx),
	}

	if err := fn(stores); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Transaction("commit transaction", err)
	}

	return nil
}
