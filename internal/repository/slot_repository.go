package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/slotswap/swap_backend/internal/apperr"
	"github.com/slotswap/swap_backend/internal/model"
	"github.com/slotswap/swap_backend/internal/repository/base"
)

const slotColumns = "id, owner_id, title, start_time, end_time, status, created_at, updated_at"

type SlotRepository struct {
	db base.Querier
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *SlotRepository) WithTx(tx pgx.Tx) *SlotRepository {
	return &SlotRepository{db: tx}
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.OwnerID,
		&slot.Title,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Status,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func scanSlots(rows pgx.Rows) ([]*model.Slot, error) {
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (owner_id, title, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.OwnerID,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
	).Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDs получает слоты по списку ID
func (r *SlotRepository) GetByIDs(ctx context.Context, ids []int64) ([]*model.Slot, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get slots by ids: %w", err)
	}

	return scanSlots(rows)
}

// GetByOwnerID получает все слоты владельца
func (r *SlotRepository) GetByOwnerID(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE owner_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get slots by owner: %w", err)
	}

	return scanSlots(rows)
}

// GetSwappableExcluding получает SWAPPABLE слоты всех владельцев кроме указанного
func (r *SlotRepository) GetSwappableExcluding(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE status = 'SWAPPABLE'
		  AND owner_id <> $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get swappable slots: %w", err)
	}

	return scanSlots(rows)
}

// Update сохраняет новые значения полей слота.
// Условие на статус закрывает гонку: слот, успевший уйти в SWAP_PENDING
// между чтением и записью, через прямой update не изменить.
func (r *SlotRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET title = $1, start_time = $2, end_time = $3, status = $4, updated_at = now()
		WHERE id = $5 AND status <> 'SWAP_PENDING'
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.Title,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.ID,
	).Scan(&slot.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return apperr.Conflict("slot is locked by a pending swap")
		}
		return fmt.Errorf("update slot: %w", err)
	}

	return nil
}

// LockForPending переводит оба слота в SWAP_PENDING при условии что оба
// сейчас SWAPPABLE. Если условие не выполнилось хотя бы для одного,
// возвращается ошибка Conflict — вызывающая транзакция откатит частичное
// обновление.
func (r *SlotRepository) LockForPending(ctx context.Context, firstID, secondID int64) error {
	query := `
		UPDATE slots
		SET status = 'SWAP_PENDING', updated_at = now()
		WHERE id = ANY($1) AND status = 'SWAPPABLE'
	`

	result, err := r.db.Exec(ctx, query, []int64{firstID, secondID})
	if err != nil {
		return fmt.Errorf("lock slots for pending: %w", err)
	}

	if result.RowsAffected() != 2 {
		return apperr.Conflict("both slots must be SWAPPABLE to create a swap request")
	}

	return nil
}

// ExchangeAndClose передаёт оба слота новым владельцам и закрывает их (BUSY).
// Каждое обновление обусловлено статусом SWAP_PENDING.
func (r *SlotRepository) ExchangeAndClose(ctx context.Context, a, b model.Handover) error {
	query := `
		UPDATE slots
		SET owner_id = $1, status = 'BUSY', updated_at = now()
		WHERE id = $2 AND status = 'SWAP_PENDING'
	`

	for _, h := range []model.Handover{a, b} {
		result, err := r.db.Exec(ctx, query, h.NewOwnerID, h.SlotID)
		if err != nil {
			return fmt.Errorf("exchange slot %d: %w", h.SlotID, err)
		}
		if result.RowsAffected() != 1 {
			return apperr.Conflict("slot is not locked for a pending swap")
		}
	}

	return nil
}

// RevertToSwappable возвращает оба слота из SWAP_PENDING в SWAPPABLE
func (r *SlotRepository) RevertToSwappable(ctx context.Context, firstID, secondID int64) error {
	query := `
		UPDATE slots
		SET status = 'SWAPPABLE', updated_at = now()
		WHERE id = ANY($1) AND status = 'SWAP_PENDING'
	`

	result, err := r.db.Exec(ctx, query, []int64{firstID, secondID})
	if err != nil {
		return fmt.Errorf("revert slots to swappable: %w", err)
	}

	if result.RowsAffected() != 2 {
		return apperr.Conflict("slot is not locked for a pending swap")
	}

	return nil
}
