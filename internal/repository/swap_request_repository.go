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

const swapColumns = "id, requester_id, responder_id, requester_slot_id, responder_slot_id, status, created_at, updated_at"

type SwapRequestRepository struct {
	db base.Querier
}

func NewSwapRequestRepository(pool *pgxpool.Pool) *SwapRequestRepository {
	return &SwapRequestRepository{db: pool}
}

// WithTx возвращает копию репозитория, привязанную к транзакции
func (r *SwapRequestRepository) WithTx(tx pgx.Tx) *SwapRequestRepository {
	return &SwapRequestRepository{db: tx}
}

func scanSwapRequest(row pgx.Row) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := row.Scan(
		&req.ID,
		&req.RequesterID,
		&req.ResponderID,
		&req.RequesterSlotID,
		&req.ResponderSlotID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func scanSwapRequests(rows pgx.Rows) ([]*model.SwapRequest, error) {
	defer rows.Close()

	var reqs []*model.SwapRequest
	for rows.Next() {
		req, err := scanSwapRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}
		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}

// Create создаёт новый запрос обмена в статусе PENDING
func (r *SwapRequestRepository) Create(ctx context.Context, req *model.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (requester_id, responder_id, requester_slot_id, responder_slot_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		req.RequesterID,
		req.ResponderID,
		req.RequesterSlotID,
		req.ResponderSlotID,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}

	return nil
}

// GetByID получает запрос обмена по ID
func (r *SwapRequestRepository) GetByID(ctx context.Context, id int64) (*model.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE id = $1`

	req, err := scanSwapRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get swap request by id: %w", err)
	}

	return req, nil
}

// FindPendingForPair ищет PENDING запрос для неупорядоченной пары слотов
func (r *SwapRequestRepository) FindPendingForPair(ctx context.Context, slotA, slotB int64) (*model.SwapRequest, error) {
	query := `
		SELECT ` + swapColumns + `
		FROM swap_requests
		WHERE status = 'PENDING'
		  AND ((requester_slot_id = $1 AND responder_slot_id = $2)
		    OR (requester_slot_id = $2 AND responder_slot_id = $1))
	`

	req, err := scanSwapRequest(r.db.QueryRow(ctx, query, slotA, slotB))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending swap request for pair: %w", err)
	}

	return req, nil
}

// SetStatus переводит запрос из PENDING в конечный статус.
// Условие на текущий PENDING защищает от повторной обработки.
func (r *SwapRequestRepository) SetStatus(ctx context.Context, id int64, status model.SwapStatus) error {
	query := `
		UPDATE swap_requests
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = 'PENDING'
	`

	result, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("set swap request status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.Conflict("swap request has already been processed")
	}

	return nil
}

// GetByRequesterID получает исходящие запросы пользователя, свежие первыми
func (r *SwapRequestRepository) GetByRequesterID(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapColumns + `
		FROM swap_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get swap requests by requester: %w", err)
	}

	return scanSwapRequests(rows)
}

// GetByResponderID получает входящие запросы пользователя, свежие первыми
func (r *SwapRequestRepository) GetByResponderID(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	query := `
		SELECT ` + swapColumns + `
		FROM swap_requests
		WHERE responder_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get swap requests by responder: %w", err)
	}

	return scanSwapRequests(rows)
}
