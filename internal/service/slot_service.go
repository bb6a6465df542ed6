package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/apperr"
	"github.com/slotswap/swap_backend/internal/model"
)

// SlotService реестр слотов: CRUD владельца.
// Переходы в/из SWAP_PENDING здесь недоступны — они принадлежат координатору.
type SlotService struct {
	slots  SlotStore
	users  UserStore
	logger *zap.Logger
}

func NewSlotService(slots SlotStore, users UserStore, logger *zap.Logger) *SlotService {
	return &SlotService{
		slots:  slots,
		users:  users,
		logger: logger,
	}
}

// List возвращает слоты владельца по возрастанию времени начала
func (s *SlotService) List(ctx context.Context, ownerID int64) ([]*model.Slot, error) {
	return s.slots.GetByOwnerID(ctx, ownerID)
}

// Create создаёт слот. Статус по умолчанию BUSY, напрямую разрешены
// только BUSY и SWAPPABLE.
func (s *SlotService) Create(ctx context.Context, ownerID int64, title string, startTime, endTime time.Time, status model.SlotStatus) (*model.Slot, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}

	if status == "" {
		status = model.SlotStatusBusy
	}
	if status != model.SlotStatusBusy && status != model.SlotStatusSwappable {
		return nil, apperr.Validation("status must be BUSY or SWAPPABLE")
	}

	if !endTime.After(startTime) {
		return nil, apperr.Validation("end time must be after start time")
	}

	slot := &model.Slot{
		OwnerID:   ownerID,
		Title:     title,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    status,
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Info("Slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("owner_id", ownerID),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// Update применяет частичное обновление слота. Инвариант интервала
// проверяется на эффективных значениях после патча.
func (s *SlotService) Update(ctx context.Context, callerID, slotID int64, patch model.SlotPatch) (*model.Slot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, apperr.NotFound("slot not found")
	}

	if slot.OwnerID != callerID {
		return nil, apperr.Forbidden("not authorized to update this slot")
	}

	// Слот в активной фазе обмена трогать нельзя
	if slot.Status == model.SlotStatusSwapPending {
		return nil, apperr.Conflict("slot is locked by a pending swap")
	}

	if patch.Status != nil {
		next := *patch.Status
		if next == model.SlotStatusSwapPending {
			return nil, apperr.Validation("status SWAP_PENDING cannot be set directly")
		}
		if !next.Valid() {
			return nil, apperr.Validation("invalid status")
		}
		slot.Status = next
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		slot.Title = title
	}
	if patch.StartTime != nil {
		slot.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		slot.EndTime = *patch.EndTime
	}

	if !slot.EndTime.After(slot.StartTime) {
		return nil, apperr.Validation("end time must be after start time")
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}

	s.logger.Info("Slot updated",
		zap.Int64("slot_id", slot.ID),
		zap.String("status", string(slot.Status)),
	)

	return slot, nil
}

// Marketplace возвращает SWAPPABLE слоты других пользователей
// вместе с данными владельцев
func (s *SlotService) Marketplace(ctx context.Context, callerID int64) ([]*model.Slot, error) {
	slots, err := s.slots.GetSwappableExcluding(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}

	ownerIDs := make([]int64, 0, len(slots))
	seen := make(map[int64]bool)
	for _, slot := range slots {
		if !seen[slot.OwnerID] {
			seen[slot.OwnerID] = true
			ownerIDs = append(ownerIDs, slot.OwnerID)
		}
	}

	owners, err := s.users.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*model.UserSummary, len(owners))
	for _, owner := range owners {
		byID[owner.ID] = owner.Summary()
	}

	for _, slot := range slots {
		slot.Owner = byID[slot.OwnerID]
	}

	return slots, nil
}
