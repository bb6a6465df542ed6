package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/apperr"
	"github.com/slotswap/swap_backend/internal/model"
)

const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// SwapService координатор обменов: propose и respond исполняются как одна
// транзакция над реестром слотов и журналом запросов — либо применяются
// целиком, либо не оставляют следов.
type SwapService struct {
	tx     TxRunner
	stores Stores
	logger *zap.Logger
}

func NewSwapService(tx TxRunner, stores Stores, logger *zap.Logger) *SwapService {
	return &SwapService{
		tx:     tx,
		stores: stores,
		logger: logger,
	}
}

// Propose создаёт предложение обмена слота requester'а на чужой слот.
// Оба слота блокируются в SWAP_PENDING до ответа responder'а.
func (s *SwapService) Propose(ctx context.Context, requesterID, mySlotID, theirSlotID int64) (*model.SwapRequest, error) {
	if mySlotID == theirSlotID {
		return nil, apperr.Validation("cannot swap a slot with itself")
	}

	var req *model.SwapRequest

	err := s.tx.InTx(ctx, func(st Stores) error {
		mySlot, err := st.Slots.GetByID(ctx, mySlotID)
		if err != nil {
			return err
		}
		theirSlot, err := st.Slots.GetByID(ctx, theirSlotID)
		if err != nil {
			return err
		}
		if mySlot == nil || theirSlot == nil {
			return apperr.NotFound("one or both slots not found")
		}

		if mySlot.OwnerID != requesterID {
			return apperr.Forbidden("you can only swap your own slots")
		}

		// Покрывает и "занят", и "уже в другом обмене"
		if mySlot.Status != model.SlotStatusSwappable || theirSlot.Status != model.SlotStatusSwappable {
			return apperr.Conflict("both slots must be SWAPPABLE to create a swap request")
		}

		if mySlot.OwnerID == theirSlot.OwnerID {
			return apperr.Validation("cannot swap your own slots")
		}

		existing, err := st.Swaps.FindPendingForPair(ctx, mySlotID, theirSlotID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("a pending swap request already exists for these slots")
		}

		if err := st.Slots.LockForPending(ctx, mySlotID, theirSlotID); err != nil {
			return err
		}

		req = &model.SwapRequest{
			RequesterID:     requesterID,
			ResponderID:     theirSlot.OwnerID,
			RequesterSlotID: mySlotID,
			ResponderSlotID: theirSlotID,
			Status:          model.SwapStatusPending,
		}

		return st.Swaps.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap proposed",
		zap.Int64("request_id", req.ID),
		zap.Int64("requester_id", req.RequesterID),
		zap.Int64("responder_id", req.ResponderID),
		zap.Int64("requester_slot_id", req.RequesterSlotID),
		zap.Int64("responder_slot_id", req.ResponderSlotID),
	)

	if err := s.joinViews(ctx, []*model.SwapRequest{req}); err != nil {
		return nil, err
	}

	return req, nil
}

// Respond обрабатывает ответ responder'а на запрос обмена.
// accept: слоты меняются владельцами и закрываются (BUSY);
// reject: оба слота возвращаются в SWAPPABLE. В обоих случаях запрос
// переходит в конечный статус и больше не изменяется.
func (s *SwapService) Respond(ctx context.Context, responderID, requestID int64, action string) (*model.SwapRequest, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, apperr.Validation("action must be either accept or reject")
	}

	var req *model.SwapRequest

	err := s.tx.InTx(ctx, func(st Stores) error {
		current, err := st.Swaps.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("swap request not found")
		}

		if current.ResponderID != responderID {
			return apperr.Forbidden("not authorized to respond to this request")
		}

		if current.Status != model.SwapStatusPending {
			return apperr.Conflict("swap request has already been processed")
		}

		if action == ActionAccept {
			// Слот requester'а уходит responder'у и наоборот
			err = st.Slots.ExchangeAndClose(ctx,
				model.Handover{SlotID: current.RequesterSlotID, NewOwnerID: current.ResponderID},
				model.Handover{SlotID: current.ResponderSlotID, NewOwnerID: current.RequesterID},
			)
			if err != nil {
				return err
			}
			if err := st.Swaps.SetStatus(ctx, current.ID, model.SwapStatusAccepted); err != nil {
				return err
			}
			current.Status = model.SwapStatusAccepted
		} else {
			err = st.Slots.RevertToSwappable(ctx, current.RequesterSlotID, current.ResponderSlotID)
			if err != nil {
				return err
			}
			if err := st.Swaps.SetStatus(ctx, current.ID, model.SwapStatusRejected); err != nil {
				return err
			}
			current.Status = model.SwapStatusRejected
		}

		req = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap responded",
		zap.Int64("request_id", req.ID),
		zap.Int64("responder_id", responderID),
		zap.String("status", string(req.Status)),
	)

	if err := s.joinViews(ctx, []*model.SwapRequest{req}); err != nil {
		return nil, err
	}

	return req, nil
}

// Incoming возвращает запросы, адресованные пользователю, свежие первыми
func (s *SwapService) Incoming(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	reqs, err := s.stores.Swaps.GetByResponderID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.joinViews(ctx, reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Outgoing возвращает запросы, созданные пользователем, свежие первыми
func (s *SwapService) Outgoing(ctx context.Context, userID int64) ([]*model.SwapRequest, error) {
	reqs, err := s.stores.Swaps.GetByRequesterID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.joinViews(ctx, reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// joinViews дополняет запросы данными слотов и участников для выдачи.
// Сущности связаны только идентификаторами, join выполняется при чтении.
func (s *SwapService) joinViews(ctx context.Context, reqs []*model.SwapRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	slotIDs := make([]int64, 0, len(reqs)*2)
	userIDs := make([]int64, 0, len(reqs)*2)
	seenSlot := make(map[int64]bool)
	seenUser := make(map[int64]bool)
	for _, req := range reqs {
		for _, id := range []int64{req.RequesterSlotID, req.ResponderSlotID} {
			if !seenSlot[id] {
				seenSlot[id] = true
				slotIDs = append(slotIDs, id)
			}
		}
		for _, id := range []int64{req.RequesterID, req.ResponderID} {
			if !seenUser[id] {
				seenUser[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}

	slots, err := s.stores.Slots.GetByIDs(ctx, slotIDs)
	if err != nil {
		return err
	}
	users, err := s.stores.Users.GetByIDs(ctx, userIDs)
	if err != nil {
		return err
	}

	slotByID := make(map[int64]*model.Slot, len(slots))
	for _, slot := range slots {
		slotByID[slot.ID] = slot
	}
	userByID := make(map[int64]*model.UserSummary, len(users))
	for _, user := range users {
		userByID[user.ID] = user.Summary()
	}

	for _, req := range reqs {
		req.RequesterSlot = slotByID[req.RequesterSlotID]
		req.ResponderSlot = slotByID[req.ResponderSlotID]
		req.Requester = userByID[req.RequesterID]
		req.Responder = userByID[req.ResponderID]
	}

	return nil
}
