package model

import "time"

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// Valid проверяет что статус один из трёх допустимых
func (s SwapStatus) Valid() bool {
	switch s {
	case SwapStatusPending, SwapStatusAccepted, SwapStatusRejected:
		return true
	}
	return false
}

// Terminal возвращает true для конечных статусов (из них переходов нет)
func (s SwapStatus) Terminal() bool {
	return s == SwapStatusAccepted || s == SwapStatusRejected
}

type SwapRequest struct {
	ID              int64      `json:"id"`
	RequesterID     int64      `json:"requesterId"`
	ResponderID     int64      `json:"responderId"`
	RequesterSlotID int64      `json:"requesterSlotId"`
	ResponderSlotID int64      `json:"responderSlotId"`
	Status          SwapStatus `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	// Дополнительные поля для joined-ответов (не из БД)
	RequesterSlot *Slot        `json:"requesterSlot,omitempty"`
	ResponderSlot *Slot        `json:"responderSlot,omitempty"`
	Requester     *UserSummary `json:"requester,omitempty"`
	Responder     *UserSummary `json:"responder,omitempty"`
}
