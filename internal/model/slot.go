package model

import "time"

type SlotStatus string

const (
	SlotStatusBusy        SlotStatus = "BUSY"
	SlotStatusSwappable   SlotStatus = "SWAPPABLE"
	SlotStatusSwapPending SlotStatus = "SWAP_PENDING"
)

// Valid проверяет что статус один из трёх допустимых
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusBusy, SlotStatusSwappable, SlotStatusSwapPending:
		return true
	}
	return false
}

type Slot struct {
	ID        int64      `json:"id"`
	OwnerID   int64      `json:"ownerId"`
	Title     string     `json:"title"`
	StartTime time.Time  `json:"startTime"`
	EndTime   time.Time  `json:"endTime"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Дополнительное поле для joined-ответов (не из БД)
	Owner *UserSummary `json:"owner,omitempty"`
}

// SlotPatch частичное обновление слота: nil означает "поле не менять"
type SlotPatch struct {
	Title     *string     `json:"title"`
	StartTime *time.Time  `json:"startTime"`
	EndTime   *time.Time  `json:"endTime"`
	Status    *SlotStatus `json:"status"`
}

// Handover передача слота новому владельцу при обмене
type Handover struct {
	SlotID     int64
	NewOwnerID int64
}
