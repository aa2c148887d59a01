package models

import "time"

// User is a registered worker profile keyed by the Telegram user id.
// Re-registration overwrites every field; there is no deletion path.
type User struct {
	UserID        int64  `db:"user_id"`
	FullName      string `db:"full_name"`
	Age           int    `db:"age"`
	City          string `db:"city"`
	Experience    string `db:"experience"`
	DesiredIncome int64  `db:"desired_income"`
	PhotoRef      string `db:"photo_ref"`
}

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	// OrderActive marks an order available for work.
	OrderActive OrderStatus = "active"
	// OrderCompleted marks an order finished with a photo report attached.
	OrderCompleted OrderStatus = "completed"
)

// Valid reports whether the status is one of the known lifecycle values.
func (s OrderStatus) Valid() bool {
	return s == OrderActive || s == OrderCompleted
}

// Order is a unit of work from the shared pool. Date and time components are
// kept as separate text columns ("2006-01-02" / "15:04:05") so lexicographic
// ordering matches chronological ordering.
type Order struct {
	OrderID        int64       `db:"order_id"`
	CreationDate   string      `db:"creation_date"`
	CreationTime   string      `db:"creation_time"`
	CompletionDate *string     `db:"completion_date"`
	CompletionTime *string     `db:"completion_time"`
	Payment        int64       `db:"payment"`
	Address        string      `db:"address"`
	Description    string      `db:"description"`
	Status         OrderStatus `db:"status"`
	PhotoReport    *string     `db:"photo_report"`
}

// SessionRow is the persisted conversation state for one user. Scratch holds
// the state-dependent payload serialized as JSON.
type SessionRow struct {
	UserID    int64     `db:"user_id"`
	State     string    `db:"state"`
	Scratch   []byte    `db:"scratch_json"`
	UpdatedAt time.Time `db:"updated_at"`
}
