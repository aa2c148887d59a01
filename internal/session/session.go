// Package session tracks each user's conversation state and scratch data.
// State is persisted synchronously so a restart resumes every user exactly
// where they left off; registration and order flows span multiple turns.
package session

// State identifies a conversation step.
type State string

const (
	// StateIdle means the user sits at the main menu with no held state.
	StateIdle State = "idle"

	// Registration sequence, linear.
	StateAwaitingName       State = "awaiting_name"
	StateAwaitingAge        State = "awaiting_age"
	StateAwaitingCity       State = "awaiting_city"
	StateAwaitingExperience State = "awaiting_experience"
	StateAwaitingIncome     State = "awaiting_income"
	StateAwaitingPhoto      State = "awaiting_photo"

	// Post-registration menu sequence.
	StateBrowsingOrders         State = "browsing_orders"
	StateViewingActiveOrders    State = "viewing_active_orders"
	StateViewingCompletedOrders State = "viewing_completed_orders"
	StateOrderDetail            State = "order_detail"
	StateAwaitingSupportMessage State = "awaiting_support"
)

// Registration reports whether the state belongs to the registration flow,
// where the global cancel event is valid.
func (s State) Registration() bool {
	switch s {
	case StateAwaitingName, StateAwaitingAge, StateAwaitingCity,
		StateAwaitingExperience, StateAwaitingIncome, StateAwaitingPhoto:
		return true
	}
	return false
}

// Draft is the partially entered registration data.
type Draft struct {
	FullName      string `json:"full_name,omitempty"`
	Age           int    `json:"age,omitempty"`
	City          string `json:"city,omitempty"`
	Experience    string `json:"experience,omitempty"`
	DesiredIncome int64  `json:"desired_income,omitempty"`
}

// Scratch is the state-dependent payload: a registration draft while
// registering, a selected order while browsing. Fields are explicit so the
// compiler knows which data is valid in which state family.
type Scratch struct {
	Draft         *Draft `json:"draft,omitempty"`
	SelectedOrder *int64 `json:"selected_order,omitempty"`
}

// Session is one user's conversation state.
type Session struct {
	UserID  int64
	State   State
	Scratch Scratch
}

// fresh returns the state a first-time or expired user starts in:
// registration is mandatory up front.
func fresh(userID int64) *Session {
	return &Session{UserID: userID, State: StateAwaitingName}
}
