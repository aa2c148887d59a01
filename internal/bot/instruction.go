package bot

import "workerbot/internal/models"

// Op discriminates outbound reply instructions.
type Op int

const (
	// OpSendText sends a new text message.
	OpSendText Op = iota
	// OpSendPhoto sends a stored photo with an optional caption.
	OpSendPhoto
	// OpEditText edits the message the triggering callback came from,
	// falling back to a fresh send when editing is impossible.
	OpEditText
)

// KeyboardKind selects which button set accompanies a reply. The engine
// describes keyboards symbolically; the transport adapter renders them.
type KeyboardKind int

const (
	// KbNone leaves the current keyboard untouched.
	KbNone KeyboardKind = iota
	// KbRemove hides the reply keyboard.
	KbRemove
	// KbMain is the persistent main menu.
	KbMain
	// KbOrdersMenu is the reply keyboard with order type choices.
	KbOrdersMenu
	// KbOrdersInline is the inline variant shown on callback navigation.
	KbOrdersInline
	// KbOrderList is one inline button per order plus a back button.
	KbOrderList
	// KbOrderDetail offers photo report and, once a photo exists,
	// completion.
	KbOrderDetail
	// KbBack is a single inline back-to-orders button.
	KbBack
)

// Keyboard is the symbolic button set for one instruction.
type Keyboard struct {
	Kind KeyboardKind

	// KbOrderList parameters.
	Orders    []models.Order
	Completed bool

	// KbOrderDetail parameter.
	HasPhoto bool
}

// Instruction is one outbound reply the transport must execute, in order.
type Instruction struct {
	Op       Op
	Text     string
	PhotoRef string
	Caption  string
	Keyboard Keyboard
}

func sendText(text string, kb Keyboard) Instruction {
	return Instruction{Op: OpSendText, Text: text, Keyboard: kb}
}

func editText(text string, kb Keyboard) Instruction {
	return Instruction{Op: OpEditText, Text: text, Keyboard: kb}
}

func sendPhoto(ref, caption string, kb Keyboard) Instruction {
	return Instruction{Op: OpSendPhoto, PhotoRef: ref, Caption: caption, Keyboard: kb}
}

// replyOrEdit picks edit for callback-triggered turns, send otherwise,
// mirroring how the transport distinguishes message and callback updates.
func replyOrEdit(ev Event, text string, kb Keyboard) Instruction {
	if ev.Kind == EventCallback {
		return editText(text, kb)
	}
	return sendText(text, kb)
}
