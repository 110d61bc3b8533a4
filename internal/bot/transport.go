package bot

// Choice is one inline button: a visible label and the opaque payload sent
// back when pressed.
type Choice struct {
	Label string
	Data  string
}

// Transport is the narrow surface the controller needs from the messaging
// platform. The Telegram adapter implements it; tests use a fake.
type Transport interface {
	SendText(chatID int64, text string) error
	SendChoices(chatID int64, text string, choices []Choice) error
	EditText(chatID int64, messageID int, text string) error
	// AnswerCallback acknowledges a button press without user-visible output.
	AnswerCallback(callbackID string) error
	// AlertCallback acknowledges a button press with an alert popup.
	AlertCallback(callbackID, text string) error
}

// Command is a slash-command invocation.
type Command struct {
	UserID int64
	ChatID int64
	Name   string
}

// Callback is a button press on a previously sent keyboard.
type Callback struct {
	UserID    int64
	ChatID    int64
	MessageID int
	ID        string
	Data      string
}

// TextMessage is a free-text message.
type TextMessage struct {
	UserID int64
	ChatID int64
	Text   string
}
