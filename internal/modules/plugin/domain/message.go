package domain

const (
	TaskExtensionVersion         = "1.0"
	NotificationExtensionVersion = "1.0"
)

// Request is one message sent to a message-based plugin.
type Request struct {
	ID        string
	Extension ExtensionPoint
	Version   string
	Name      string
	Body      string
}

// Response is the reply to a Request. Code follows HTTP semantics.
type Response struct {
	Code int
	Body string
}

const ResponseCodeSuccess = 200
