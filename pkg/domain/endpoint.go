package domain

// Endpoint describes the HTTP call behind an operation.
// Path is relative to the API base URL. When WithID is set, Args.ID is appended
// as the last path segment. NotFound is the message recorded on a 404.
type Endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	WithID   bool   `json:"with_id,omitempty"`
	Binary   bool   `json:"binary,omitempty"`
	NotFound string `json:"not_found,omitempty"`
}

// Args parameterises one dispatch. An empty Token is filled in by the auth guard.
type Args struct {
	Token string `json:"-"`
	ID    string `json:"id,omitempty"`
	Query *Query `json:"query,omitempty"`
	Body  any    `json:"body,omitempty"`
}

// Call is an operation ready to be executed.
type Call struct {
	Operation string
	Endpoint  Endpoint
	Args      Args
}

// Reply is a successful (2xx) response.
type Reply struct {
	StatusCode  int
	ContentType string
	Filename    string
	Body        []byte
}

// OperationInfo describes a registered operation.
type OperationInfo struct {
	Tag      string   `json:"tag"`
	Slice    string   `json:"slice"`
	Name     string   `json:"name"`
	Endpoint Endpoint `json:"endpoint"`
}
