package types

// Category represents service categories
type Category string

const (
	CategoryTransfer Category = "transfer"
	CategorySandbox  Category = "sandbox"
)

// Service represents a service definition exposed to the calling agent
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Tools        []Tool   `json:"tools"`
}

// Tool represents a service tool
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Context provides execution context for tool invocations.
// Token carries the caller's shared secret and selects the sandbox identity.
// It is never serialized.
type Context struct {
	Token     string  `json:"-"`
	RequestID *string `json:"request_id,omitempty"`
}

// Result represents a tool execution result
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
}
