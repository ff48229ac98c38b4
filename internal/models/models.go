package models

// GenerateRequest is the body accepted by the generate endpoint
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// Panel is one illustrated unit of a comic
type Panel struct {
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image" yaml:"-"` // data URI
	PanelNumber int    `json:"panelNumber" yaml:"panel_number"`
}

// Comic is the ordered result of a successful generation
type Comic struct {
	Panels []Panel `json:"panels" yaml:"panels"`
}

// ErrorResponse is returned for any failed generation
type ErrorResponse struct {
	Error string `json:"error"`
}
