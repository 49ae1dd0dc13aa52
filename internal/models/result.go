package models

// ActionResult is returned by user-facing mutations instead of an error so
// callers only branch on Success.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(message string) ActionResult {
	return ActionResult{Success: true, Message: message}
}

// Failed builds a failed result.
func Failed(message string) ActionResult {
	return ActionResult{Success: false, Message: message}
}
