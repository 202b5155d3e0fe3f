// internal/profile/extractor/models.go
package extractor

// extractRequest is the payload sent to the GenAI extraction endpoint.
type extractRequest struct {
	Message      string            `json:"message"`
	Known        map[string]string `json:"known,omitempty"`
	Instructions string            `json:"instructions"`
}

// extractResponse is the strict-JSON contract the model must honor. Null
// means "not present in this message", never "forget what you knew".
type extractResponse struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Title   *string `json:"title"`
	Email   *string `json:"email"`
}
