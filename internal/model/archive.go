package model

// SavedScene is a resolved scene archived on request of the client.
type SavedScene struct {
	ID        string        `json:"id"`
	Prompt    string        `json:"prompt"`
	Scene     ResolvedScene `json:"scene"`
	CreatedAt string        `json:"created_at"`
}

// SavedSceneSummary omits the scene body for listings.
type SavedSceneSummary struct {
	ID           string `json:"id"`
	Prompt       string `json:"prompt"`
	ScenarioType string `json:"scenarioType"`
	ObjectCount  int    `json:"object_count"`
	CreatedAt    string `json:"created_at"`
}

// PromptLog records one resolution attempt.
type PromptLog struct {
	ID        string  `json:"id"`
	Prompt    string  `json:"prompt"`
	Origin    string  `json:"origin"`
	Outcome   string  `json:"outcome"`
	Error     *string `json:"error"`
	TraceID   string  `json:"trace_id"`
	CreatedAt string  `json:"created_at"`
}
