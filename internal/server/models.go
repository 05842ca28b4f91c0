package server

// AskRequest is the question payload shared by both ask endpoints. Mode
// "sync" returns one JSON answer instead of the SSE stream.
type AskRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode"`
}

// AskResponse is the sync-mode answer body.
type AskResponse struct {
	Answer string `json:"answer"`
	Tool   string `json:"tool"`
	Score  int    `json:"score"`
}

type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// HTTPError mirrors the unified error handler's JSON body.
type HTTPError struct {
	Error string `json:"error"`
}

type HistoryItem struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Tool      string `json:"tool"`
	Score     int    `json:"score"`
	CreatedAt string `json:"created_at"`
}

type HistoryResponse struct {
	Items []HistoryItem `json:"items"`
}

type ToolStatItem struct {
	Tool     string  `json:"tool"`
	Count    int64   `json:"count"`
	AvgScore float64 `json:"avg_score"`
	LastUsed string  `json:"last_used"`
}

type StatsResponse struct {
	Tools []ToolStatItem `json:"tools"`
}
