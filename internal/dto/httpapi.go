package dto

// 本包承载本地 HTTP API 的请求/响应契约。
// 持久化结构见 internal/schema；业务逻辑收敛在 internal/service。

type LogEntryRequest struct {
	Name  string  `json:"name"`
	Exp   float64 `json:"exp"`
	Track string  `json:"track,omitempty"`
}

type QuickActionRequest struct {
	Name string  `json:"name"`
	Exp  float64 `json:"exp"`
}

type TagRequest struct {
	Name     string `json:"name"`
	Track    string `json:"track"`
	TimeCost string `json:"time_cost,omitempty"`
}

type EventRequest struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
	Exp    float64 `json:"exp"`
}

type CompleteQuestRequest struct {
	Quality int `json:"quality"`
}

type SnoozeQuestRequest struct {
	Until string `json:"until"` // YYYY-MM-DD
}

// MutationDTO 变更结果；ok=false 表示输入无效、状态未改变
type MutationDTO struct {
	OK     bool `json:"ok"`
	Result any  `json:"result,omitempty"`
}

type ErrorDTO struct {
	Error string `json:"error"`
}
