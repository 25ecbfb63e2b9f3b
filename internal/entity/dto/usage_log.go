package dto

import (
	"luvv/internal/entity/common"
	"time"
)

// UsageLogQuery filters the usage ledger listing.
type UsageLogQuery struct {
	common.BaseParams
	Model  string `json:"model" form:"model" query:"model"`
	Status string `json:"status" form:"status" query:"status"`
}

// UsageLogItem is the response representation of a ledger row.
type UsageLogItem struct {
	ID        uint      `json:"id"`
	ModelName string    `json:"model_name"`
	Status    string    `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageLogListResponse is the response for listing ledger rows.
type UsageLogListResponse struct {
	Records []UsageLogItem `json:"records"`
	Meta    *common.Meta   `json:"meta"`
}
