package converter

import (
	"luvv/internal/entity/db"
	"luvv/internal/entity/dto"
)

// UsageLogToItem 将 db.UsageLog 转换为 dto.UsageLogItem。
func UsageLogToItem(r *db.UsageLog) dto.UsageLogItem {
	if r == nil {
		return dto.UsageLogItem{}
	}
	return dto.UsageLogItem{
		ID:        r.ID,
		ModelName: r.ModelName,
		Status:    r.Status,
		RequestID: r.RequestID,
		CreatedAt: r.CreatedAt,
	}
}

// UsageLogsToItems converts a slice of db.UsageLog to dto.UsageLogItem.
func UsageLogsToItems(records []db.UsageLog) []dto.UsageLogItem {
	items := make([]dto.UsageLogItem, len(records))
	for i := range records {
		items[i] = UsageLogToItem(&records[i])
	}
	return items
}
