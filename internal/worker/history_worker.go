package worker

import (
	"github.com/spec-kit/ticket-tracker/internal/service"
)

// StartHistoryWorker registers the audit trail subscribers.
func StartHistoryWorker(historyService *service.HistoryService) {
	if historyService == nil {
		return
	}
	historyService.RegisterHandlers()
}
