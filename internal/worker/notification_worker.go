package worker

import (
	"github.com/spec-kit/gig-service/internal/service"
)

// StartNotificationWorker registers the activity log handlers on the
// dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
