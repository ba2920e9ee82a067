package jobs

import (
	"context"
	"time"

	"github.com/dotunfolarin/pressflow/app/site"
)

type JobInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetClass() site.AutomationClass
	GetSiteName() string
	GetState() State
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

// JobSchedulerInterface defines the interface for job scheduling operations.
// Used by the main application and the API layer to manage background job
// processing across the per-class queues.
// Example usage:
//
//	scheduler := NewScheduler(siteRepo, resolver, generator, publisher, socialPublisher, emailPublisher, statusStore)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.Enqueue(NewBlogJob(...))
type JobSchedulerInterface interface {
	Start()
	Stop()
	Enqueue(job JobInterface) error
}
