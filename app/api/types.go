package api

import (
	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/jobs"
	"github.com/dotunfolarin/pressflow/app/site"
)

// JobDispatcherInterface is the slice of the scheduler the API needs: build
// a job for a class and put it on the right queue.
type JobDispatcherInterface interface {
	BuildJob(class site.AutomationClass, siteData *site.Site, scheduleID string) (jobs.JobInterface, error)
	Enqueue(job jobs.JobInterface) error
}

var _ JobDispatcherInterface = (*jobs.Scheduler)(nil)

type Handler struct {
	siteRepo    database.SiteRepository
	configCache *site.ConfigCache
	dispatcher  JobDispatcherInterface
	status      *jobs.StatusStore
}

type enqueueJobRequest struct {
	Class      site.AutomationClass `json:"class" binding:"required"`
	ScheduleID string               `json:"scheduleId"`
}
