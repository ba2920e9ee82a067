package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dotunfolarin/pressflow/app/site"
)

const (
	DefaultMaxRetries = 3
)

type Job struct {
	ID         string
	Class      site.AutomationClass
	SiteName   string
	UserID     string
	Source     site.SourceResult
	ScheduleID string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time

	state  State
	status *StatusStore
}

func NewJob(class site.AutomationClass, siteName string, userID string, source site.SourceResult, scheduleID string, status *StatusStore) Job {
	return Job{
		ID:         uuid.NewString(),
		Class:      class,
		SiteName:   siteName,
		UserID:     userID,
		Source:     source,
		ScheduleID: scheduleID,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
		state:      StateQueued,
		status:     status,
	}
}

func (j *Job) GetID() string {
	return j.ID
}

func (j *Job) GetClass() site.AutomationClass {
	return j.Class
}

func (j *Job) GetSiteName() string {
	return j.SiteName
}

func (j *Job) GetRetryCount() int {
	return j.RetryCount
}

func (j *Job) GetMaxRetries() int {
	return j.MaxRetries
}

func (j *Job) IncrementRetryCount() {
	j.RetryCount++
}

func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Start marks the beginning of an execution attempt. Retried jobs re-enter
// the state machine at queued; publish idempotency keys and consumption
// checks keep repeated attempts from duplicating side effects.
func (j *Job) Start() {
	now := time.Now()
	j.StartedAt = &now

	if j.state != StateQueued {
		j.state = StateQueued
		j.publish("")
	}
}

func (j *Job) GetDuration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	return time.Since(*j.StartedAt)
}

func (j *Job) GetState() State {
	return j.state
}

func (j *Job) advance(next State) error {
	if !j.state.CanTransitionTo(next) {
		return fmt.Errorf("invalid state transition: %s -> %s", j.state, next)
	}

	j.state = next
	j.publish("")

	return nil
}

// fail moves the job to the error state and returns the wrapped cause, so
// processors can end an Execute path with a single return statement.
func (j *Job) fail(err error, context string) error {
	j.state = StateError
	j.publish(err.Error())

	return fmt.Errorf("%s: %w", context, err)
}

func (j *Job) publish(detail string) {
	if j.status == nil {
		return
	}

	j.status.Publish(StatusUpdate{
		JobID:  j.ID,
		Site:   j.SiteName,
		Class:  j.Class,
		State:  j.state,
		Detail: detail,
	})
}
