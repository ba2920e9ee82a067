package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/jobs"
	"github.com/dotunfolarin/pressflow/app/site"
)

type stubRepo struct {
	site *site.Site
}

var _ database.SiteRepository = (*stubRepo)(nil)

func (r *stubRepo) GetSite(name string) (*site.Site, error) {
	if r.site == nil || r.site.Name != name {
		return nil, database.ErrSiteNotFound
	}
	return r.site, nil
}

func (r *stubRepo) GetSitesByOwner(ownerID string) ([]*site.Site, error) { return nil, nil }

func (r *stubRepo) ListSites() ([]database.SiteRecord, error) { return nil, nil }

func (r *stubRepo) GetSiteCount() (int, error) { return 1, nil }

func (r *stubRepo) RegisterSite(s *site.Site) (bool, error) { return false, nil }

func (r *stubRepo) UpdateSite(name string, fn func(*site.Site) error) error { return nil }

type stubDispatcher struct {
	class      site.AutomationClass
	scheduleID string
	enqueued   jobs.JobInterface
}

func (d *stubDispatcher) BuildJob(class site.AutomationClass, siteData *site.Site, scheduleID string) (jobs.JobInterface, error) {
	d.class = class
	d.scheduleID = scheduleID
	return jobs.NewBlogJob(siteData.Name, siteData.OwnerID, site.SourceResult{Type: site.SourceKeyword, Topic: "Ai Trends"}, scheduleID, nil, nil, nil, nil), nil
}

func (d *stubDispatcher) Enqueue(job jobs.JobInterface) error {
	d.enqueued = job
	return nil
}

func readyBlogSite() *site.Site {
	return &site.Site{
		Name:                  "acme-blog",
		OwnerID:               "user-1",
		WordPressURL:          "https://acme.example.com",
		WordPressUsername:     "editor",
		WordPressPassword:     "app-password",
		DailyGenerationSource: site.SourceKeyword,
		KeywordList:           "ai trends",
		Blog:                  site.BlogAutomation{Enabled: true},
	}
}

func TestAPIEnqueueJobForwardsScheduleID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dispatcher := &stubDispatcher{}
	handler := NewHandler(&stubRepo{site: readyBlogSite()}, site.NewConfigCache(t.TempDir()), dispatcher, jobs.NewStatusStore())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "name", Value: "acme-blog"}}
	c.Request = httptest.NewRequest("POST", "/api/sites/acme-blog/jobs", strings.NewReader(`{"class":"blog","scheduleId":"sched-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.APIEnqueueJob(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if dispatcher.class != site.ClassBlog {
		t.Errorf("Expected blog class dispatched, got %s", dispatcher.class)
	}
	if dispatcher.scheduleID != "sched-1" {
		t.Errorf("Expected schedule id forwarded to the dispatcher, got %q", dispatcher.scheduleID)
	}
	if dispatcher.enqueued == nil {
		t.Fatal("Expected job to be enqueued")
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response body: %v", err)
	}
	if resp["job_id"] != dispatcher.enqueued.GetID() {
		t.Errorf("Expected response job_id %q, got %v", dispatcher.enqueued.GetID(), resp["job_id"])
	}
}

func TestAPIEnqueueJobRejectsUnreadyClass(t *testing.T) {
	gin.SetMode(gin.TestMode)

	seed := readyBlogSite()
	seed.WordPressURL = ""

	dispatcher := &stubDispatcher{}
	handler := NewHandler(&stubRepo{site: seed}, site.NewConfigCache(t.TempDir()), dispatcher, jobs.NewStatusStore())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "name", Value: "acme-blog"}}
	c.Request = httptest.NewRequest("POST", "/api/sites/acme-blog/jobs", strings.NewReader(`{"class":"blog"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.APIEnqueueJob(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for unready automation, got %d", w.Code)
	}
	if dispatcher.enqueued != nil {
		t.Error("Expected no job enqueued for unready automation")
	}
}
