package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/jobs"
	"github.com/dotunfolarin/pressflow/app/site"
)

func NewHandler(siteRepo database.SiteRepository, configCache *site.ConfigCache,
	dispatcher JobDispatcherInterface, status *jobs.StatusStore) *Handler {
	return &Handler{
		siteRepo:    siteRepo,
		configCache: configCache,
		dispatcher:  dispatcher,
		status:      status,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if siteCount, err := h.siteRepo.GetSiteCount(); err == nil {
		health["sites"] = siteCount
	}

	health["loaded_seeds"] = h.configCache.GetSeedCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if siteCount, err := h.siteRepo.GetSiteCount(); err == nil {
		stats["sites"] = siteCount
	}

	byState := map[jobs.State]int{}
	for _, update := range h.status.Recent() {
		byState[update.State]++
	}
	stats["recent_jobs_by_state"] = byState

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListSites(c *gin.Context) {
	records, err := h.siteRepo.ListSites()
	if err != nil {
		slog.Error("Database error", "operation", "list_sites", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	sites := make([]map[string]interface{}, 0, len(records))

	for _, record := range records {
		siteInfo := map[string]interface{}{
			"name":       record.Name,
			"owner_id":   record.OwnerID,
			"updated_at": record.UpdatedAt,
		}

		if siteData, err := h.siteRepo.GetSite(record.Name); err == nil {
			readiness := site.CheckAutomationReadiness(siteData)
			siteInfo["readiness"] = readiness
			siteInfo["history_count"] = len(siteData.History)
			siteInfo["draft_count"] = len(siteData.Drafts)
		}

		sites = append(sites, siteInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sites": sites,
		"total": len(sites),
	})
}

func (h *Handler) APIGetSite(c *gin.Context) {
	siteData, ok := h.loadSite(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"name":                siteData.Name,
		"owner_id":            siteData.OwnerID,
		"readiness":           site.CheckAutomationReadiness(siteData),
		"blog":                siteData.Blog,
		"social_graphic":      siteData.SocialGraphic,
		"social_video":        siteData.SocialVideo,
		"email":               siteData.Email,
		"broadcast":           siteData.Broadcast,
		"history_count":       len(siteData.History),
		"draft_count":         len(siteData.Drafts),
		"last_auto_pilot_run": siteData.LastAutoPilotRun,
	})
}

func (h *Handler) APIGetSiteReadiness(c *gin.Context) {
	siteData, ok := h.loadSite(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, site.CheckAutomationReadiness(siteData))
}

func (h *Handler) APIGetSiteHistory(c *gin.Context) {
	siteData, ok := h.loadSite(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"history": siteData.History,
		"total":   len(siteData.History),
	})
}

func (h *Handler) APIGetSiteUsage(c *gin.Context) {
	siteData, ok := h.loadSite(c)
	if !ok {
		return
	}

	var total float64
	for _, cost := range siteData.APIUsage {
		total += cost
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"by_provider": siteData.APIUsage,
		"total":       total,
	})
}

// APIEnqueueJob runs one automation class for a site on demand, subject to
// the same readiness gate the periodic tick applies.
func (h *Handler) APIEnqueueJob(c *gin.Context) {
	siteData, ok := h.loadSite(c)
	if !ok {
		return
	}

	var req enqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	switch req.Class {
	case site.ClassBlog, site.ClassSocialGraphic, site.ClassSocialVideo, site.ClassEmail, site.ClassBroadcast:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown automation class", "class": string(req.Class)})
		return
	}

	readiness := site.CheckAutomationReadiness(siteData)
	if !readiness.ForClass(req.Class) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Automation is not ready to run",
			"class":     string(req.Class),
			"readiness": readiness,
		})
		return
	}

	job, err := h.dispatcher.BuildJob(req.Class, siteData, req.ScheduleID)
	if err != nil {
		slog.Error("Failed to build job", "site", siteData.Name, "class", string(req.Class), "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to prepare job", "details": err.Error()})
		return
	}

	if err := h.dispatcher.Enqueue(job); err != nil {
		slog.Error("Failed to enqueue job", "site", siteData.Name, "class", string(req.Class), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue unavailable", "details": err.Error()})
		return
	}

	slog.Info("Job enqueued via API", "site", siteData.Name, "class", string(req.Class), "id", job.GetID())

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.GetID(),
		"class":  string(req.Class),
		"site":   siteData.Name,
	})
}

func (h *Handler) APIRecentJobs(c *gin.Context) {
	updates := h.status.Recent()

	c.JSON(http.StatusOK, map[string]interface{}{
		"updates": updates,
		"total":   len(updates),
	})
}

func (h *Handler) loadSite(c *gin.Context) (*site.Site, bool) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing site name parameter"})
		return nil, false
	}

	siteData, err := h.siteRepo.GetSite(name)
	if err != nil {
		if errors.Is(err, database.ErrSiteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Site not found"})
			return nil, false
		}
		slog.Error("Database error", "operation", "get_site", "site", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}

	return siteData, true
}
