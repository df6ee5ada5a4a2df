package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/try-to-fly/vertrack/app/cache"
	"github.com/try-to-fly/vertrack/app/database"
)

func NewHandler(softwareRepo database.SoftwareRepository, settingsRepo database.SettingsRepository,
	versionChecker CheckerInterface, checkScheduler SchedulerInterface,
	versionCache *cache.Cache) *Handler {
	return &Handler{
		softwareRepo: softwareRepo,
		settingsRepo: settingsRepo,
		checker:      versionChecker,
		scheduler:    checkScheduler,
		cache:        versionCache,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.softwareRepo.GetCount(); err == nil {
		health["softwares"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"cached_versions": h.cache.Len(),
	}

	if count, err := h.softwareRepo.GetCount(); err == nil {
		stats["softwares"] = count
	}

	if items, err := h.softwareRepo.GetEnabled(); err == nil {
		stats["enabled"] = len(items)
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListSoftwares(c *gin.Context) {
	items, err := h.softwareRepo.GetAll()
	if err != nil {
		slog.Error("Database error", "operation", "list_softwares", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"softwares": items,
		"total":     len(items),
	})
}

func (h *Handler) CreateSoftware(c *gin.Context) {
	var req SoftwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if _, ok := database.ParseSourceType(string(req.Source.Type)); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown source type"})
		return
	}
	if req.Source.Identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source identifier is required"})
		return
	}

	if _, err := h.softwareRepo.GetByName(req.Name); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Software with this name already exists"})
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		slog.Error("Database error", "operation", "create_software", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	sw := database.Software{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Source:     req.Source,
		LocalProbe: req.Local,
		Enabled:    enabled,
	}

	if err := h.softwareRepo.Insert(sw); err != nil {
		slog.Error("Database error", "operation", "create_software", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, sw)
}

func (h *Handler) UpdateSoftware(c *gin.Context) {
	id := c.Param("id")

	var req SoftwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if _, ok := database.ParseSourceType(string(req.Source.Type)); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown source type"})
		return
	}

	sw, err := h.softwareRepo.Get(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Software not found"})
			return
		}
		slog.Error("Database error", "operation", "update_software", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	sourceChanged := sw.Source != req.Source

	sw.Name = req.Name
	sw.Source = req.Source
	sw.LocalProbe = req.Local
	if req.Enabled != nil {
		sw.Enabled = *req.Enabled
	}

	if err := h.softwareRepo.Update(*sw); err != nil {
		slog.Error("Database error", "operation", "update_software", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// A changed source invalidates the cached version for this item.
	if sourceChanged {
		h.cache.Invalidate(id)
	}

	c.JSON(http.StatusOK, sw)
}

func (h *Handler) DeleteSoftware(c *gin.Context) {
	id := c.Param("id")

	if err := h.softwareRepo.Delete(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Software not found"})
			return
		}
		slog.Error("Database error", "operation", "delete_software", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	h.cache.Invalidate(id)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ToggleSoftware(c *gin.Context) {
	id := c.Param("id")

	sw, err := h.softwareRepo.Get(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Software not found"})
			return
		}
		slog.Error("Database error", "operation", "toggle_software", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := h.softwareRepo.SetEnabled(id, !sw.Enabled); err != nil {
		slog.Error("Database error", "operation", "toggle_software", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "enabled": !sw.Enabled})
}

func (h *Handler) CheckSoftware(c *gin.Context) {
	id := c.Param("id")
	forceRefresh := c.Query("force") == "true"

	sw, err := h.softwareRepo.Get(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Software not found"})
			return
		}
		slog.Error("Database error", "operation", "check_software", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	settings, err := h.settingsRepo.LoadAppSettings()
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	result, err := h.checker.CheckOne(c.Request.Context(), *sw, settings.GithubToken, forceRefresh)
	if err != nil {
		slog.Error("Version check failed", "software", sw.Name, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Version check failed", "details": err.Error()})
		return
	}

	if err := h.softwareRepo.UpdateCheckResult(id, result.LatestVersion, result.LocalVersion, result.PublishedAt, time.Now()); err != nil {
		slog.Error("Failed to persist check result", "software", sw.Name, "error", err)
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) CheckAll(c *gin.Context) {
	results, err := h.scheduler.RunCheck(c.Request.Context())
	if err != nil {
		slog.Error("Check cycle failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Check cycle failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}

func (h *Handler) ClearCache(c *gin.Context) {
	h.cache.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.settingsRepo.LoadAppSettings()
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	// The token itself never leaves the server.
	hasToken := settings.GithubToken != ""
	settings.GithubToken = ""

	c.JSON(http.StatusOK, gin.H{
		"settings":         settings,
		"has_github_token": hasToken,
	})
}

// UpdateSettings persists new settings and applies them immediately: the
// cache picks up the new TTL for future entries and the refresh loop is
// restarted with the new interval.
//
// GetSettings withholds the token, so a round-tripped settings body carries
// an empty one. An empty token therefore means "keep the stored token";
// clearing it requires the explicit clearGithubToken flag.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req struct {
		database.AppSettings
		ClearGithubToken bool `json:"clearGithubToken,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	settings := req.AppSettings
	if settings.GithubToken == "" && !req.ClearGithubToken {
		current, err := h.settingsRepo.LoadAppSettings()
		if err != nil {
			slog.Error("Failed to load settings", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
			return
		}
		settings.GithubToken = current.GithubToken
	}

	if err := h.settingsRepo.SaveAppSettings(settings); err != nil {
		slog.Error("Failed to save settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	h.cache.SetTTL(settings.Cache.TTLMinutes)

	if settings.Cache.AutoRefreshEnabled {
		h.scheduler.Start(settings.Cache.AutoRefreshInterval)
	} else {
		h.scheduler.Stop()
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
