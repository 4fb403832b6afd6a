// Package app exposes the scheduling service over HTTP with gin.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"interview-scheduler/internal/calendarsync"
	"interview-scheduler/internal/scheduling"
)

// GoogleSourceFunc opens a Google Calendar source for an OAuth2 token.
type GoogleSourceFunc func(ctx context.Context, token *oauth2.Token, calendarID string) (calendarsync.Source, error)

type App struct {
	Sched  *scheduling.Service
	Sync   *calendarsync.Ingester
	OAuth  *oauth2.Config // nil when Google Calendar is not configured
	Google GoogleSourceFunc
	Log    *zap.Logger
	Now    func() time.Time
}

func New(sched *scheduling.Service, oauth *oauth2.Config, log *zap.Logger) *App {
	a := &App{
		Sched: sched,
		Sync:  calendarsync.NewIngester(sched.BusyBlocks, log),
		OAuth: oauth,
		Log:   log,
		Now:   time.Now,
	}
	a.Google = a.openGoogleSource
	return a
}

func (a *App) openGoogleSource(ctx context.Context, token *oauth2.Token, calendarID string) (calendarsync.Source, error) {
	if a.OAuth == nil {
		return nil, errGoogleNotConfigured
	}
	return calendarsync.NewGoogleSource(ctx, a.OAuth, token, calendarID)
}

var errGoogleNotConfigured = errors.New("google calendar not configured")

// Router builds the gin engine. The OAuth callback and the consent URL
// helper stay outside auth; everything tenant-scoped goes through auth.
func (a *App) Router(auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), a.requestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	api.GET("/calendar/auth", a.GoogleAuthHandler)

	t := api.Group("/tenants/:tenant", auth)
	{
		t.PUT("/settings", a.SetTenantSettingsHandler)

		users := t.Group("/users/:user")
		{
			users.GET("/availability", a.UserAvailabilityHandler)
			users.GET("/working-hours", a.GetWorkingHoursHandler)
			users.PUT("/working-hours", a.SetWorkingHoursHandler)
			users.GET("/working-hours/history", a.WorkingHoursHistoryHandler)
			users.PUT("/profile", a.SetProfileHandler)
			users.GET("/busy-blocks", a.ListBusyBlocksHandler)
			users.POST("/busy-blocks", a.CreateBusyBlockHandler)
			users.POST("/calendar-sync/google", a.GoogleSyncHandler)
			users.POST("/calendar-sync/ics", a.ICSSyncHandler)
		}
		t.DELETE("/busy-blocks/:id", a.DeleteBusyBlockHandler)

		t.POST("/availability/multi", a.MultiAvailabilityHandler)
		t.POST("/availability/team", a.TeamAvailabilityHandler)

		rules := t.Group("/rules")
		{
			rules.GET("", a.ListRulesHandler)
			rules.POST("", a.CreateRuleHandler)
			rules.GET("/default", a.DefaultRuleHandler)
			rules.GET("/:id", a.GetRuleHandler)
			rules.PUT("/:id", a.UpdateRuleHandler)
			rules.DELETE("/:id", a.DeleteRuleHandler)
		}

		slots := t.Group("/slots")
		{
			slots.GET("", a.ListSlotsHandler)
			slots.POST("", a.CreateSlotHandler)
			slots.POST("/generate", a.GenerateSlotsHandler)
			slots.GET("/:id", a.GetSlotHandler)
			slots.DELETE("/:id", a.DeleteSlotHandler)
			slots.POST("/:id/book", a.BookSlotHandler)
			slots.POST("/:id/reschedule", a.RescheduleSlotHandler)
			slots.POST("/:id/cancel", a.CancelSlotHandler)
		}

		t.POST("/suggestions", a.SuggestionsHandler)
	}
	return router
}

func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.Log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// fail maps service errors onto HTTP statuses.
func (a *App) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scheduling.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, scheduling.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scheduling.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, scheduling.ErrForbidden):
		status = http.StatusForbidden
	}

	body := gin.H{"error": err.Error()}
	if status == http.StatusConflict && scheduling.Retryable(err) {
		body["retryable"] = true
	}
	if status == http.StatusInternalServerError {
		a.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// parseRange reads the RFC 3339 from/to query parameters.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		badRequest(c, "from and to required (RFC3339)")
		return time.Time{}, time.Time{}, false
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		badRequest(c, "invalid from")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		badRequest(c, "invalid to")
		return time.Time{}, time.Time{}, false
	}
	if !from.Before(to) {
		badRequest(c, "from must be before to")
		return time.Time{}, time.Time{}, false
	}
	return from.UTC(), to.UTC(), true
}
