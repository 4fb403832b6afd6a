package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"interview-scheduler/internal/calendarsync"
	"interview-scheduler/internal/interval"
)

const maxICSBytes = 5 << 20

// GET /api/calendar/auth?user_id=
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	state := fmt.Sprintf("user_%s_%d", c.Query("user_id"), a.Now().Unix())
	url := a.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback?code=&state=
// The token is handed back to the caller, who passes it in X-Google-Token
// when syncing.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		badRequest(c, "authorization code required")
		return
	}
	token, err := a.OAuth.Exchange(c.Request.Context(), code)
	if err != nil {
		a.Log.Warn("oauth code exchange failed", zap.Error(err))
		badRequest(c, "failed to exchange code for token")
		return
	}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Authorization successful",
		"state":   c.Query("state"),
		"token":   string(tokenJSON),
	})
}

// POST /users/:user/calendar-sync/google
// Header X-Google-Token carries the JSON token from /oauth2callback.
func (a *App) GoogleSyncHandler(c *gin.Context) {
	userID := c.Param("user")
	if !requireSelf(c, userID) {
		return
	}
	tokenStr := c.GetHeader("X-Google-Token")
	if tokenStr == "" {
		badRequest(c, "Google token required in X-Google-Token header")
		return
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		badRequest(c, "invalid token format")
		return
	}
	var req syncWindow
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	window := interval.Interval{Start: req.From.UTC(), End: req.To.UTC()}
	if !window.Valid() {
		badRequest(c, "from must be before to")
		return
	}
	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	ctx := c.Request.Context()
	src, err := a.Google(ctx, &token, calendarID)
	if errors.Is(err, errGoogleNotConfigured) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	if err != nil {
		a.fail(c, err)
		return
	}
	a.sync(c, userID, calendarsync.BatchID("google", userID, calendarID), src, window)
}

// POST /users/:user/calendar-sync/ics?from=RFC3339&to=RFC3339&calendar=name
// The body is an iCalendar document.
func (a *App) ICSSyncHandler(c *gin.Context) {
	userID := c.Param("user")
	if !requireSelf(c, userID) {
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	loc, err := a.Sched.Availability.UserLocation(ctx, c.Param("tenant"), userID)
	if err != nil {
		a.fail(c, err)
		return
	}
	src, err := calendarsync.ParseICS(http.MaxBytesReader(c.Writer, c.Request.Body, maxICSBytes), loc)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	name := c.DefaultQuery("calendar", "ics")
	a.sync(c, userID, calendarsync.BatchID("ics", userID, name), src, interval.Interval{Start: from, End: to})
}

func (a *App) sync(c *gin.Context, userID, batchID string, src calendarsync.Source, window interval.Interval) {
	n, err := a.Sync.Sync(c.Request.Context(), c.Param("tenant"), userID, batchID, src, window)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"batch_id":  batchID,
		"blocks":    n,
		"synced_at": a.Now().UTC().Format(time.RFC3339),
	})
}
