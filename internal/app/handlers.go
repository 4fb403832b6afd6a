package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-scheduler/internal/scheduling"
)

// GET /users/:user/availability?from=RFC3339&to=RFC3339
func (a *App) UserAvailabilityHandler(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	userID := c.Param("user")
	free, err := a.Sched.Availability.FreeIntervals(c.Request.Context(), c.Param("tenant"), userID, from, to)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "free": free})
}

// POST /availability/multi
func (a *App) MultiAvailabilityHandler(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := a.Sched.Availability.MultiUserAvailability(c.Request.Context(), scheduling.MultiRequest{
		TenantID:     c.Param("tenant"),
		UserIDs:      req.UserIDs,
		Start:        req.From,
		End:          req.To,
		DurationMins: req.DurationMins,
		RuleID:       req.RuleID,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /availability/team
func (a *App) TeamAvailabilityHandler(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := a.Sched.Availability.TeamAvailability(c.Request.Context(), c.Param("tenant"), req.UserIDs, req.From, req.To)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /users/:user/working-hours
func (a *App) GetWorkingHoursHandler(c *gin.Context) {
	wh, err := a.Sched.WorkingHours.Get(c.Request.Context(), c.Param("tenant"), c.Param("user"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wh)
}

// PUT /users/:user/working-hours
func (a *App) SetWorkingHoursHandler(c *gin.Context) {
	var in scheduling.WorkingHoursInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	wh, err := a.Sched.WorkingHours.Set(c.Request.Context(), actor(c), c.Param("tenant"), c.Param("user"), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wh)
}

// GET /users/:user/working-hours/history
func (a *App) WorkingHoursHistoryHandler(c *gin.Context) {
	list, err := a.Sched.WorkingHours.History(c.Request.Context(), c.Param("tenant"), c.Param("user"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PUT /users/:user/profile
func (a *App) SetProfileHandler(c *gin.Context) {
	var req timezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := a.Sched.WorkingHours.SetUserTimezone(c.Request.Context(), actor(c), c.Param("tenant"), c.Param("user"), req.Timezone)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PUT /settings
func (a *App) SetTenantSettingsHandler(c *gin.Context) {
	var req timezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	s, err := a.Sched.WorkingHours.SetTenantTimezone(c.Request.Context(), actor(c), c.Param("tenant"), req.Timezone)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GET /users/:user/busy-blocks?from=RFC3339&to=RFC3339
func (a *App) ListBusyBlocksHandler(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	blocks, err := a.Sched.BusyBlocks.List(c.Request.Context(), c.Param("tenant"), c.Param("user"), from, to)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

// POST /users/:user/busy-blocks
func (a *App) CreateBusyBlockHandler(c *gin.Context) {
	var in scheduling.BusyBlockInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	b, err := a.Sched.BusyBlocks.Create(c.Request.Context(), actor(c), c.Param("tenant"), c.Param("user"), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// DELETE /busy-blocks/:id
func (a *App) DeleteBusyBlockHandler(c *gin.Context) {
	if err := a.Sched.BusyBlocks.Delete(c.Request.Context(), actor(c), c.Param("tenant"), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GET /rules
func (a *App) ListRulesHandler(c *gin.Context) {
	rules, err := a.Sched.Rules.List(c.Request.Context(), c.Param("tenant"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// GET /rules/default
func (a *App) DefaultRuleHandler(c *gin.Context) {
	rule, err := a.Sched.Rules.DefaultRule(c.Request.Context(), c.Param("tenant"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// GET /rules/:id
func (a *App) GetRuleHandler(c *gin.Context) {
	rule, err := a.Sched.Rules.Get(c.Request.Context(), c.Param("tenant"), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// POST /rules
func (a *App) CreateRuleHandler(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var in scheduling.RuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	rule, err := a.Sched.Rules.Create(c.Request.Context(), c.Param("tenant"), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// PUT /rules/:id
func (a *App) UpdateRuleHandler(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	var in scheduling.RuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	rule, err := a.Sched.Rules.Update(c.Request.Context(), c.Param("tenant"), c.Param("id"), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// DELETE /rules/:id
func (a *App) DeleteRuleHandler(c *gin.Context) {
	if !requireAdmin(c) {
		return
	}
	if err := a.Sched.Rules.Delete(c.Request.Context(), c.Param("tenant"), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
