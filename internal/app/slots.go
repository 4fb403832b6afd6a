package app

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"interview-scheduler/internal/model"
	"interview-scheduler/internal/scheduling"
	"interview-scheduler/internal/store"
)

// GET /slots?organizer_id=&status=&from=&to=&limit=&offset=
func (a *App) ListSlotsHandler(c *gin.Context) {
	f := store.SlotFilter{
		OrganizerID: c.Query("organizer_id"),
		Status:      model.SlotStatus(strings.ToUpper(c.Query("status"))),
	}
	if f.Status != "" && !f.Status.Valid() {
		badRequest(c, "invalid status")
		return
	}
	for name, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		if v := c.Query(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				badRequest(c, "invalid "+name)
				return
			}
			*dst = t.UTC()
		}
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := c.Query(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				badRequest(c, "invalid "+name)
				return
			}
			*dst = n
		}
	}

	slots, err := a.Sched.Slots.List(c.Request.Context(), c.Param("tenant"), f)
	if err != nil {
		a.fail(c, err)
		return
	}
	if slots == nil {
		slots = []model.InterviewSlot{}
	}
	c.JSON(http.StatusOK, slots)
}

// POST /slots
func (a *App) CreateSlotHandler(c *gin.Context) {
	var in scheduling.CreateSlotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if in.OrganizerID == "" {
		in.OrganizerID = principal(c).Subject
	}
	slot, err := a.Sched.Slots.Create(c.Request.Context(), c.Param("tenant"), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// POST /slots/generate
func (a *App) GenerateSlotsHandler(c *gin.Context) {
	var in scheduling.GenerateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if in.OrganizerID == "" {
		in.OrganizerID = principal(c).Subject
	}
	slots, err := a.Sched.Slots.Generate(c.Request.Context(), c.Param("tenant"), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slots": slots, "count": len(slots)})
}

// GET /slots/:id
func (a *App) GetSlotHandler(c *gin.Context) {
	slot, err := a.Sched.Slots.Get(c.Request.Context(), c.Param("tenant"), c.Param("id"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// DELETE /slots/:id
func (a *App) DeleteSlotHandler(c *gin.Context) {
	if err := a.Sched.Slots.Delete(c.Request.Context(), c.Param("tenant"), c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// POST /slots/:id/book
func (a *App) BookSlotHandler(c *gin.Context) {
	var in scheduling.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	if in.BookedBy == "" {
		in.BookedBy = principal(c).Subject
	}
	slot, err := a.Sched.Slots.Book(c.Request.Context(), c.Param("tenant"), c.Param("id"), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// POST /slots/:id/reschedule
func (a *App) RescheduleSlotHandler(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	slot, err := a.Sched.Slots.Reschedule(c.Request.Context(), c.Param("tenant"), c.Param("id"), req.Start, req.End)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// POST /slots/:id/cancel
func (a *App) CancelSlotHandler(c *gin.Context) {
	var req cancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	slot, err := a.Sched.Slots.Cancel(c.Request.Context(), c.Param("tenant"), c.Param("id"), req.Reason)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// POST /suggestions
func (a *App) SuggestionsHandler(c *gin.Context) {
	var req scheduling.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.TenantID = c.Param("tenant")
	list, err := a.Sched.Suggestions.Suggest(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": list, "count": len(list)})
}
