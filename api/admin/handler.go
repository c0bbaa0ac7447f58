// Package admin serves the inspection and maintenance HTTP endpoints.
package admin

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/itemruntime/game/equip"
	"github.com/kasuganosora/itemruntime/game/item"
	"github.com/kasuganosora/itemruntime/game/player"
	"github.com/kasuganosora/itemruntime/host"
	mw "github.com/kasuganosora/itemruntime/middleware"
	"github.com/kasuganosora/itemruntime/scheduler"
	"go.uber.org/zap"
)

// Handler handles admin-only REST endpoints.
// Routes should be protected by the AdminKey middleware.
type Handler struct {
	host    *host.Host
	sched   *scheduler.Scheduler
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(h *host.Host, sched *scheduler.Scheduler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{host: h, sched: sched, timeout: 10 * time.Second, logger: logger}
}

// Register mounts the health check on r and the admin routes under
// /api/admin behind the admin key.
func (h *Handler) Register(r gin.IRouter, adminKey string) {
	r.GET("/health", h.Health)

	g := r.Group("/api/admin")
	g.Use(mw.AdminKey(adminKey))
	g.GET("/metrics", h.Metrics)
	g.GET("/owners", h.ListOwners)
	g.POST("/owners/:id/open", h.OpenOwner)
	g.POST("/owners/:id/close", h.CloseOwner)
	g.GET("/owners/:id/inventory", h.Inventory)
	g.GET("/owners/:id/equipment", h.Equipment)
	g.GET("/owners/:id/bonuses", h.Bonuses)
	g.POST("/owners/:id/items", h.GrantItem)
	g.POST("/owners/:id/equipment/:slot/damage", h.DamageEquipment)
	g.POST("/owners/:id/equipment/:slot/repair", h.RepairEquipment)
	g.POST("/owners/:id/save", h.Save)
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.host.Sessions().Count()})
}

// Metrics returns runtime counters.
// GET /api/admin/metrics
func (h *Handler) Metrics(c *gin.Context) {
	var tasks []string
	if h.sched != nil {
		tasks = h.sched.ListTickers()
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions":        h.host.Sessions().Count(),
		"scheduler_tasks": tasks,
	})
}

type ownerInfo struct {
	Owner     string        `json:"owner"`
	UsedSlots int           `json:"used_slots"`
	Capacity  int           `json:"capacity"`
	Equipped  int           `json:"equipped"`
	Vitals    player.Vitals `json:"vitals"`
}

// ListOwners returns a summary of every open session.
// GET /api/admin/owners
func (h *Handler) ListOwners(c *gin.Context) {
	sessions := h.host.Sessions().All()
	result := make([]ownerInfo, 0, len(sessions))
	for _, s := range sessions {
		info := ownerInfo{Owner: s.OwnerID}
		s.Do(func(v player.View) {
			info.UsedSlots = v.Inventory().UsedSlots()
			info.Capacity = v.Inventory().Capacity()
			info.Equipped = len(v.Equipment().Bound())
			info.Vitals = v.Character().Vitals()
		})
		result = append(result, info)
	}
	c.JSON(http.StatusOK, gin.H{"owners": result, "count": len(result)})
}

func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// OpenOwner loads an owner's session.
// POST /api/admin/owners/:id/open {"level":n}
func (h *Handler) OpenOwner(c *gin.Context) {
	var req struct {
		Level int                `json:"level"`
		Mode  item.CharacterMode `json:"mode"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}
	}
	if req.Level < 1 {
		req.Level = 1
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	s, err := h.host.Open(ctx, c.Param("id"), player.Profile{Level: req.Level, Mode: req.Mode})
	if err != nil {
		h.logger.Error("admin open failed", zap.String("owner", c.Param("id")), zap.Error(err),
			zap.String("trace_id", mw.GetTraceID(c)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "open failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "owner": s.OwnerID})
}

// CloseOwner saves and closes an owner's session.
// POST /api/admin/owners/:id/close
func (h *Handler) CloseOwner(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	err := h.host.Close(ctx, c.Param("id"))
	switch {
	case errors.Is(err, host.ErrNotOpen):
		c.JSON(http.StatusNotFound, gin.H{"error": "owner not open"})
	case err != nil:
		h.logger.Error("admin close save failed", zap.String("owner", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed, session closed"})
	default:
		h.logger.Info("admin closed session", zap.String("owner", c.Param("id")))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (h *Handler) session(c *gin.Context) *player.Session {
	s := h.host.Sessions().Get(c.Param("id"))
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "owner not open"})
	}
	return s
}

type instanceInfo struct {
	ID         string              `json:"id"`
	TemplateID string              `json:"template_id"`
	Name       string              `json:"name"`
	Durability int                 `json:"durability"`
	Equipped   bool                `json:"equipped"`
	Generated  []item.StatModifier `json:"generated_stats,omitempty"`
}

func describe(inst *item.Instance) instanceInfo {
	return instanceInfo{
		ID:         inst.ID(),
		TemplateID: inst.TemplateID(),
		Name:       inst.Name(),
		Durability: inst.Durability(),
		Equipped:   inst.Equipped(),
		Generated:  inst.GeneratedStats(),
	}
}

type slotInfo struct {
	Index    int          `json:"index"`
	Quantity int          `json:"quantity"`
	Item     instanceInfo `json:"item"`
}

// Inventory dumps an owner's occupied slots.
// GET /api/admin/owners/:id/inventory
func (h *Handler) Inventory(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}
	var slots []slotInfo
	var capacity int
	s.Do(func(v player.View) {
		capacity = v.Inventory().Capacity()
		for _, sv := range v.Inventory().Occupied() {
			slots = append(slots, slotInfo{Index: sv.Index, Quantity: sv.Quantity, Item: describe(sv.Instance)})
		}
	})
	c.JSON(http.StatusOK, gin.H{"owner": s.OwnerID, "capacity": capacity, "slots": slots})
}

type setInfo struct {
	ID     string       `json:"id"`
	Pieces int          `json:"pieces"`
	Active []equip.Tier `json:"active"`
}

// Equipment dumps an owner's bindings and set progress.
// GET /api/admin/owners/:id/equipment
func (h *Handler) Equipment(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}
	bindings := make(map[string]instanceInfo)
	var sets []setInfo
	s.Do(func(v player.View) {
		seen := make(map[string]bool)
		for _, b := range v.Equipment().Bound() {
			bindings[b.Slot.String()] = describe(b.Instance)
			id := b.Instance.Template().SetID()
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			sets = append(sets, setInfo{ID: id, Pieces: v.Sets().PieceCount(id), Active: v.Sets().ActiveTiers(id)})
		}
	})
	sort.Slice(sets, func(i, j int) bool { return sets[i].ID < sets[j].ID })
	c.JSON(http.StatusOK, gin.H{"owner": s.OwnerID, "bindings": bindings, "sets": sets})
}

// Bonuses returns the combined bonus table and resulting stats.
// GET /api/admin/owners/:id/bonuses
func (h *Handler) Bonuses(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}
	var total item.StatTable
	var stats map[item.StatKind]float64
	var vitals player.Vitals
	s.Do(func(v player.View) {
		total = v.TotalBonuses()
		stats = v.Stats()
		vitals = v.Character().Vitals()
	})
	c.JSON(http.StatusOK, gin.H{"owner": s.OwnerID, "bonuses": total, "stats": stats, "vitals": vitals})
}

// GrantItem adds fresh units of a template to an owner's inventory.
// POST /api/admin/owners/:id/items {"template_id":"...","quantity":n}
func (h *Handler) GrantItem(c *gin.Context) {
	var req struct {
		TemplateID string `json:"template_id" binding:"required"`
		Quantity   int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	s := h.session(c)
	if s == nil {
		return
	}
	res, err := s.AddItem(req.TemplateID, req.Quantity)
	if errors.Is(err, item.ErrUnknownTemplate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown template"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("admin granted item",
		zap.String("owner", s.OwnerID),
		zap.String("template", req.TemplateID),
		zap.Int("added", res.Added),
		zap.Int("dropped", res.Dropped))
	c.JSON(http.StatusOK, gin.H{"added": res.Added, "dropped": res.Dropped, "reason": res.Reason})
}

// DamageEquipment wears down the item worn in a slot.
// POST /api/admin/owners/:id/equipment/:slot/damage {"amount":n}
func (h *Handler) DamageEquipment(c *gin.Context) {
	var req struct {
		Amount int `json:"amount" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	h.wear(c, func(s *player.Session, kind item.SlotKind) item.Reason {
		return s.DamageEquipment(kind, req.Amount)
	})
}

// RepairEquipment restores the item worn in a slot to full durability.
// POST /api/admin/owners/:id/equipment/:slot/repair
func (h *Handler) RepairEquipment(c *gin.Context) {
	h.wear(c, (*player.Session).RepairEquipment)
}

func (h *Handler) wear(c *gin.Context, fn func(*player.Session, item.SlotKind) item.Reason) {
	kind := item.ParseSlotKind(c.Param("slot"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown slot"})
		return
	}
	s := h.session(c)
	if s == nil {
		return
	}
	if r := fn(s, kind); !r.OK() {
		c.JSON(http.StatusConflict, gin.H{"error": r})
		return
	}
	var info instanceInfo
	var broken bool
	s.Do(func(v player.View) {
		inst := v.Equipment().Get(kind)
		info = describe(inst)
		broken = inst.Broken()
	})
	c.JSON(http.StatusOK, gin.H{"slot": kind, "item": info, "broken": broken})
}

// Save forces a save of one owner.
// POST /api/admin/owners/:id/save
func (h *Handler) Save(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	err := h.host.Save(ctx, c.Param("id"))
	switch {
	case errors.Is(err, host.ErrNotOpen):
		c.JSON(http.StatusNotFound, gin.H{"error": "owner not open"})
	case err != nil:
		h.logger.Error("admin save failed", zap.String("owner", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
