package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kasuganosora/stalker/game/ai"
	"github.com/kasuganosora/stalker/game/geom"
	"github.com/kasuganosora/stalker/game/world"
	mw "github.com/kasuganosora/stalker/middleware"
	"github.com/kasuganosora/stalker/scheduler"
)

// LevelView is what the debug API needs from a running level.
type LevelView interface {
	Status() world.Status
	Agent(id string) (ai.Status, bool)
	EmitSound(pos geom.Vec2, radius float64) error
	SetPlayerHidden(hidden bool)
	SetPlayerKillable(killable bool)
	MovePlayer(pos geom.Vec2) error
}

// DebugHandler exposes the simulation for inspection and poking.
type DebugHandler struct {
	level  LevelView
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewDebugHandler creates a DebugHandler. sched may be nil.
func NewDebugHandler(level LevelView, sched *scheduler.Scheduler, logger *zap.Logger) *DebugHandler {
	return &DebugHandler{level: level, sched: sched, logger: logger}
}

// Register mounts the read routes openly and the mutating routes behind AdminAuth.
func (h *DebugHandler) Register(r gin.IRouter, adminKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/level", h.Level)
	api.GET("/agents", h.ListAgents)
	api.GET("/agents/:id", h.GetAgent)
	api.GET("/scheduler", h.ListTasks)

	admin := api.Group("", AdminAuth(adminKey))
	admin.POST("/sounds", h.EmitSound)
	admin.POST("/player", h.UpdatePlayer)
}

// Health reports liveness.
// GET /health
func (h *DebugHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Level returns the full level snapshot.
// GET /api/level
func (h *DebugHandler) Level(c *gin.Context) {
	c.JSON(http.StatusOK, h.level.Status())
}

// ListAgents returns every agent's snapshot.
// GET /api/agents
func (h *DebugHandler) ListAgents(c *gin.Context) {
	st := h.level.Status()
	c.JSON(http.StatusOK, gin.H{"agents": st.Agents, "count": len(st.Agents), "tick": st.Tick})
}

// GetAgent returns one agent.
// GET /api/agents/:id
func (h *DebugHandler) GetAgent(c *gin.Context) {
	st, ok := h.level.Agent(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// ListTasks returns the background task statistics.
// GET /api/scheduler
func (h *DebugHandler) ListTasks(c *gin.Context) {
	tasks := []scheduler.TaskInfo{}
	if h.sched != nil {
		tasks = h.sched.Tasks()
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type soundRequest struct {
	X      *float64 `json:"x" binding:"required"`
	Y      *float64 `json:"y" binding:"required"`
	Radius float64  `json:"radius" binding:"required,gt=0"`
}

// EmitSound makes a noise in the level on the next tick.
// POST /api/sounds
func (h *DebugHandler) EmitSound(c *gin.Context) {
	var req soundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pos := geom.V(*req.X, *req.Y)
	if err := h.level.EmitSound(pos, req.Radius); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mw.LoggerFrom(c, h.logger).Info("debug sound queued",
		zap.Float64("x", pos.X), zap.Float64("y", pos.Y), zap.Float64("radius", req.Radius))
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

type playerRequest struct {
	Hidden   *bool      `json:"hidden"`
	Killable *bool      `json:"killable"`
	Position *geom.Vec2 `json:"position"`
}

// UpdatePlayer changes player flags or teleports the player on the next tick.
// POST /api/player
func (h *DebugHandler) UpdatePlayer(c *gin.Context) {
	var req playerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Hidden == nil && req.Killable == nil && req.Position == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to change"})
		return
	}
	if req.Position != nil {
		if err := h.level.MovePlayer(*req.Position); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Hidden != nil {
		h.level.SetPlayerHidden(*req.Hidden)
	}
	if req.Killable != nil {
		h.level.SetPlayerKillable(*req.Killable)
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// AdminAuth guards mutating routes with the X-Admin-Key header.
// With no key configured the routes are disabled.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "debug commands disabled: set server.admin_key in config"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
