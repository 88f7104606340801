package leaderboard

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/copilot-pulse/backend/internal/auth"
	"github.com/copilot-pulse/backend/internal/middleware"
	"github.com/copilot-pulse/backend/pkg/queue"
	"github.com/copilot-pulse/backend/pkg/response"
)

// Handler serves the per-organization read endpoints and the JWT-guarded
// collect triggers.
type Handler struct {
	repo       *Repository
	jobs       *queue.Queue
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewHandler creates a leaderboard handler.
func NewHandler(repo *Repository, jobs *queue.Queue, jwtService *auth.JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jobs: jobs, jwtService: jwtService, logger: logger}
}

// RegisterRoutes mounts the org routes. Reads are public; the collect and
// rebuild triggers require an operator token.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orgs := r.Group("/orgs/:slug")
	orgs.GET("/adoption", h.Adoption)
	orgs.GET("/teams", h.Teams)
	orgs.GET("/seats", h.Seats)
	orgs.GET("/usage", h.Usage)

	guarded := orgs.Group("", middleware.JWT(h.jwtService))
	guarded.POST("/collect", h.Collect)
	guarded.POST("/rebuild", h.Rebuild)
}

// Adoption handles GET /orgs/:slug/adoption.
func (h *Handler) Adoption(c *gin.Context) {
	docs, err := h.repo.Adoption(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.logger.Error("adoption read failed", zap.String("org", c.Param("slug")), zap.Error(err))
		response.Internal(c, "could not load adoption leaderboard")
		return
	}
	response.OK(c, docs)
}

// Teams handles GET /orgs/:slug/teams.
func (h *Handler) Teams(c *gin.Context) {
	docs, err := h.repo.Teams(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.logger.Error("teams read failed", zap.String("org", c.Param("slug")), zap.Error(err))
		response.Internal(c, "could not load teams")
		return
	}
	response.OK(c, docs)
}

// Seats handles GET /orgs/:slug/seats. The seat settings summary rides along
// with the per-assignee rows.
func (h *Handler) Seats(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")
	assignments, err := h.repo.Seats(ctx, slug)
	if err != nil {
		h.logger.Error("seats read failed", zap.String("org", slug), zap.Error(err))
		response.Internal(c, "could not load seats")
		return
	}
	settings, err := h.repo.SeatInfo(ctx, slug)
	if err != nil {
		h.logger.Error("seat info read failed", zap.String("org", slug), zap.Error(err))
		response.Internal(c, "could not load seat settings")
		return
	}
	response.OK(c, gin.H{"settings": settings, "assignments": assignments})
}

// Usage handles GET /orgs/:slug/usage?team=<slug>&days=<n>.
func (h *Handler) Usage(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "28"))
	docs, err := h.repo.Usage(c.Request.Context(), c.Param("slug"), c.Query("team"), days)
	if err != nil {
		h.logger.Error("usage read failed", zap.String("org", c.Param("slug")), zap.Error(err))
		response.Internal(c, "could not load usage")
		return
	}
	response.OK(c, docs)
}

// Collect handles POST /orgs/:slug/collect: enqueue a full collection cycle.
func (h *Handler) Collect(c *gin.Context) {
	h.enqueue(c, queue.JobTypeCollectOrg)
}

// Rebuild handles POST /orgs/:slug/rebuild: recompute the adoption
// leaderboard from stored user metrics.
func (h *Handler) Rebuild(c *gin.Context) {
	h.enqueue(c, queue.JobTypeRebuildAdoption)
}

func (h *Handler) enqueue(c *gin.Context, jobType queue.JobType) {
	slug := c.Param("slug")
	jobID, err := h.jobs.Enqueue(c.Request.Context(), jobType, queue.CollectPayload{OrganizationSlug: slug})
	if err != nil {
		h.logger.Error("enqueue failed", zap.String("org", slug), zap.Error(err))
		response.Internal(c, "could not enqueue job")
		return
	}
	response.Accepted(c, gin.H{"job_id": jobID, "type": string(jobType), "organization_slug": slug})
}
