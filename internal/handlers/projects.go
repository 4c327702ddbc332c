package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fundraising-backend/internal/models"
	"fundraising-backend/internal/progress"
)

// ProjectDirectory is the subset of the database client the project
// handlers need.
type ProjectDirectory interface {
	CreateProject(p *models.Project) (*models.Project, error)
	GetProject(projectID uuid.UUID) (*models.Project, error)
	ListProjects(ownerID uuid.UUID) ([]models.Project, error)
	DeleteProject(projectID uuid.UUID) error
}

// ProgressComputer derives the current fundraising figures for a
// project read. Implemented by services.BalanceRefreshService.
type ProgressComputer interface {
	ComputeProgress(project *models.Project) (progress.Result, bool, error)
}

// MediaCleaner removes every stored object under a project's media
// prefix, confirmed or not. Implemented by supabase.StorageClient.
type MediaCleaner interface {
	DeleteProjectMedia(projectID string) error
}

type ProjectsHandler struct {
	store    ProjectDirectory
	progress ProgressComputer
	cleaner  MediaCleaner
}

func NewProjectsHandler(store ProjectDirectory, progressComputer ProgressComputer, cleaner MediaCleaner) *ProjectsHandler {
	return &ProjectsHandler{
		store:    store,
		progress: progressComputer,
		cleaner:  cleaner,
	}
}

func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return
	}

	goalAmount, err := parseAmount(req.GoalAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid goal_amount", Message: err.Error()})
		return
	}
	legacyRaised, err := parseAmount(req.LegacyRaisedAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid legacy_raised_amount", Message: err.Error()})
		return
	}

	currency := req.GoalCurrency
	if currency == "" {
		currency = "USD"
	}

	project, err := h.store.CreateProject(&models.Project{
		OwnerID:            userID,
		Name:               req.Name,
		Description:        req.Description,
		BitcoinAddress:     req.BitcoinAddress,
		GoalAmount:         goalAmount,
		GoalCurrency:       currency,
		LegacyRaisedAmount: legacyRaised,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	// A just-created tracked project has a zero cached balance, so the
	// initial figures need no rate lookup.
	initial := progress.Result{}
	if project.BitcoinAddress == "" {
		initial, _ = progress.Compute(progress.Snapshot{
			LegacyRaisedAmount: project.LegacyRaisedAmount,
			GoalAmount:         project.GoalAmount,
			GoalCurrency:       project.GoalCurrency,
		}, nil)
	}

	c.JSON(http.StatusOK, h.projectResponse(project, initial, false))
}

func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	projects, err := h.store.ListProjects(userID)
	if err != nil {
		writeError(c, err)
		return
	}

	summaries := make([]models.ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = models.ProjectSummary{
			ID:           p.ID.String(),
			Name:         p.Name,
			GoalAmount:   p.GoalAmount.StringFixed(2),
			GoalCurrency: p.GoalCurrency,
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		}
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{Projects: summaries})
}

// GetProject recomputes amount raised, progress, and the goal-achieved
// flag on every read; none of them are stored.
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	projectID, ok := requireProjectID(c)
	if !ok {
		return
	}

	project, err := h.store.GetProject(projectID)
	if err != nil {
		writeError(c, err)
		return
	}

	result, rateStale, err := h.progress.ComputeProgress(project)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.projectResponse(project, result, rateStale))
}

// DeleteProject removes the project, its attachment rows (via the
// store's cascade), and every stored object under its media prefix,
// including unconfirmed uploads that were never attached.
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	projectID, ok := requireProjectID(c)
	if !ok {
		return
	}

	project, err := h.store.GetProject(projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	if project.OwnerID != userID {
		writeError(c, fmt.Errorf("%w: requester does not own project", models.ErrUnauthorized))
		return
	}

	if err := h.store.DeleteProject(projectID); err != nil {
		writeError(c, err)
		return
	}

	if h.cleaner != nil {
		if err := h.cleaner.DeleteProjectMedia(projectID.String()); err != nil {
			// Rows are gone; orphaned objects are tolerable.
			log.Printf("Warning: failed to delete media objects for project %s: %v", projectID, err)
		}
	}

	c.Status(http.StatusNoContent)
}

func (h *ProjectsHandler) projectResponse(p *models.Project, result progress.Result, rateStale bool) models.ProjectResponse {
	var balanceUpdatedAt *time.Time
	if p.BitcoinBalanceUpdatedAt.Valid {
		t := p.BitcoinBalanceUpdatedAt.Time
		balanceUpdatedAt = &t
	}

	return models.ProjectResponse{
		ID:               p.ID.String(),
		Name:             p.Name,
		Description:      p.Description,
		BitcoinAddress:   p.BitcoinAddress,
		GoalAmount:       p.GoalAmount.StringFixed(2),
		GoalCurrency:     p.GoalCurrency,
		BalanceBTC:       p.BitcoinBalanceBTC.String(),
		BalanceUpdatedAt: balanceUpdatedAt,
		AmountRaised:     result.AmountRaised.StringFixed(2),
		ProgressPercent:  result.ProgressPercent.StringFixed(2),
		GoalAchieved:     result.GoalAchieved,
		RateStale:        rateStale,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
