package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/entities"
)

// API adapts the application handlers to gin.
type API struct {
	tree        *handlers.TreeHandler
	edges       *handlers.EdgeHandler
	suggestions *handlers.SuggestionHandler
	people      *handlers.PersonHandler
	audit       *handlers.AuditHandler
}

// NewAPI creates a new API.
func NewAPI(
	tree *handlers.TreeHandler,
	edges *handlers.EdgeHandler,
	suggestions *handlers.SuggestionHandler,
	people *handlers.PersonHandler,
	audit *handlers.AuditHandler,
) *API {
	return &API{
		tree:        tree,
		edges:       edges,
		suggestions: suggestions,
		people:      people,
		audit:       audit,
	}
}

// RespondRequest is the body of POST /suggestions/respond.
type RespondRequest struct {
	ParentID string `json:"parentId" binding:"required"`
	ChildID  string `json:"childId" binding:"required"`
	Accept   *bool  `json:"accept" binding:"required"`
}

// GetTree handles GET /tree/:personId?view=&maxDepth=.
func (a *API) GetTree(c *gin.Context) {
	opts := handlers.TreeOptions{View: c.Query("view")}
	if raw := c.Query("maxDepth"); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil {
			respondInvalid(c, err)
			return
		}
		opts.Depth = &depth
	}

	root, err := a.tree.Handle(c.Request.Context(), c.Param("personId"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, root)
}

// ProposeEdge handles POST /edges. Committed edges answer 201 and
// rejected ones 422, both with the validation result as body.
func (a *API) ProposeEdge(c *gin.Context) {
	var req handlers.ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	res, err := a.edges.HandlePropose(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if !res.OK() {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// RemoveEdge handles DELETE /edges/:edgeId.
func (a *API) RemoveEdge(c *gin.Context) {
	if err := a.edges.HandleRemove(c.Request.Context(), c.Param("edgeId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSuggestions handles GET /suggestions?limit=&minConfidence=.
func (a *API) GetSuggestions(c *gin.Context) {
	var opts handlers.ListOptions
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondInvalid(c, err)
			return
		}
		opts.Limit = limit
	}
	if raw := c.Query("minConfidence"); raw != "" {
		minConfidence, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondInvalid(c, err)
			return
		}
		opts.MinConfidence = minConfidence
	}

	suggestions, err := a.suggestions.HandleList(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
}

// RespondSuggestion handles POST /suggestions/respond.
func (a *API) RespondSuggestion(c *gin.Context) {
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	result, err := a.suggestions.HandleRespond(c.Request.Context(), req.ParentID, req.ChildID, *req.Accept)
	if err != nil {
		respondError(c, err)
		return
	}
	if !result.Committed() {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ClearRejections handles DELETE /suggestions/rejections?parentId=&childId=.
// Without ids every rejection is cleared.
func (a *API) ClearRejections(c *gin.Context) {
	n, err := a.suggestions.HandleClearRejections(c.Request.Context(), c.Query("parentId"), c.Query("childId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

// GetPerson handles GET /people/:personId.
func (a *API) GetPerson(c *gin.Context) {
	p, err := a.people.HandleGet(c.Request.Context(), c.Param("personId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListPeople handles GET /people?q=&limit=.
func (a *API) ListPeople(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondInvalid(c, err)
			return
		}
		limit = n
	}
	people, err := a.people.HandleList(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := a.people.HandleCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"people": people, "count": len(people), "total": total})
}

// EdgeAudit handles GET /edges/:edgeId/audit?action=. Removed edges keep
// their history, so an unknown id answers an empty list.
func (a *API) EdgeAudit(c *gin.Context) {
	a.listAudit(c, handlers.AuditQuery{EdgeID: c.Param("edgeId"), Action: c.Query("action")})
}

// ListAudit handles GET /audit?action=&limit=.
func (a *API) ListAudit(c *gin.Context) {
	q := handlers.AuditQuery{Action: c.Query("action")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondInvalid(c, err)
			return
		}
		q.Limit = n
	}
	a.listAudit(c, q)
}

func (a *API) listAudit(c *gin.Context, q handlers.AuditQuery) {
	entries, err := a.audit.HandleList(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []entities.AuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// Health handles GET /healthcheck.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
