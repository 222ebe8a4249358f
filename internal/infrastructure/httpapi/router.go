// Package httpapi serves the family tree over HTTP with gin.
package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/ersonp/kin-core/internal/infrastructure/metrics"
)

// DefaultServiceName names the server in traces.
const DefaultServiceName = "kin"

// RouterConfig configures NewRouter.
type RouterConfig struct {
	API         *API
	Logger      *zap.Logger
	ServiceName string   // defaults to DefaultServiceName
	CORSOrigins []string // empty disables CORS handling
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORSOrigins))
	}
	r.Use(requestLogger(logger))
	r.Use(requestMetrics())

	r.GET("/healthcheck", Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	RegisterRoutes(r.Group("/api"), cfg.API)
	return r
}

// RegisterRoutes registers the /familytree endpoints on rg:
//
//	GET    /familytree/tree/:personId        project a tree view
//	POST   /familytree/edges                 propose an edge
//	DELETE /familytree/edges/:edgeId         remove an edge
//	GET    /familytree/suggestions           ranked parent-child suggestions
//	POST   /familytree/suggestions/respond   accept or reject a suggestion
//	DELETE /familytree/suggestions/rejections  clear one or all rejections
//	GET    /familytree/people                list or search people
//	GET    /familytree/people/:personId      look up one person
//	GET    /familytree/edges/:edgeId/audit   audit history of one edge
//	GET    /familytree/audit                 audit entries by action
func RegisterRoutes(rg *gin.RouterGroup, api *API) {
	tree := rg.Group("/familytree")
	{
		tree.GET("/tree/:personId", api.GetTree)

		tree.POST("/edges", api.ProposeEdge)
		tree.DELETE("/edges/:edgeId", api.RemoveEdge)
		tree.GET("/edges/:edgeId/audit", api.EdgeAudit)

		tree.GET("/suggestions", api.GetSuggestions)
		tree.POST("/suggestions/respond", api.RespondSuggestion)
		tree.DELETE("/suggestions/rejections", api.ClearRejections)

		tree.GET("/people", api.ListPeople)
		tree.GET("/people/:personId", api.GetPerson)

		tree.GET("/audit", api.ListAudit)
	}
}
