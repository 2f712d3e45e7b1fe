// Package router assembles the HTTP surface: middleware chain, health
// probe, and the versioned API groups of every module.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"estate_crm_backend/internal/agents"
	"estate_crm_backend/internal/assignments"
	"estate_crm_backend/internal/distribution"
	disthandler "estate_crm_backend/internal/distribution/handler"
	"estate_crm_backend/internal/leads"
	"estate_crm_backend/internal/pipeline"
	"estate_crm_backend/internal/reporting"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/httpkit"
	"estate_crm_backend/platform/logger"
)

// Modules carries the wired bounded-context modules the router mounts.
type Modules struct {
	Leads        *leads.Module
	Agents       *agents.Module
	Assignments  *assignments.Module
	Distribution *distribution.Module
	Pipeline     *pipeline.Module
	Reporting    *reporting.Module
}

// RoleManager gates distribution runs and bulk assignment mutations.
const RoleManager = "manager"

func New(cfg *config.Config, log *logger.Logger, mods Modules) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(cfg))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(20), 40, log)
	engine.Use(limiter.RateLimit())

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	v1.Use(httpkit.AuthRequired(cfg))

	mods.Leads.RegisterRoutes(v1.Group("/leads"))
	mods.Agents.RegisterRoutes(v1.Group("/agents"))
	mods.Pipeline.RegisterRoutes(v1.Group("/pipeline"))
	mods.Reporting.RegisterRoutes(v1.Group("/reports"))

	// Capacity-changing operations are restricted to managers; assignment
	// reads stay open to any authenticated user.
	assignmentsGroup := v1.Group("/assignments")
	assignmentsBulk := v1.Group("/assignments")
	assignmentsBulk.Use(httpkit.RequireRole(RoleManager))
	mods.Assignments.RegisterRoutes(assignmentsGroup, assignmentsBulk)

	distributionGroup := v1.Group("/distribution")
	distributionGroup.Use(httpkit.RequireRole(RoleManager))
	disthandler.New(mods.Distribution.Service()).RegisterRoutes(distributionGroup)

	return engine
}

func corsMiddleware(cfg config.HTTPConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return cors.New(corsCfg)
}
