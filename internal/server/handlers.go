package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dorogoy/zipline-mcp-sub003/internal/types"
)

// handleRoot handles health check
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "zipline-mcp",
	})
}

// handleHealth handles detailed health check
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service_registry": s.registry.Stats(),
		"sandboxing":       gin.H{"enabled": !s.cfg.Sandbox.DisableUserSandboxing},
	})
}

// handleListServices lists all registered services
func (s *Server) handleListServices(c *gin.Context) {
	categoryStr := c.Query("category")

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": s.registry.List(category),
		"stats":    s.registry.Stats(),
	})
}

// handleExecute executes a service tool. The caller's token selects the
// sandbox identity; the configured token is the fallback when the caller
// sends none.
func (s *Server) handleExecute(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := callerToken(c)
	if token == "" {
		token = s.cfg.Zipline.Token
	}

	id := c.GetString(requestIDKey)
	appCtx := &types.Context{
		Token:     token,
		RequestID: &id,
	}

	result, err := s.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.metrics.ToolExecutions.WithLabelValues(req.ToolID, outcomeLabel(result)).Inc()
	c.JSON(http.StatusOK, result)
}

func outcomeLabel(result *types.Result) string {
	if result != nil && result.Success {
		return "success"
	}
	return "failure"
}
