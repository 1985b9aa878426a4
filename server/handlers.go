package server

import (
	"net/http"

	"github.com/ThomasVuNguyen/sim/engine/sandbox"
	"github.com/ThomasVuNguyen/sim/pkg/logger"
	"github.com/gin-gonic/gin"
)

// handleExecute runs a code block and returns the execution envelope. A
// delegation signal from the engine is re-routed to the external sandbox
// service when one is configured; it is never rendered as a user-visible
// failure.
func (s *Server) handleExecute(c *gin.Context) {
	var req sandbox.ExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, NewRequestError(
			http.StatusBadRequest,
			ErrBadRequestCode,
			"invalid execution request body",
			err,
		))
		return
	}
	ctx := logger.ContextWithLogger(c.Request.Context(), s.log)
	if s.preferDelegate(&req) {
		result, err := s.delegate.Execute(ctx, &req)
		if err != nil {
			s.log.Error("delegated execution failed", "error", err)
			RespondWithError(c, NewRequestError(
				http.StatusBadGateway,
				ErrServiceUnavailableCode,
				"delegated execution failed",
				err,
			))
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}
	result, err := s.engine.Execute(ctx, &req)
	if err != nil {
		if dErr, ok := sandbox.IsDelegation(err); ok {
			s.executeDelegated(c, &req, dErr)
			return
		}
		RespondWithError(c, NewRequestError(
			http.StatusInternalServerError,
			ErrInternalCode,
			"execution failed",
			err,
		))
		return
	}
	c.JSON(http.StatusOK, result)
}

// preferDelegate reports whether the deployment is configured to send work to
// the elevated sandbox even when local execution would be possible. Custom
// tool invocations always stay local.
func (s *Server) preferDelegate(req *sandbox.ExecutionRequest) bool {
	return s.delegate != nil && s.cfg.Delegate.PreferDelegate && !req.IsCustomTool
}

func (s *Server) executeDelegated(c *gin.Context, req *sandbox.ExecutionRequest, dErr *sandbox.DelegationError) {
	if s.delegate == nil {
		// No delegate deployed: surface a distinguishable signal the caller
		// can branch on, not a generic failure.
		RespondWithError(c, NewRequestError(
			http.StatusUnprocessableEntity,
			"DELEGATION_REQUIRED",
			string(dErr.Reason),
			dErr,
		))
		return
	}
	result, err := s.delegate.Execute(c.Request.Context(), req)
	if err != nil {
		s.log.Error("delegated execution failed", "reason", dErr.Reason, "error", err)
		RespondWithError(c, NewRequestError(
			http.StatusBadGateway,
			ErrServiceUnavailableCode,
			"delegated execution failed",
			err,
		))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	RespondOK(c, "ok", gin.H{"delegate_configured": s.delegate != nil})
}
