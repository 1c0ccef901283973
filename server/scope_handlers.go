package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/misha1235000/SpikeServer/dto"
)

// HandleListScopesGin lists the scopes owned by clients of the caller's teams.
func (s *Server) HandleListScopesGin(c *gin.Context) {
	scopes, err := s.Scopes.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, scopes)
}

func (s *Server) HandleGetScopeGin(c *gin.Context) {
	sc, err := s.Scopes.Get(c.Request.Context(), c.Param("scopeId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

// HandleCreateScopeGin creates a scope owned by the client named by audienceId.
func (s *Server) HandleCreateScopeGin(c *gin.Context) {
	var req dto.CreateScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sc, err := s.Scopes.Create(c.Request.Context(), teamID(c), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sc)
}

// HandleUpdateScopeGin replaces the scope's permitted clients.
func (s *Server) HandleUpdateScopeGin(c *gin.Context) {
	var req dto.UpdateScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sc, err := s.Scopes.Update(c.Request.Context(), teamID(c), c.Param("scopeId"), req.PermittedClients)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

func (s *Server) HandleDeleteScopeGin(c *gin.Context) {
	if err := s.Scopes.Delete(c.Request.Context(), teamID(c), c.Param("scopeId")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
