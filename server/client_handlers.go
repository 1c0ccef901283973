package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/models"
)

// HandleListClientsGin lists the caller's team clients, or every client of
// the caller's teams when the token names no team.
func (s *Server) HandleListClientsGin(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		clients []*models.Client
		err     error
	)
	if team := teamID(c); team != "" {
		clients, err = s.Clients.ListForTeam(ctx, team)
	} else {
		clients, err = s.Clients.ListForUser(ctx, userID(c))
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromClients(clients))
}

// HandleRegisterClientGin registers a client for the caller's team.
// The response carries the secret; it is shown only here and on reset.
func (s *Server) HandleRegisterClientGin(c *gin.Context) {
	var req dto.RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	full, err := s.Clients.Register(c.Request.Context(), teamID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, full)
}

func (s *Server) HandleGetClientGin(c *gin.Context) {
	full, err := s.Clients.Get(c.Request.Context(), teamID(c), c.Param("clientId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}

func (s *Server) HandleUpdateClientGin(c *gin.Context) {
	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	full, err := s.Clients.Update(c.Request.Context(), teamID(c), c.Param("clientId"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}

// HandleResetClientGin rotates the client's credentials.
func (s *Server) HandleResetClientGin(c *gin.Context) {
	full, err := s.Clients.ResetCredentials(c.Request.Context(), teamID(c), c.Param("clientId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}

func (s *Server) HandleDeleteClientGin(c *gin.Context) {
	if err := s.Clients.Delete(c.Request.Context(), teamID(c), c.Param("clientId")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) HandleClientTokensGin(c *gin.Context) {
	clientID := c.Param("clientId")
	tokens, err := s.Clients.ActiveTokens(c.Request.Context(), teamID(c), clientID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if tokens == nil {
		tokens = []dto.ActiveToken{}
	}
	c.JSON(http.StatusOK, dto.ActiveTokensResponse{ClientID: clientID, Tokens: tokens})
}

func (s *Server) HandleClientScopesGin(c *gin.Context) {
	scopes, err := s.Scopes.ListForClient(c.Request.Context(), teamID(c), c.Param("clientId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, scopes)
}
