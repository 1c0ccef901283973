package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/misha1235000/SpikeServer/dto"
)

// HandleListTeamsGin lists the caller's teams.
func (s *Server) HandleListTeamsGin(c *gin.Context) {
	teams, err := s.Teams.ListForUser(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (s *Server) HandleGetTeamGin(c *gin.Context) {
	team, err := s.Teams.Get(c.Request.Context(), c.Param("teamId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// HandleCreateTeamGin creates a team owned by the caller.
func (s *Server) HandleCreateTeamGin(c *gin.Context) {
	var req dto.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	team, err := s.Teams.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (s *Server) HandleUpdateTeamGin(c *gin.Context) {
	var req dto.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	team, err := s.Teams.Update(c.Request.Context(), userID(c), c.Param("teamId"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (s *Server) HandleDeleteTeamGin(c *gin.Context) {
	if err := s.Teams.Delete(c.Request.Context(), userID(c), c.Param("teamId")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleAddTeamMemberGin enrolls a user, or changes a member's role.
func (s *Server) HandleAddTeamMemberGin(c *gin.Context) {
	var req dto.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.Teams.AddMember(c.Request.Context(), userID(c), c.Param("teamId"), req); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) HandleRemoveTeamMemberGin(c *gin.Context) {
	if err := s.Teams.RemoveMember(c.Request.Context(), userID(c), c.Param("teamId"), c.Param("userId")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
