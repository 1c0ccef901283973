package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
	"github.com/misha1235000/SpikeServer/utils/slogx"
)

// NewGinEngine builds the Gin router with every management route.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(slogx.GinMiddleware(s.Logger))

	r.GET("/healthz", s.HandleHealthGin)

	api := r.Group("/api")
	api.Use(s.TokenMiddleware())

	api.GET("/clients", s.HandleListClientsGin)
	api.POST("/clients", s.HandleRegisterClientGin)
	api.GET("/clients/:clientId", s.HandleGetClientGin)
	api.PUT("/clients/:clientId", s.HandleUpdateClientGin)
	api.PATCH("/clients/:clientId", s.HandleResetClientGin)
	api.DELETE("/clients/:clientId", s.HandleDeleteClientGin)
	api.GET("/clients/:clientId/tokens", s.HandleClientTokensGin)
	api.GET("/clients/:clientId/scopes", s.HandleClientScopesGin)

	api.GET("/scopes", s.HandleListScopesGin)
	api.POST("/scopes", s.HandleCreateScopeGin)
	api.GET("/scopes/:scopeId", s.HandleGetScopeGin)
	api.PUT("/scopes/:scopeId", s.HandleUpdateScopeGin)
	api.DELETE("/scopes/:scopeId", s.HandleDeleteScopeGin)

	api.GET("/catalog/clients", s.HandleFindClientsGin)
	api.GET("/catalog/clients/search", s.HandleSearchClientsGin)
	api.GET("/catalog/permitted/:clientId", s.HandlePermittedGin)

	if s.Teams != nil {
		api.GET("/teams", s.HandleListTeamsGin)
		api.POST("/teams", s.HandleCreateTeamGin)
		api.GET("/teams/:teamId", s.HandleGetTeamGin)
		api.PUT("/teams/:teamId", s.HandleUpdateTeamGin)
		api.DELETE("/teams/:teamId", s.HandleDeleteTeamGin)
		api.POST("/teams/:teamId/members", s.HandleAddTeamMemberGin)
		api.DELETE("/teams/:teamId/members/:userId", s.HandleRemoveTeamMemberGin)
	}

	return r
}

// errorResponse renders err in the OAuth2 error body shape.
func errorResponse(err error) gin.H {
	if e, ok := errors.As(err); ok {
		msg := e.Message
		if msg == "" {
			msg = e.Kind.String()
		}
		return gin.H{"error": e.ErrorCode(), "error_description": msg}
	}
	return gin.H{"error": errors.KindInternal.String(), "error_description": "Unexpected behaviour noticed"}
}

// fail writes err with its mapped status. Server errors are logged.
func (s *Server) fail(c *gin.Context, err error) {
	status := errors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		slogx.FromContext(c.Request.Context()).Error("request failed", "error", err)
	}
	_ = c.Error(err)
	c.JSON(status, errorResponse(err))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
}

// queryInt parses an integer query parameter, def when absent or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func userID(c *gin.Context) string { return c.GetString(ctxUserID) }
func teamID(c *gin.Context) string { return c.GetString(ctxTeamID) }

// HandleHealthGin runs every registered check.
func (s *Server) HandleHealthGin(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, check := range s.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}

// HandleFindClientsGin ranks the catalog. Usage counts only the caller's teams.
// Query: limit, skip, sort (name|date|popularity|usage), desc.
func (s *Server) HandleFindClientsGin(c *gin.Context) {
	q := models.FindQuery{
		Limit: queryInt(c, "limit", 0),
		Skip:  queryInt(c, "skip", 0),
		Sort:  models.ParseSortKey(c.Query("sort")),
		Desc:  queryBool(c, "desc"),
	}
	if q.Sort == models.SortUsage {
		teams, err := s.Clients.UserTeamIDs(c.Request.Context(), userID(c))
		if err != nil {
			s.fail(c, err)
			return
		}
		if len(teams) == 0 && teamID(c) != "" {
			teams = []string{teamID(c)}
		}
		q.Teams = teams
	}
	rows, err := s.Clients.Find(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// HandleSearchClientsGin finds clients by approximate name.
func (s *Server) HandleSearchClientsGin(c *gin.Context) {
	hits, err := s.Clients.Search(c.Request.Context(), c.Query("name"), queryInt(c, "limit", 0))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

// HandlePermittedGin lists the scopes :clientId may request, grouped by owner.
func (s *Server) HandlePermittedGin(c *gin.Context) {
	groups, err := s.Scopes.Permitted(c.Request.Context(), models.PermittedQuery{
		ClientID: c.Param("clientId"),
		Sort:     models.ParseSortKey(c.Query("sort")),
		Desc:     queryBool(c, "desc"),
		Limit:    queryInt(c, "limit", 0),
		Skip:     queryInt(c, "skip", 0),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}
