package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	payoutdomain "github.com/smallbiznis/fyxed/internal/payout/domain"
)

type earningsQuery struct {
	ActorID string `form:"actor_id"`
	Month   string `form:"month"`
	From    string `form:"from"`
	To      string `form:"to"`
}

func (s *Server) GetEarnings(c *gin.Context) {
	var query earningsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actorID, start, end, err := s.resolveEarningsQuery(c, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	earnings, err := s.earningsSvc.CalculateEarnings(c.Request.Context(), actorID, start, end)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": earnings})
}

func (s *Server) GetTeamEarnings(c *gin.Context) {
	var query earningsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	leaderID, start, end, err := s.resolveEarningsQuery(c, query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	team, err := s.earningsSvc.CalculateTeamEarnings(c.Request.Context(), leaderID, start, end)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": team})
}

// resolveEarningsQuery defaults the actor to the caller and the window to the
// current calendar month. An explicit month wins over from/to.
func (s *Server) resolveEarningsQuery(c *gin.Context, query earningsQuery) (string, time.Time, time.Time, error) {
	actorID := strings.TrimSpace(query.ActorID)
	if actorID == "" {
		principal, ok := principalFromContext(c)
		if !ok {
			return "", time.Time{}, time.Time{}, ErrUnauthorized
		}
		actorID = principal.ActorID.String()
	}

	month := strings.TrimSpace(query.Month)
	if month == "" && strings.TrimSpace(query.From) == "" && strings.TrimSpace(query.To) == "" {
		month = time.Now().UTC().Format(payoutdomain.MonthLayout)
	}
	if month != "" {
		start, end, err := payoutdomain.MonthRange(month)
		if err != nil {
			return "", time.Time{}, time.Time{}, err
		}
		return actorID, start, end, nil
	}

	from, to, err := parseTimeRange("from", query.From, "to", query.To)
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	if from == nil || to == nil {
		return "", time.Time{}, time.Time{}, newValidationError("month", "invalid_month", "month or from and to are required")
	}
	return actorID, *from, *to, nil
}
