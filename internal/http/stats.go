package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/http/respond"
	"github.com/mrlokans/library/internal/stats"
)

type StatsController struct {
	stats  *stats.Service
	logger *zap.Logger
}

func NewStatsController(service *stats.Service, logger *zap.Logger) *StatsController {
	return &StatsController{stats: service, logger: logger}
}

func (sc *StatsController) Dashboard(c *gin.Context) {
	result, err := sc.stats.Dashboard(c.Request.Context())
	sc.write(c, result, err)
}

func (sc *StatsController) Management(c *gin.Context) {
	result, err := sc.stats.Management(c.Request.Context())
	sc.write(c, result, err)
}

func (sc *StatsController) AdminOverview(c *gin.Context) {
	result, err := sc.stats.AdminOverview(c.Request.Context())
	sc.write(c, result, err)
}

func (sc *StatsController) SystemStats(c *gin.Context) {
	result, err := sc.stats.SystemStats(c.Request.Context())
	sc.write(c, result, err)
}

func (sc *StatsController) write(c *gin.Context, result any, err error) {
	if err != nil {
		respondError(c, sc.logger, err)
		return
	}
	respond.OK(c, result)
}
