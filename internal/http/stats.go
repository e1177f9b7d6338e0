package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type StatsController struct {
	stats StatsStore
	index BookIndex
	jobs  map[string]JobProgressReader
}

func NewStatsController(stats StatsStore, index BookIndex, jobs map[string]JobProgressReader) *StatsController {
	return &StatsController{stats: stats, index: index, jobs: jobs}
}

// StatsResponse combines reading statistics with library totals.
type StatsResponse struct {
	entities.ReadingStats
	Books       int `json:"books"`
	Annotations int `json:"annotations"`
	InProgress  int `json:"inProgress"`
}

// Get handles GET /api/stats
func (sc *StatsController) Get(c *gin.Context) {
	rs, err := sc.stats.Get(c.Request.Context())
	if err != nil {
		respondAppError(c, err, "load stats")
		return
	}
	resp := StatsResponse{ReadingStats: rs}
	if sc.index != nil {
		for _, rec := range sc.index.List() {
			resp.Books++
			resp.Annotations += len(rec.Annotations)
			if p := rec.ProgressValue(); p > 0 && p < 100 {
				resp.InProgress++
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Reset handles DELETE /api/stats
func (sc *StatsController) Reset(c *gin.Context) {
	if err := sc.stats.Reset(c.Request.Context()); err != nil {
		respondAppError(c, err, "reset stats")
		return
	}
	respondSuccess(c, "stats reset")
}

// Jobs handles GET /api/jobs with the latest run of every bulk job.
func (sc *StatsController) Jobs(c *gin.Context) {
	out := make(map[string]*entities.JobProgress, len(sc.jobs))
	for name, repo := range sc.jobs {
		p, err := repo.GetProgress(c.Request.Context())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out[name] = nil
			continue
		}
		if err != nil {
			respondInternalError(c, err, "job progress "+name)
			return
		}
		out[name] = p
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}
