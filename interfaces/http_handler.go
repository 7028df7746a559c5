package interfaces

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wordbearer/domain"
	"wordbearer/usecase"
)

type HTTPHandler struct {
	Leagues *usecase.Leagues
	Jobs    *usecase.MessageJobs
	Log     logrus.FieldLogger
	now     func() time.Time
}

// NewHTTPHandler registers the admin API on router. A non-empty token is
// required as a bearer token on everything except /healthz.
func NewHTTPHandler(router *gin.Engine, leagues *usecase.Leagues, jobs *usecase.MessageJobs, token string, log logrus.FieldLogger) *HTTPHandler {
	h := &HTTPHandler{Leagues: leagues, Jobs: jobs, Log: log, now: time.Now}

	router.GET("/healthz", h.Health)

	api := router.Group("/")
	if token != "" {
		api.Use(bearerAuth(token))
	}
	api.GET("/leagues", h.ListLeagues)
	api.GET("/leagues/:name/standings", h.GetStandings)
	api.POST("/leagues/:name/results", h.AddResult)
	api.GET("/jobs", h.ListJobs)
	api.POST("/jobs", h.CreateJob)
	return h
}

func bearerAuth(token string) gin.HandlerFunc {
	want := []byte("Bearer " + token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) ListLeagues(c *gin.Context) {
	now := h.now()
	out := []gin.H{}
	for _, name := range h.Leagues.Names() {
		m, _ := h.Leagues.Get(name)
		cfg := m.Config()
		out = append(out, gin.H{
			"league_name": cfg.LeagueName,
			"start_date":  cfg.StartDate,
			"end_date":    cfg.EndDate,
			"channel_id":  cfg.ChannelID.String(),
			"posting_day": cfg.PostingDay.String(),
			"active":      cfg.Active(now),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) GetStandings(c *gin.Context) {
	m, ok := h.Leagues.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "league not found"})
		return
	}
	players, err := m.Standings(c.Request.Context())
	if err != nil {
		h.Log.WithError(err).WithField("league", m.Name()).Error("computing standings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute standings"})
		return
	}
	if players == nil {
		players = []domain.Player{}
	}
	c.JSON(http.StatusOK, gin.H{"league_name": m.Name(), "standings": players})
}

// AddResult records a result entered by an organizer. Unlike player
// reports it may be dated outside the league window.
func (h *HTTPHandler) AddResult(c *gin.Context) {
	var req struct {
		Player     string `json:"player" binding:"required"`
		Opponent   string `json:"opponent" binding:"required"`
		Outcome    string `json:"outcome" binding:"required"`
		Timestamp  int64  `json:"timestamp"`
		VPPlayer   int    `json:"vp_player" binding:"min=0"`
		VPOpponent int    `json:"vp_opponent" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := domain.ParseOutcome(req.Outcome)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	at := h.now()
	if req.Timestamp != 0 {
		at = time.Unix(req.Timestamp, 0)
	}
	r := domain.AdaptSubmission(domain.NewSubmission(req.Player, req.Opponent, c.Param("name"), outcome, "", at))
	r.VPPlayer, r.VPOpponent = req.VPPlayer, req.VPOpponent
	if err := r.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Leagues.WriteResult(c.Request.Context(), r); err != nil {
		if errors.Is(err, domain.ErrUnknownLeague) {
			c.JSON(http.StatusNotFound, gin.H{"error": "league not found"})
			return
		}
		h.Log.WithError(err).Error("storing result failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store result"})
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *HTTPHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.Jobs.Pending())
}

// CreateJob queues a message job. Without a timestamp it is sent on the
// next run.
func (h *HTTPHandler) CreateJob(c *gin.Context) {
	var req struct {
		ID        string    `json:"id"`
		Timestamp int64     `json:"timestamp"`
		ChannelID domain.ID `json:"channel_id" binding:"required"`
		Content   string    `json:"content"`
		Files     []string  `json:"files"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := domain.MessageJob{
		ID:        strings.TrimSpace(req.ID),
		ChannelID: req.ChannelID,
		Content:   req.Content,
		Files:     req.Files,
	}
	if req.Timestamp != 0 {
		job.Timestamp = time.Unix(req.Timestamp, 0).UTC()
	}

	saved, err := h.Jobs.Enqueue(c.Request.Context(), job)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidJob) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.Log.WithError(err).Error("queueing message job failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue job"})
		return
	}
	c.JSON(http.StatusCreated, saved)
}
