package handlers

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xleiu/VenueSearch/src/export"
	"github.com/xleiu/VenueSearch/src/location"
	"github.com/xleiu/VenueSearch/src/loop"
	"github.com/xleiu/VenueSearch/src/presenter"
	"github.com/xleiu/VenueSearch/src/types"
)

const (
	pageSize = 10
)

// HandleVenues is one page of the displayed venue list.
type HandleVenues struct {
	Name     string                `json:"name"`
	Total    int                   `json:"total"`
	Venues   []presenter.VenueCell `json:"venues"`
	Page     int                   `json:"page"`
	LastPage int                   `json:"last_page"`
	PrevPage int                   `json:"prev_page,omitempty"`
	NextPage int                   `json:"next_page,omitempty"`
}

type State struct {
	Snapshot
	Categories []types.Category  `json:"categories"`
	Rows       int               `json:"rows"`
	Device     *location.Pending `json:"device,omitempty"`
}

// Server exposes a presenter over HTTP. Every presenter call goes through
// the queue so it runs on the presenter's execution context.
type Server struct {
	Queue     *loop.Queue
	Presenter *presenter.Presenter
	View      *WebView
	// Device is set when the location provider is driven by the client.
	Device *location.Remote
}

func (s *Server) do(c *gin.Context, fn func()) bool {
	if err := s.Queue.Do(c.Request.Context(), fn); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) HandleState(c *gin.Context) {
	var state State
	ok := s.do(c, func() {
		state.Categories = s.Presenter.Categories()
		state.Rows = s.Presenter.RowCount()
	})
	if !ok {
		return
	}
	state.Snapshot = s.View.Snapshot()
	if s.Device != nil {
		pending := s.Device.Pending()
		state.Device = &pending
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) HandleAppear(c *gin.Context) {
	if s.do(c, s.Presenter.ViewWillAppear) {
		c.Status(http.StatusAccepted)
	}
}

type selectRequest struct {
	Category string `json:"category"`
}

func (s *Server) HandleSelect(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	ok := s.do(c, func() {
		s.Presenter.ShowSelectedVenue(types.Category(req.Category))
	})
	if ok {
		c.Status(http.StatusAccepted)
	}
}

func (s *Server) HandleDismissAlert(c *gin.Context) {
	if !s.View.DismissAlert(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetVenues(c *gin.Context) (*HandleVenues, bool) {
	pageStr := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 1 {
		c.String(http.StatusBadRequest, "Invalid page number")
		return nil, false
	}

	data := &HandleVenues{Name: "Venues", Page: page, Venues: []presenter.VenueCell{}}
	var rowErr error
	ok := s.do(c, func() {
		data.Total = s.Presenter.RowCount()
		if page > (data.Total+pageSize-1)/pageSize {
			return
		}
		for i := (page - 1) * pageSize; i < page*pageSize && i < data.Total; i++ {
			cell, err := s.Presenter.RowAt(i)
			if err != nil {
				rowErr = err
				return
			}
			data.Venues = append(data.Venues, cell)
		}
	})
	if !ok {
		return nil, false
	}
	if rowErr != nil {
		log.Printf("reading rows: %s", rowErr)
		c.String(http.StatusInternalServerError, "Error reading venues")
		return nil, false
	}

	data.LastPage = (data.Total + pageSize - 1) / pageSize
	if page > 1 {
		data.PrevPage = page - 1
	}
	if page < data.LastPage {
		data.NextPage = page + 1
	}
	return data, true
}

func (s *Server) HandleGetVenuesAPI(c *gin.Context) {
	data, ok := s.handleGetVenues(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) HandleGetVenuesHTML(tmpl *template.Template) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, ok := s.handleGetVenues(c)
		if !ok {
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(c.Writer, data); err != nil {
			log.Printf("rendering template: %s", err)
			c.String(http.StatusInternalServerError, "Error rendering template")
		}
	}
}

func (s *Server) HandleExport(c *gin.Context) {
	var rows []types.VenueViewRow
	if !s.do(c, func() { rows = s.Presenter.Rows() }) {
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="venues.xlsx"`)
	if err := export.WriteVenues(c.Writer, rows); err != nil {
		log.Printf("exporting venues: %s", err)
		c.String(http.StatusInternalServerError, "Error exporting venues")
	}
}

type locationReport struct {
	Coordinates []types.Coordinate `json:"coordinates"`
}

func (s *Server) HandleDeviceLocation(c *gin.Context) {
	var req locationReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if err := s.Device.ReportLocation(req.Coordinates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

type failureReport struct {
	Reason string `json:"reason"`
}

func (s *Server) HandleDeviceFailure(c *gin.Context) {
	var req failureReport
	if err := c.ShouldBindJSON(&req); err != nil || req.Reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	s.Device.ReportFailure(req.Reason)
	c.Status(http.StatusAccepted)
}

type authorizationReport struct {
	Status         string `json:"status"`
	ServiceEnabled *bool  `json:"service_enabled"`
}

func (s *Server) HandleDeviceAuthorization(c *gin.Context) {
	var req authorizationReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	status, err := types.ParseAuthorizationStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ServiceEnabled != nil {
		s.Device.ReportServiceEnabled(*req.ServiceEnabled)
	}
	s.Device.ReportAuthorization(status)
	c.Status(http.StatusAccepted)
}

// Routes registers the HTML page and the API; auth guards everything but
// the page and the token endpoint.
func (s *Server) Routes(r *gin.Engine, auth gin.HandlerFunc, tokenHandler gin.HandlerFunc, tmpl *template.Template) {
	r.POST("/api/get_token", tokenHandler)
	if tmpl != nil {
		r.GET("/venues", s.HandleGetVenuesHTML(tmpl))
	}

	api := r.Group("/api", auth)
	api.GET("/state", s.HandleState)
	api.POST("/appear", s.HandleAppear)
	api.POST("/select", s.HandleSelect)
	api.DELETE("/alerts/:id", s.HandleDismissAlert)
	api.GET("/venues", s.HandleGetVenuesAPI)
	api.GET("/export", s.HandleExport)

	if s.Device != nil {
		device := api.Group("/device")
		device.POST("/location", s.HandleDeviceLocation)
		device.POST("/failure", s.HandleDeviceFailure)
		device.POST("/authorization", s.HandleDeviceAuthorization)
	}
}

func LoadTemplate(filename string) (*template.Template, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return template.New("venues").Funcs(template.FuncMap{
		"sub": func(a, b int) int { return a - b },
		"add": func(a, b int) int { return a + b },
	}).Parse(string(data))
}
