package canvas

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gradermate-backend/internal/shared/server/respond"
)

// Handler exposes the Canvas read endpoints. Credentials come from the
// client on every call (Authorization token plus X-School-URL host); the
// server holds no LMS state.
type Handler struct {
	httpClient *http.Client
}

func NewHandler(httpClient *http.Client) *Handler {
	return &Handler{httpClient: httpClient}
}

// RegisterRoutes attaches Canvas routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/connect", h.connect)
	rg.GET("/courses", h.listCourses)
	rg.GET("/courses/:course_id/assignments", h.listAssignments)
	rg.GET("/courses/:course_id/assignments/:assignment_id/submissions", h.listSubmissions)
	rg.GET("/courses/:course_id/assignments/:assignment_id/ungraded", h.listUngraded)
}

// clientFromHeaders builds a per-request client, or writes a 400 and
// returns nil when credentials are missing.
func (h *Handler) clientFromHeaders(c *gin.Context) *Client {
	token := c.GetHeader("Authorization")
	schoolURL := c.GetHeader("X-School-URL")
	if token == "" || schoolURL == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "missing Canvas credentials", nil)
		return nil
	}
	return NewClient(token, schoolURL, h.httpClient)
}

func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", name+" must be numeric", nil)
		return 0, false
	}
	return v, true
}

func (h *Handler) connect(c *gin.Context) {
	var req struct {
		Token     string `json:"token" binding:"required"`
		SchoolURL string `json:"school_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	client := NewClient(req.Token, req.SchoolURL, h.httpClient)
	profile, err := client.Profile(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusUnauthorized, "canvas_auth_failed", "failed to connect to Canvas", nil)
		return
	}
	respond.OK(c, gin.H{"message": "Connected successfully", "user": profile})
}

func (h *Handler) listCourses(c *gin.Context) {
	client := h.clientFromHeaders(c)
	if client == nil {
		return
	}
	courses, err := client.CoursesWithUngradedCounts(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "canvas_error", "failed to fetch courses", nil)
		return
	}
	respond.OK(c, courses)
}

func (h *Handler) listAssignments(c *gin.Context) {
	client := h.clientFromHeaders(c)
	if client == nil {
		return
	}
	courseID, ok := pathInt(c, "course_id")
	if !ok {
		return
	}
	assignments, err := client.CourseAssignments(c.Request.Context(), courseID)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "canvas_error", "failed to fetch assignments", nil)
		return
	}
	respond.OK(c, assignments)
}

func (h *Handler) listSubmissions(c *gin.Context) {
	client := h.clientFromHeaders(c)
	if client == nil {
		return
	}
	courseID, ok := pathInt(c, "course_id")
	if !ok {
		return
	}
	assignmentID, ok := pathInt(c, "assignment_id")
	if !ok {
		return
	}
	submissions, err := client.AssignmentSubmissions(c.Request.Context(), courseID, assignmentID)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "canvas_error", "failed to fetch submissions", nil)
		return
	}
	respond.OK(c, submissions)
}

func (h *Handler) listUngraded(c *gin.Context) {
	client := h.clientFromHeaders(c)
	if client == nil {
		return
	}
	courseID, ok := pathInt(c, "course_id")
	if !ok {
		return
	}
	assignmentID, ok := pathInt(c, "assignment_id")
	if !ok {
		return
	}
	submissions, err := client.UngradedSubmissions(c.Request.Context(), courseID, assignmentID)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "canvas_error", "failed to fetch ungraded submissions", nil)
		return
	}
	respond.OK(c, submissions)
}
