// Package canvas is a thin client for the Canvas LMS REST API, covering the
// read endpoints the grading flow needs.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gradermate-backend/internal/shared/telemetry"
)

type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given school host. schoolURL may be a
// bare host ("school.instructure.com") or carry a scheme already; bare hosts
// get https.
func NewClient(token, schoolURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	base := strings.TrimSuffix(strings.TrimSpace(schoolURL), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &Client{
		token:   token,
		baseURL: base + "/api/v1",
		http:    httpClient,
	}
}

// Token exposes the bearer token so attachment downloads can reuse it.
func (c *Client) Token() string { return c.token }

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("canvas request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("canvas api status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w", endpoint, err)
	}
	return nil
}

// Profile fetches the authenticated user, which doubles as a token check.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/users/self", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TACourses lists active courses where the token holder is enrolled as a TA.
func (c *Client) TACourses(ctx context.Context) ([]Course, error) {
	params := url.Values{}
	params.Add("enrollment_type", "ta")
	params.Add("enrollment_state", "active")
	params.Add("state[]", "available")
	params.Add("state[]", "unpublished")
	params.Add("include[]", "total_students")
	params.Add("include[]", "term")
	params.Add("per_page", "100")

	var courses []Course
	if err := c.get(ctx, "/courses", params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) CourseAssignments(ctx context.Context, courseID int) ([]Assignment, error) {
	params := url.Values{}
	params.Add("per_page", "100")

	var assignments []Assignment
	endpoint := fmt.Sprintf("/courses/%d/assignments", courseID)
	if err := c.get(ctx, endpoint, params, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// Assignment fetches a single assignment, rubric included.
func (c *Client) Assignment(ctx context.Context, courseID, assignmentID int) (*Assignment, error) {
	var a Assignment
	endpoint := fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID)
	if err := c.get(ctx, endpoint, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// AssignmentSubmissions fetches all submissions for an assignment, with the
// expansions the extraction pipeline reads.
func (c *Client) AssignmentSubmissions(ctx context.Context, courseID, assignmentID int) ([]Submission, error) {
	params := url.Values{}
	params.Add("include[]", "submission_history")
	params.Add("include[]", "submission_comments")
	params.Add("include[]", "rubric_assessment")
	params.Add("include[]", "assignment")
	params.Add("include[]", "user")
	params.Add("include[]", "visibility")
	params.Add("per_page", "100")

	var submissions []Submission
	endpoint := fmt.Sprintf("/courses/%d/assignments/%d/submissions", courseID, assignmentID)
	if err := c.get(ctx, endpoint, params, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

// Submission fetches one student's submission for an assignment.
func (c *Client) Submission(ctx context.Context, courseID, assignmentID, userID int) (*Submission, error) {
	params := url.Values{}
	params.Add("include[]", "submission_comments")
	params.Add("include[]", "user")

	var sub Submission
	endpoint := fmt.Sprintf("/courses/%d/assignments/%d/submissions/%d", courseID, assignmentID, userID)
	if err := c.get(ctx, endpoint, params, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UngradedSubmissions filters AssignmentSubmissions down to submissions that
// were handed in but never graded.
func (c *Client) UngradedSubmissions(ctx context.Context, courseID, assignmentID int) ([]Submission, error) {
	all, err := c.AssignmentSubmissions(ctx, courseID, assignmentID)
	if err != nil {
		return nil, err
	}
	var ungraded []Submission
	for _, sub := range all {
		if sub.WorkflowState == "submitted" &&
			(sub.GraderID == 0 || sub.GraderID == -1) &&
			sub.Grade == "" && sub.Score == 0 {
			ungraded = append(ungraded, sub)
		}
	}
	return ungraded, nil
}

// CoursesWithUngradedCounts lists TA courses annotated with how much grading
// is outstanding. Per-course failures are logged and skipped so one broken
// course does not hide the rest.
func (c *Client) CoursesWithUngradedCounts(ctx context.Context) ([]CourseWithStats, error) {
	courses, err := c.TACourses(ctx)
	if err != nil {
		return nil, err
	}

	var out []CourseWithStats
	for _, course := range courses {
		stats := CourseWithStats{Course: course}

		assignments, err := c.CourseAssignments(ctx, course.ID)
		if err != nil {
			telemetry.Warn("canvas.assignments_failed", map[string]any{
				"course_id": strconv.Itoa(course.ID), "error": err.Error(),
			})
			continue
		}
		for _, a := range assignments {
			ungraded, err := c.UngradedSubmissions(ctx, course.ID, a.ID)
			if err != nil {
				telemetry.Warn("canvas.ungraded_failed", map[string]any{
					"assignment_id": strconv.Itoa(a.ID), "error": err.Error(),
				})
				continue
			}
			stats.UngradedCount += len(ungraded)
		}
		out = append(out, stats)
	}
	return out, nil
}
