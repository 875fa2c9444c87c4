package canvas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProfileSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users/self" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer canvas-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"id": 7, "name": "Dana TA", "email": "dana@example.edu"}`))
	}))
	defer srv.Close()

	c := NewClient("canvas-token", srv.URL, srv.Client())
	user, err := c.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if user.ID != 7 || user.Name != "Dana TA" {
		t.Fatalf("user = %+v", user)
	}
}

func TestTACoursesQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("enrollment_type") != "ta" {
			t.Errorf("enrollment_type = %q", q.Get("enrollment_type"))
		}
		states := q["state[]"]
		if len(states) != 2 {
			t.Errorf("state[] = %v", states)
		}
		w.Write([]byte(`[{"id": 1, "name": "Biology 101", "total_students": 42}]`))
	}))
	defer srv.Close()

	c := NewClient("t", srv.URL, srv.Client())
	courses, err := c.TACourses(context.Background())
	if err != nil {
		t.Fatalf("TACourses: %v", err)
	}
	if len(courses) != 1 || courses[0].TotalStudents != 42 {
		t.Fatalf("courses = %+v", courses)
	}
}

func TestUngradedSubmissionsFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "workflow_state": "submitted", "grader_id": 0, "grade": "", "score": 0},
			{"id": 2, "workflow_state": "graded", "grader_id": 5, "grade": "A", "score": 95},
			{"id": 3, "workflow_state": "submitted", "grader_id": -1, "grade": "", "score": 0},
			{"id": 4, "workflow_state": "unsubmitted", "grader_id": 0, "grade": "", "score": 0}
		]`))
	}))
	defer srv.Close()

	c := NewClient("t", srv.URL, srv.Client())
	ungraded, err := c.UngradedSubmissions(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("UngradedSubmissions: %v", err)
	}
	if len(ungraded) != 2 || ungraded[0].ID != 1 || ungraded[1].ID != 3 {
		t.Fatalf("ungraded = %+v", ungraded)
	}
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"Invalid access token."}]}`))
	}))
	defer srv.Close()

	c := NewClient("bad", srv.URL, srv.Client())
	_, err := c.Profile(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "Invalid access token") {
		t.Fatalf("err = %v", err)
	}
}

func TestBareHostGetsHTTPS(t *testing.T) {
	c := NewClient("t", "school.instructure.com/", nil)
	if c.baseURL != "https://school.instructure.com/api/v1" {
		t.Fatalf("baseURL = %q", c.baseURL)
	}
}
