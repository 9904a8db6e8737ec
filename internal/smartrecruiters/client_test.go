package smartrecruiters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	reqs []*http.Request
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
}

func newServer(t *testing.T, rec *recorder, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL + "/v1"))
}

func TestDepartments(t *testing.T) {
	rec := &recorder{}
	c := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalFound":2,"content":[{"id":743999,"label":"Engineering"},{"id":12,"label":"Sales"}]}`)
	})

	deps, err := c.Departments(context.Background(), "Acme Corp")
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, json.Number("743999"), deps[0]["id"])
	assert.Equal(t, "Sales", deps[1]["label"])

	require.Len(t, rec.reqs, 1)
	assert.Equal(t, "/v1/companies/Acme%20Corp/departments", rec.reqs[0].URL.EscapedPath())
	assert.Equal(t, "application/json", rec.reqs[0].Header.Get("Accept"))
	assert.Equal(t, DefaultUserAgent, rec.reqs[0].Header.Get("User-Agent"))
	assert.Empty(t, rec.reqs[0].Header.Get(TokenHeader))
}

func TestJobPostsPassesFilters(t *testing.T) {
	rec := &recorder{}
	c := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[{"id":"1","name":"Engineer"}]}`)
	})

	posts, err := c.JobPosts(context.Background(), "acme", map[string]any{
		DepartmentParam: "743999",
		"country":       []any{"us", "de"},
		"limit":         100,
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Engineer", posts[0]["name"])

	q := rec.reqs[0].URL.Query()
	assert.Equal(t, "/v1/companies/acme/postings", rec.reqs[0].URL.Path)
	assert.Equal(t, "743999", q.Get("department"))
	assert.Equal(t, []string{"us", "de"}, q["country"])
	assert.Equal(t, "100", q.Get("limit"))
}

func TestJobPostsWithoutParams(t *testing.T) {
	rec := &recorder{}
	c := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":[]}`)
	})

	posts, err := c.JobPosts(context.Background(), "acme", nil)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Empty(t, rec.reqs[0].URL.RawQuery)
}

func TestStatusError(t *testing.T) {
	rec := &recorder{}
	c := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such company", http.StatusNotFound)
	})

	_, err := c.Departments(context.Background(), "missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Body, "no such company")
}

func TestDecodeError(t *testing.T) {
	rec := &recorder{}
	c := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"content":`)
	})

	_, err := c.JobPosts(context.Background(), "acme", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestEmptyCompany(t *testing.T) {
	c := New(WithHTTPClient(&failingClient{t: t}))
	_, err := c.Departments(context.Background(), "  ")
	require.Error(t, err)
}

type failingClient struct{ t *testing.T }

func (f *failingClient) Do(*http.Request) (*http.Response, error) {
	f.t.Fatal("unexpected request")
	return nil, nil
}

func TestToken(t *testing.T) {
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r)
		fmt.Fprint(w, `{"content":[]}`)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithToken(" secret "), WithUserAgent("site-build"))
	_, err := c.Departments(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "secret", rec.reqs[0].Header.Get(TokenHeader))
	assert.Equal(t, "site-build", rec.reqs[0].Header.Get("User-Agent"))
}

func TestPaging(t *testing.T) {
	const total = 5
	rec := &recorder{}
	c := newServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var content []map[string]any
		for i := offset; i < total && i < offset+limit; i++ {
			content = append(content, map[string]any{"id": strconv.Itoa(i)})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content":    content,
			"totalFound": total,
			"offset":     offset,
			"limit":      limit,
		})
	})
	WithPageSize(2)(c)

	posts, err := c.JobPosts(context.Background(), "acme", map[string]any{"department": "9"})
	require.NoError(t, err)
	require.Len(t, posts, total)
	for i, p := range posts {
		assert.Equal(t, strconv.Itoa(i), p["id"])
	}

	require.Len(t, rec.reqs, 3)
	for _, r := range rec.reqs {
		assert.Equal(t, "9", r.URL.Query().Get("department"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
	}
	assert.Equal(t, "4", rec.reqs[2].URL.Query().Get("offset"))
}

func TestEncodeParams(t *testing.T) {
	q := EncodeParams(map[string]any{
		"q":      "go developer",
		"skip":   nil,
		"fields": []string{"a", "b"},
		"live":   true,
	})
	assert.Equal(t, "go developer", q.Get("q"))
	assert.Equal(t, []string{"a", "b"}, q["fields"])
	assert.Equal(t, "true", q.Get("live"))
	_, ok := q["skip"]
	assert.False(t, ok)
}
