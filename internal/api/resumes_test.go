package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panacea-app/panacea-cli/internal/testutil"
)

func TestUploadResume(t *testing.T) {
	t.Parallel()

	srv := testutil.Server(t, map[string]http.HandlerFunc{
		"POST /resumes": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()

			assert.Equal(t, "cv.pdf", header.Filename)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			testutil.JSONHandler(http.StatusCreated,
				`{"id":"r1","name":"cv","filename":"cv.pdf","active":false}`)(w, r)
		},
	})

	c := newTestClient(t, srv.URL)
	resume, err := c.UploadResume(context.Background(), "cv.pdf", strings.NewReader("%PDF-1.7 fake"))
	require.NoError(t, err)
	assert.Equal(t, "r1", resume.ID)
	assert.Equal(t, "cv.pdf", resume.Filename)
}

func TestSetActiveResume(t *testing.T) {
	t.Parallel()

	var hit bool
	srv := testutil.Server(t, map[string]http.HandlerFunc{
		"POST /resumes/r1/set-active": func(w http.ResponseWriter, r *http.Request) {
			hit = true
			w.WriteHeader(http.StatusNoContent)
		},
	})

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.SetActiveResume(context.Background(), "r1"))
	assert.True(t, hit)
}

func TestGetFormMap(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := testutil.Server(t, map[string]http.HandlerFunc{
		"GET /resume-editor/r1/form-map": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			testutil.JSONHandler(http.StatusOK,
				`{"fields":[{"id":"f1","type":"text","section":"Summary","text":"hello","page":1}]}`)(w, r)
		},
	})

	c := newTestClient(t, srv.URL)

	fields, err := c.GetFormMap(context.Background(), "r1", false)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Summary", fields[0].Section)
	assert.Empty(t, gotQuery)

	_, err = c.GetFormMap(context.Background(), "r1", true)
	require.NoError(t, err)
	assert.Equal(t, "refresh=true", gotQuery)
}
