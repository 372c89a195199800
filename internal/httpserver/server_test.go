package httpserver_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bmpop/internal/httpserver"
	"github.com/nikbrunner/bmpop/internal/logger"
	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/nikbrunner/bmpop/internal/popup"
	"github.com/nikbrunner/bmpop/internal/storage"
)

func testTree() []model.TreeNode {
	return []model.TreeNode{
		{ID: "1", Title: "Bookmarks bar", Children: []model.TreeNode{
			{ID: "3", ParentID: "1", Title: "GitHub", URL: "https://github.com"},
			{ID: "4", ParentID: "1", Index: 1, Title: "Dev", Children: []model.TreeNode{
				{ID: "5", ParentID: "4", Title: "Go", URL: "https://go.dev"},
			}},
		}},
	}
}

func newServer(t *testing.T) (*httptest.Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore(testTree())
	coord := popup.NewCoordinator(popup.CoordinatorParams{Store: store})
	srv := httptest.NewServer(httpserver.NewRouter(coord, logger.Nop(), time.Second))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	assert.NilError(t, err)
	resp, err := http.DefaultClient.Do(req)
	assert.NilError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	assert.NilError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	assert.Equal(t, decode[map[string]string](t, resp)["status"], "ok")
}

func TestListBookmarks(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/bookmarks", "")
	assert.Equal(t, resp.StatusCode, http.StatusOK)
	assert.Equal(t, resp.Header.Get("Content-Type"), "application/json")

	records := decode[[]model.Record](t, resp)
	assert.Equal(t, len(records), 2)
	assert.Equal(t, records[0].ID, "3")
	assert.Equal(t, records[1].Title, "Go")
	assert.Equal(t, records[1].ParentID, "4")
}

func TestListBookmarks_SeesOutsideChanges(t *testing.T) {
	srv, store := newServer(t)
	do(t, http.MethodGet, srv.URL+"/api/bookmarks", "")

	assert.NilError(t, store.Remove(context.Background(), "3"))

	records := decode[[]model.Record](t, do(t, http.MethodGet, srv.URL+"/api/bookmarks", ""))
	assert.Equal(t, len(records), 1)
}

func TestListBookmarks_StoreUnavailable(t *testing.T) {
	srv, store := newServer(t)
	store.FailNext(storage.OpFetch, fmt.Errorf("fetch: %w", storage.ErrUnavailable))

	resp := do(t, http.MethodGet, srv.URL+"/api/bookmarks", "")
	assert.Equal(t, resp.StatusCode, http.StatusBadGateway)
	body := decode[map[string]string](t, resp)
	assert.Check(t, is.Contains(body["error"], "unavailable"))
	assert.Check(t, body["request_id"] != "")
}

func TestDeleteBookmark(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		fail   error
		status int
	}{
		{name: "deleted", id: "3", status: http.StatusNoContent},
		{name: "unknown id", id: "99", status: http.StatusNotFound},
		{name: "top-level folder", id: "1", status: http.StatusConflict},
		{name: "folder with children", id: "4", status: http.StatusConflict},
		{name: "store unavailable", id: "3", fail: fmt.Errorf("remove: %w", storage.ErrUnavailable), status: http.StatusBadGateway},
		{name: "unexpected failure", id: "3", fail: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newServer(t)
			if tt.fail != nil {
				store.FailNext(storage.OpRemove, tt.fail)
			}

			resp := do(t, http.MethodDelete, srv.URL+"/api/bookmarks/"+tt.id, "")
			assert.Equal(t, resp.StatusCode, tt.status)

			tree, err := store.FetchTree(context.Background())
			assert.NilError(t, err)
			deleted := model.FindNode(tree, tt.id) == nil
			assert.Equal(t, deleted, tt.status == http.StatusNoContent || tt.status == http.StatusNotFound)
		})
	}
}

func TestRenameBookmark(t *testing.T) {
	srv, store := newServer(t)

	resp := do(t, http.MethodPatch, srv.URL+"/api/bookmarks/5", `{"title":"Go Dev"}`)
	assert.Equal(t, resp.StatusCode, http.StatusOK)

	rec := decode[model.Record](t, resp)
	assert.Equal(t, rec.ID, "5")
	assert.Equal(t, rec.Title, "Go Dev")

	tree, err := store.FetchTree(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, model.FindNode(tree, "5").Title, "Go Dev")
}

func TestRenameFolder(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodPatch, srv.URL+"/api/bookmarks/4", `{"title":"Development"}`)
	assert.Equal(t, resp.StatusCode, http.StatusNoContent)
}

func TestRenameBookmark_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty body", body: "", want: "invalid JSON body"},
		{name: "not json", body: "title=x", want: "invalid JSON body"},
		{name: "unknown field", body: `{"name":"x"}`, want: "invalid JSON body"},
		{name: "missing title", body: `{}`, want: "title"},
		{name: "blank title", body: `{"title":"   "}`, want: "blank"},
		{name: "too long", body: `{"title":"` + strings.Repeat("x", 2000) + `"}`, want: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newServer(t)

			resp := do(t, http.MethodPatch, srv.URL+"/api/bookmarks/3", tt.body)
			assert.Equal(t, resp.StatusCode, http.StatusBadRequest)
			assert.Check(t, is.Contains(decode[map[string]string](t, resp)["error"], tt.want))

			tree, err := store.FetchTree(context.Background())
			assert.NilError(t, err)
			assert.Equal(t, model.FindNode(tree, "3").Title, "GitHub")
		})
	}
}

func TestRenameBookmark_UnknownID(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodPatch, srv.URL+"/api/bookmarks/99", `{"title":"x"}`)
	assert.Equal(t, resp.StatusCode, http.StatusNotFound)
}

func TestServer_StartStop(t *testing.T) {
	store := storage.NewMemoryStore(testTree())
	coord := popup.NewCoordinator(popup.CoordinatorParams{Store: store})
	srv := httpserver.New(httpserver.Params{Addr: "127.0.0.1:0", Coordinator: coord})

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NilError(t, srv.Stop(ctx))
	assert.NilError(t, <-done)
}
