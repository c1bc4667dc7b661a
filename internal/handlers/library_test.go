package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"

	"media-gallery/internal/library"

	"github.com/gorilla/mux"
)

func muxVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

func TestKeywordHandlers(t *testing.T) {
	h := newTestHandlers(t, nil, nil)
	vars := map[string]string{"name": "travel"}

	if rr := send(h.AddKeyword, http.MethodPost, "/api/keywords", KeywordRequest{Name: "travel", Type: "images"}, nil); rr.Code != http.StatusOK {
		t.Fatalf("AddKeyword status = %d", rr.Code)
	}
	if rr := send(h.AddKeywordPath, http.MethodPost, "/api/keywords/travel/paths", PathRequest{Path: "/m/a"}, vars); rr.Code != http.StatusOK {
		t.Fatalf("AddKeywordPath status = %d", rr.Code)
	}
	if rr := send(h.AddKeywordPath, http.MethodPost, "/api/keywords/travel/paths", PathRequest{Path: "/m/b"}, vars); rr.Code != http.StatusOK {
		t.Fatalf("AddKeywordPath status = %d", rr.Code)
	}
	if rr := send(h.RemoveKeywordPath, http.MethodDelete, "/api/keywords/travel/paths", PathRequest{Path: "/m/a"}, vars); rr.Code != http.StatusOK {
		t.Fatalf("RemoveKeywordPath status = %d", rr.Code)
	}

	rr := get(h.GetKeywords, "/api/keywords")
	var keywords []library.Keyword
	decodeBody(t, rr, &keywords)
	want := []library.Keyword{{Name: "travel", Type: "images", Paths: []string{"/m/b"}}}
	if !reflect.DeepEqual(keywords, want) {
		t.Errorf("keywords = %+v, want %+v", keywords, want)
	}

	rr = send(h.GetKeyword, http.MethodGet, "/api/keywords/travel", nil, vars)
	if rr.Code != http.StatusOK {
		t.Errorf("GetKeyword status = %d", rr.Code)
	}

	if rr := send(h.RemoveKeyword, http.MethodDelete, "/api/keywords/travel", nil, vars); rr.Code != http.StatusOK {
		t.Fatalf("RemoveKeyword status = %d", rr.Code)
	}
	rr = send(h.GetKeyword, http.MethodGet, "/api/keywords/travel", nil, vars)
	if rr.Code != http.StatusNotFound {
		t.Errorf("GetKeyword after delete status = %d, want 404", rr.Code)
	}
}

func TestKeywordHandlerValidation(t *testing.T) {
	h := newTestHandlers(t, nil, nil)
	vars := map[string]string{"name": "k"}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		body    interface{}
		vars    map[string]string
	}{
		{"malformed body", h.AddKeyword, "{not json", nil},
		{"missing name", h.AddKeyword, KeywordRequest{Type: "x"}, nil},
		{"missing path on add", h.AddKeywordPath, PathRequest{}, vars},
		{"missing path on remove", h.RemoveKeywordPath, PathRequest{}, vars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := send(tt.handler, http.MethodPost, "/api/keywords", tt.body, tt.vars)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestTagHandlers(t *testing.T) {
	h := newTestHandlers(t, nil, nil)

	for _, tag := range []string{"red", "blue", "red"} {
		if rr := send(h.AddTag, http.MethodPost, "/api/tags", TagRequest{Tag: tag}, nil); rr.Code != http.StatusOK {
			t.Fatalf("AddTag(%s) status = %d", tag, rr.Code)
		}
	}
	if rr := send(h.AddTag, http.MethodPost, "/api/tags", TagRequest{}, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("AddTag empty status = %d", rr.Code)
	}

	var tags []string
	decodeBody(t, get(h.GetAllTags, "/api/tags"), &tags)
	if !reflect.DeepEqual(tags, []string{"blue", "red"}) {
		t.Errorf("tags = %v", tags)
	}

	if rr := send(h.DeleteTag, http.MethodDelete, "/api/tags/blue", nil, map[string]string{"tag": "blue"}); rr.Code != http.StatusOK {
		t.Fatalf("DeleteTag status = %d", rr.Code)
	}
	decodeBody(t, get(h.GetAllTags, "/api/tags"), &tags)
	if !reflect.DeepEqual(tags, []string{"red"}) {
		t.Errorf("tags after delete = %v", tags)
	}
}

func TestGalleryTagHandlers(t *testing.T) {
	h := newTestHandlers(t, nil, nil)

	for _, req := range []TagRequest{{Path: "/g/1", Tag: "x"}, {Path: "/g/2", Tag: "x"}, {Path: "/g/1", Tag: "y"}} {
		if rr := send(h.AddGalleryTag, http.MethodPost, "/api/gallery-tags", req, nil); rr.Code != http.StatusOK {
			t.Fatalf("AddGalleryTag status = %d", rr.Code)
		}
	}

	var tags []string
	decodeBody(t, get(h.GetGalleryTags, withPath("/api/gallery-tags", "/g/1")), &tags)
	if !reflect.DeepEqual(tags, []string{"x", "y"}) {
		t.Errorf("gallery tags = %v", tags)
	}

	var paths []string
	rr := send(h.GetGalleriesByTag, http.MethodGet, "/api/tags/x/galleries", nil, map[string]string{"tag": "x"})
	decodeBody(t, rr, &paths)
	if !reflect.DeepEqual(paths, []string{"/g/1", "/g/2"}) {
		t.Errorf("galleries = %v", paths)
	}

	if rr := send(h.RemoveGalleryTag, http.MethodDelete, "/api/gallery-tags", TagRequest{Path: "/g/1", Tag: "x"}, nil); rr.Code != http.StatusOK {
		t.Fatalf("RemoveGalleryTag status = %d", rr.Code)
	}
	decodeBody(t, get(h.GetGalleryTags, withPath("/api/gallery-tags", "/g/1")), &tags)
	if !reflect.DeepEqual(tags, []string{"y"}) {
		t.Errorf("gallery tags after remove = %v", tags)
	}

	if rr := get(h.GetGalleryTags, "/api/gallery-tags"); rr.Code != http.StatusBadRequest {
		t.Errorf("missing path status = %d", rr.Code)
	}
	if rr := send(h.AddGalleryTag, http.MethodPost, "/api/gallery-tags", TagRequest{Tag: "x"}, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("missing path on add status = %d", rr.Code)
	}
}

func TestFavoriteHandlers(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Album/a.jpg": "x"})
	album := filepath.Join(dir, "Album")
	h := newTestHandlers(t, nil, nil)

	var toggled map[string]bool
	rr := send(h.ToggleFavorite, http.MethodPost, "/api/favorites/toggle", PathRequest{Path: album}, nil)
	decodeBody(t, rr, &toggled)
	if rr.Code != http.StatusOK || !toggled["isFavorite"] {
		t.Fatalf("toggle on: status %d body %v", rr.Code, toggled)
	}

	var check map[string]bool
	decodeBody(t, get(h.CheckFavorite, withPath("/api/favorites/check", album)), &check)
	if !check["isFavorite"] {
		t.Error("CheckFavorite = false after adding")
	}

	var favs []map[string]interface{}
	decodeBody(t, get(h.GetFavorites, "/api/favorites"), &favs)
	if len(favs) != 1 || favs[0]["name"] != "Album" || favs[0]["type"] != "images" {
		t.Errorf("favorites = %v", favs)
	}

	rr = send(h.ToggleFavorite, http.MethodPost, "/api/favorites/toggle", PathRequest{Path: album}, nil)
	decodeBody(t, rr, &toggled)
	if toggled["isFavorite"] {
		t.Error("second toggle should remove the favorite")
	}

	rr = send(h.ToggleFavorite, http.MethodPost, "/api/favorites/toggle", PathRequest{Path: filepath.Join(dir, "missing")}, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("toggle missing path status = %d, want 404", rr.Code)
	}
	if rr := send(h.ToggleFavorite, http.MethodPost, "/api/favorites/toggle", PathRequest{}, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("toggle empty path status = %d", rr.Code)
	}
	if rr := get(h.CheckFavorite, "/api/favorites/check"); rr.Code != http.StatusBadRequest {
		t.Errorf("check without path status = %d", rr.Code)
	}
}

func TestSearchHandler(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"films/a.mp4": "x"})
	films := filepath.Join(dir, "films")
	h := newTestHandlers(t, nil, nil)

	send(h.AddKeyword, http.MethodPost, "/api/keywords", KeywordRequest{Name: "movies", Type: "videos"}, nil)
	send(h.AddKeywordPath, http.MethodPost, "/api/keywords/movies/paths", PathRequest{Path: films}, map[string]string{"name": "movies"})

	rr := get(h.Search, "/api/search?q=movies")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var results []library.Result
	decodeBody(t, rr, &results)
	if len(results) != 1 || results[0].Path != films || results[0].Type != "videos" || results[0].IsFavorite {
		t.Errorf("results = %+v", results)
	}

	if rr := get(h.Search, "/api/search"); rr.Code != http.StatusBadRequest {
		t.Errorf("empty query status = %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=nothing", nil)
	rr = httptest.NewRecorder()
	h.Search(rr, req)
	if rr.Body.String() != "[]\n" {
		t.Errorf("no results body = %q, want []", rr.Body.String())
	}
}

func TestLibraryHandlersStoreFailure(t *testing.T) {
	h := newTestHandlers(t, nil, failingStore{})

	rr := get(h.GetKeywords, "/api/keywords")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != "Internal server error" {
		t.Errorf("error = %q, should not leak the cause", msg)
	}
}
