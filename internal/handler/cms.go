package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jobbase/job-board/internal/cms"
	"github.com/jobbase/job-board/internal/server"
)

type postReader interface {
	CategoryPosts(ctx context.Context, slug string) ([]cms.PostSummary, error)
	Post(ctx context.Context, slug string) (cms.Post, error)
}

func CategoryPostsHandler(svr server.Server, posts postReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(r.URL.Query().Get("slug"))
		res, err := posts.CategoryPosts(r.Context(), slug)
		if errors.Is(err, cms.ErrUnknownCategory) {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": err.Error()})
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to fetch posts for category %s", slug))
			svr.JSON(w, http.StatusBadGateway, map[string]interface{}{"success": false, "message": "Unable to load posts"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "posts": res})
	}
}

func SinglePostHandler(svr server.Server, posts postReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(r.URL.Query().Get("slug"))
		if slug == "" {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Missing slug parameter"})
			return
		}
		post, err := posts.Post(r.Context(), slug)
		if errors.Is(err, cms.ErrPostNotFound) {
			svr.JSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": err.Error()})
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to fetch post %s", slug))
			svr.JSON(w, http.StatusBadGateway, map[string]interface{}{"success": false, "message": "Unable to load post"})
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "post": post})
	}
}
