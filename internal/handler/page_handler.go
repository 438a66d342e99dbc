package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/refexsite/internal/db"
	"github.com/refexsite/internal/service"
)

type pagePayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GetPage returns a slug page with its rendered HTML.
func (a *API) GetPage(c *gin.Context) {
	page, err := a.pages.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "page not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	html, err := service.RenderMarkdown(page.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to render page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": pageResponse(page, html)})
}

// SavePage creates or updates the markdown page under the slug.
func (a *API) SavePage(c *gin.Context) {
	var payload pagePayload
	if !bindJSON(c, &payload, "invalid page payload") {
		return
	}

	page, err := a.pages.Save(c.Param("slug"), service.PageInput{Title: payload.Title, Content: payload.Content})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPageContentMissing):
			respondError(c, http.StatusBadRequest, "page content is required")
		case errors.Is(err, service.ErrPageSlugInvalid):
			respondError(c, http.StatusBadRequest, "page slug is invalid")
		default:
			respondError(c, http.StatusInternalServerError, "failed to save page")
		}
		return
	}

	html, err := service.RenderMarkdown(page.Content)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to render page")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "page saved", "page": pageResponse(page, html)})
}

func pageResponse(page *db.Page, html string) gin.H {
	return gin.H{
		"slug":      page.Slug,
		"title":     page.Title,
		"summary":   page.Summary,
		"content":   page.Content,
		"html":      html,
		"updatedAt": page.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
