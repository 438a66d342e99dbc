package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/refexsite/internal/db"
	"github.com/refexsite/internal/service"
)

// RegisterContentRoutes mounts every content section below cms. Reads are
// public; admin guards every mutation.
func (a *API) RegisterContentRoutes(cms *gin.RouterGroup, admin gin.HandlerFunc) {
	cat := a.catalog

	mountSingleton(cms.Group("/home/hero"), admin, cat.HomeHero)
	mountSingleton(cms.Group("/home/who-we-are"), admin, cat.WhoWeAre)
	mountCollection(cms.Group("/home/features"), admin, cat.Features, nil)
	mountCollection(cms.Group("/home/impacts"), admin, cat.Impacts, nil)
	mountCollection(cms.Group("/home/businesses"), admin, cat.Businesses, nil)
	mountCollection(cms.Group("/home/clients"), admin, cat.Clients, nil)
	mountCollection(cms.Group("/home/awards"), admin, cat.Awards, nil)

	mountSingleton(cms.Group("/layout/header"), admin, cat.Header)
	mountCollection(cms.Group("/layout/navigation"), admin, cat.Navigation, nil)
	mountSingleton(cms.Group("/layout/footer"), admin, cat.Footer)
	mountCollection(cms.Group("/layout/footer-links"), admin, cat.FooterLinks, nil)

	mountSingleton(cms.Group("/about/page"), admin, cat.About)
	mountCollection(cms.Group("/about/leaders"), admin, cat.Leaders, nil)

	mountSingleton(cms.Group("/verticals/ash-utilization"), admin, cat.AshUtilization)
	mountSingleton(cms.Group("/verticals/green-mobility"), admin, cat.GreenMobility)
	mountSingleton(cms.Group("/esg/page"), admin, cat.Esg)
	mountCollection(cms.Group("/esg/policies"), admin, cat.EsgPolicies, nil)

	mountSingleton(cms.Group("/investors/page"), admin, cat.Investors)
	mountCollection(cms.Group("/investors/documents"), admin, cat.InvestorDocuments, nil)

	mountCollection(cms.Group("/newsroom/press-releases"), admin, cat.PressReleases, a.GetPressRelease)

	cms.GET("/pages/:slug", a.GetPage)
	cms.PUT("/pages/:slug", admin, a.SavePage)

	cms.GET("/sections", admin, a.ListSections)
}

type collectionRoutes[T any, P service.EntryPtr[T]] struct {
	svc *service.Collection[T, P]
}

func mountCollection[T any, P service.EntryPtr[T]](g *gin.RouterGroup, admin gin.HandlerFunc, svc *service.Collection[T, P], detail gin.HandlerFunc) {
	r := collectionRoutes[T, P]{svc: svc}
	if detail == nil {
		detail = r.get
	}
	g.GET("", r.list)
	g.GET("/:id", detail)
	g.POST("", admin, r.create)
	g.PUT("/reorder", admin, r.reorder)
	g.PUT("/:id", admin, r.update)
	g.DELETE("/:id", admin, r.remove)
}

func (r collectionRoutes[T, P]) list(c *gin.Context) {
	items, err := r.svc.List(c.Query("all") == "true" && isAdmin(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (r collectionRoutes[T, P]) get(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	item, err := r.svc.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !item.Base().IsActive && !isAdmin(c) {
		respondError(c, http.StatusNotFound, "record not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r collectionRoutes[T, P]) create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read request body")
		return
	}
	item := r.svc.New()
	if err := json.Unmarshal(body, item); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	created, err := r.svc.Create(item)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (r collectionRoutes[T, P]) update(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read request body")
		return
	}
	updated, err := r.svc.Update(id, func(item P) error {
		return json.Unmarshal(body, item)
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (r collectionRoutes[T, P]) remove(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := r.svc.Delete(id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type reorderRequest struct {
	IDs []uint `json:"ids"`
}

func (r collectionRoutes[T, P]) reorder(c *gin.Context) {
	var payload reorderRequest
	if !bindJSON(c, &payload, "ids must be a list of record ids") {
		return
	}
	if err := r.svc.Reorder(payload.IDs); err != nil {
		respondServiceError(c, err)
		return
	}
	items, err := r.svc.List(true)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type singletonRoutes[T any, P service.EntryPtr[T]] struct {
	svc *service.Singleton[T, P]
}

func mountSingleton[T any, P service.EntryPtr[T]](g *gin.RouterGroup, admin gin.HandlerFunc, svc *service.Singleton[T, P]) {
	r := singletonRoutes[T, P]{svc: svc}
	g.GET("", r.get)
	g.PUT("", admin, r.upsert)
	g.POST("", admin, r.upsert)
}

func (r singletonRoutes[T, P]) get(c *gin.Context) {
	item, err := r.svc.Get()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r singletonRoutes[T, P]) upsert(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read request body")
		return
	}
	item, err := r.svc.Upsert(func(item P) error {
		return json.Unmarshal(body, item)
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type pressReleaseDetail struct {
	*db.PressRelease
	HTML string `json:"html"`
}

// GetPressRelease returns one press release with its markdown rendered.
func (a *API) GetPressRelease(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	item, err := a.catalog.PressReleases.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !item.IsActive && !isAdmin(c) {
		respondError(c, http.StatusNotFound, "record not found")
		return
	}

	html, err := service.RenderMarkdown(item.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pressReleaseDetail{PressRelease: item, HTML: html})
}

// ListSections reports every content section with its row count.
func (a *API) ListSections(c *gin.Context) {
	sections := a.catalog.Sections()
	out := make([]gin.H, 0, len(sections))
	for _, section := range sections {
		count, err := section.Count()
		if err != nil {
			respondServiceError(c, err)
			return
		}
		out = append(out, gin.H{"key": section.Key(), "kind": section.Kind(), "count": count})
	}
	c.JSON(http.StatusOK, gin.H{"sections": out})
}
