// Package api implements the FlexDB REST surface on top of the in-memory engine.
package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flexdb/flexdb-go/internal/engine"
	"github.com/flexdb/flexdb-go/pkg/schema"
)

// DefaultListLimit is the page size used when a list request has no limit.
const DefaultListLimit = 20

const (
	accountKey = "flexdb.account"
	storeKey   = "flexdb.store"
)

type Handler struct {
	Store *engine.MemStore
	// Accounts maps API keys to account names.
	Accounts map[string]string
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.Use(h.Authenticate)

	stores := r.Group("/stores")
	{
		stores.POST("", h.CreateStore)
		stores.GET("", h.ListStores)
		stores.GET("/:name", h.GetStore)
		stores.DELETE("/:id", h.DeleteStore)
	}

	collections := r.Group("/collections", h.RequireStore)
	{
		collections.POST("/:collection", h.CreateDocument)
		collections.GET("/:collection", h.ListDocuments)
		collections.DELETE("/:collection", h.DropCollection)
		collections.GET("/:collection/:id", h.GetDocument)
		collections.PUT("/:collection/:id", h.UpdateDocument)
		collections.DELETE("/:collection/:id", h.DeleteDocument)
	}
}

// Authenticate resolves the Authorization header. A missing header is anonymous.
func (h *Handler) Authenticate(c *gin.Context) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		c.Next()
		return
	}

	scheme, value, _ := strings.Cut(header, " ")
	value = strings.TrimSpace(value)
	switch scheme {
	case "Account":
		account, ok := h.Accounts[value]
		if !ok || value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Set(accountKey, account)
	case "Store":
		if value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing store id"})
			return
		}
		c.Set(storeKey, value)
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unsupported authorization scheme"})
		return
	}
	c.Next()
}

// RequireStore rejects requests that are not scoped to an existing store.
func (h *Handler) RequireStore(c *gin.Context) {
	id := c.GetString(storeKey)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "store authorization required"})
		return
	}
	if _, err := h.Store.Store(id); err != nil {
		h.abort(c, err)
		return
	}
	c.Next()
}

func (h *Handler) CreateStore(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.Store.CreateStore(input.Name, c.GetString(accountKey))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListStores(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.ListStores(c.GetString(accountKey)))
}

func (h *Handler) GetStore(c *gin.Context) {
	rec, err := h.Store.FindStore(c.Param("name"), c.GetString(accountKey))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteStore(c *gin.Context) {
	id := c.Param("id")
	if c.GetString(storeKey) != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "store authorization does not match"})
		return
	}
	if err := h.Store.DeleteStore(id); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Ack{Success: true})
}

func (h *Handler) CreateDocument(c *gin.Context) {
	var doc map[string]any
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.Store.Insert(c.GetString(storeKey), c.Param("collection"), doc)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	skip, limit, err := pageWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docs, err := h.Store.List(c.GetString(storeKey), c.Param("collection"), skip, limit)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.Store.Get(c.GetString(storeKey), c.Param("collection"), c.Param("id"))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) UpdateDocument(c *gin.Context) {
	var doc map[string]any
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.Store.Replace(c.GetString(storeKey), c.Param("collection"), c.Param("id"), doc)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.Store.Delete(c.GetString(storeKey), c.Param("collection"), c.Param("id")); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Ack{Success: true})
}

func (h *Handler) DropCollection(c *gin.Context) {
	if err := h.Store.DropCollection(c.GetString(storeKey), c.Param("collection")); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Ack{Success: true})
}

// abort maps engine errors to HTTP statuses.
func (h *Handler) abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrStoreNotFound),
		errors.Is(err, engine.ErrCollectionNotFound),
		errors.Is(err, engine.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrStoreExists):
		status = http.StatusConflict
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// pageWindow turns page/limit/skip query params into a skip/limit pair.
func pageWindow(c *gin.Context) (skip, limit int, err error) {
	limit = DefaultListLimit
	if raw, ok := c.GetQuery("limit"); ok {
		if limit, err = nonNegative("limit", raw); err != nil {
			return 0, 0, err
		}
	}

	rawPage, hasPage := c.GetQuery("page")
	rawSkip, hasSkip := c.GetQuery("skip")
	switch {
	case hasPage && hasSkip:
		return 0, 0, errors.New("page and skip cannot be combined")
	case hasPage:
		page, err := nonNegative("page", rawPage)
		if err != nil {
			return 0, 0, err
		}
		if page < 1 {
			return 0, 0, errors.New("page starts at 1")
		}
		if limit == 0 {
			return 0, 0, errors.New("limit must be positive when paging")
		}
		// A window past the addressable range is simply empty.
		if page-1 > math.MaxInt/limit {
			skip = math.MaxInt
		} else {
			skip = (page - 1) * limit
		}
	case hasSkip:
		if skip, err = nonNegative("skip", rawSkip); err != nil {
			return 0, 0, err
		}
	}
	return skip, limit, nil
}

func nonNegative(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}
