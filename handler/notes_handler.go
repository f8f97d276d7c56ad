package handler

import (
	"errors"
	"log"
	"strconv"

	"notesync/dto"
	"notesync/metrics"
	"notesync/middleware"
	"notesync/model"
	"notesync/repository"
	"notesync/services"
	"notesync/usecase"
	"notesync/utils"

	"github.com/gin-gonic/gin"
)

func noteLinks(c *gin.Context) func(*model.Note) map[string]dto.NoteLink {
	baseURL := utils.GetBaseURL(c)
	return func(note *model.Note) map[string]dto.NoteLink {
		return dto.NoteLinks(baseURL, note)
	}
}

// requireUser fails closed when the auth middleware did not resolve a user.
func requireUser(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		utils.Unauthorized(c, "User not authenticated")
		return "", false
	}
	return userID, true
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		metrics.TrackError("validation")
		utils.BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrNoteNotFound):
		utils.NotFound(c, "Note not found")
	case errors.Is(err, repository.ErrSlugTaken):
		utils.Conflict(c, "Slug already in use")
	case errors.Is(err, services.ErrCacheInvalidation):
		metrics.TrackError("cache")
		log.Printf("note write committed but cache invalidation failed: %v", err)
		utils.InternalError(c, "Note saved but cache could not be refreshed")
	default:
		metrics.TrackError("db")
		log.Printf("note operation failed: %v", err)
		utils.InternalError(c, "Internal server error")
	}
}

func ListNotesHandler(c *gin.Context, notesService *usecase.NotesService) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(services.DefaultListPage)))
	if err != nil {
		utils.BadRequest(c, "page must be a number")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultListLimit)))
	if err != nil {
		utils.BadRequest(c, "limit must be a number")
		return
	}

	result, err := notesService.ListNotesCached(c.Request.Context(), userID, model.ListQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	baseURL := utils.GetBaseURL(c)
	self := baseURL + "/notes"
	if c.Request.URL.RawQuery != "" {
		self += "?" + c.Request.URL.RawQuery
	}
	links := map[string]dto.NoteLink{
		"self":   {Href: self, Method: "GET"},
		"create": {Href: baseURL + "/notes", Method: "POST"},
	}
	utils.Success(c, dto.NewNotesPageResponse(result, links, noteLinks(c)))
}

func CreateNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body: title, slug and content are required")
		return
	}

	note, err := notesService.CreateNoteAndInvalidate(c.Request.Context(), userID, usecase.CreateNoteInput{
		Title:   req.Title,
		Slug:    req.Slug,
		Content: req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Created(c, dto.ToNoteResponse(note, noteLinks(c)(note)))
}

func GetNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	note, err := notesService.GetNoteCached(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(note, noteLinks(c)(note)))
}

func GetNoteBySlugHandler(c *gin.Context, notesService *usecase.NotesService) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	note, err := notesService.GetNoteBySlugCached(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(note, noteLinks(c)(note)))
}

func UpdateNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body")
		return
	}

	note, err := notesService.ApplyUpdateAndInvalidate(c.Request.Context(), userID, c.Param("id"), req.ToModel())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, dto.ToNoteResponse(note, noteLinks(c)(note)))
}

func DeleteNoteHandler(c *gin.Context, notesService *usecase.NotesService) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := notesService.ApplyDeleteAndInvalidate(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	utils.Deleted(c, "Note deleted")
}

// RegisterNoteRoutes mounts the note endpoints on an authenticated group.
func RegisterNoteRoutes(notes *gin.RouterGroup, notesService *usecase.NotesService) {
	notes.GET("", func(c *gin.Context) {
		ListNotesHandler(c, notesService)
	})
	notes.POST("", func(c *gin.Context) {
		CreateNoteHandler(c, notesService)
	})
	notes.GET("/slug/:slug", func(c *gin.Context) {
		GetNoteBySlugHandler(c, notesService)
	})
	notes.GET("/:id", func(c *gin.Context) {
		GetNoteHandler(c, notesService)
	})
	notes.PATCH("/:id", func(c *gin.Context) {
		UpdateNoteHandler(c, notesService)
	})
	notes.PUT("/:id", func(c *gin.Context) {
		UpdateNoteHandler(c, notesService)
	})
	notes.DELETE("/:id", func(c *gin.Context) {
		DeleteNoteHandler(c, notesService)
	})
}
