package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"tutorials_api/internal/app"
	"tutorials_api/internal/domain/tutorial"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxFormMemory = 10 << 20 // 10MB

// TutorialService is the application surface the handlers drive.
type TutorialService interface {
	Create(ctx context.Context, in app.CreateTutorialInput) (*tutorial.Tutorial, error)
	List(ctx context.Context, titleContains string) ([]*tutorial.Tutorial, error)
	ListPublished(ctx context.Context) ([]*tutorial.Tutorial, error)
	Get(ctx context.Context, id uint) (*tutorial.Tutorial, error)
	Update(ctx context.Context, id uint, patch tutorial.Patch) error
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) (int64, error)
}

// TutorialHandlers serves the /tutorials resource.
type TutorialHandlers struct {
	service TutorialService
	out     responder
}

func NewTutorialHandlers(service TutorialService, recorder RequestRecorder, logger *logrus.Entry) *TutorialHandlers {
	return &TutorialHandlers{
		service: service,
		out:     responder{logger: logger, recorder: recorder},
	}
}

// tutorialPayload is the create/update body. Absent fields stay nil.
type tutorialPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Published   *bool   `json:"published"`
}

type deleteAllResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// Create handles POST /tutorials.
func (h *TutorialHandlers) Create(w http.ResponseWriter, r *http.Request) {
	const op = "create"
	msgs := failureMessages{Backend: "Some error occurred while creating the Tutorial.", ExposeBackend: true}

	body, err := decodePayload(r)
	if err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}

	in := app.CreateTutorialInput{Description: body.Description, Published: body.Published}
	if body.Title != nil {
		in.Title = *body.Title
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}
	h.out.respond(w, r, op, http.StatusCreated, created, "Tutorial created successfully.", nil)
}

// List handles GET /tutorials with an optional ?title= substring filter.
func (h *TutorialHandlers) List(w http.ResponseWriter, r *http.Request) {
	const op = "list"

	tutorials, err := h.service.List(r.Context(), r.URL.Query().Get("title"))
	if err != nil {
		h.out.fail(w, r, op, err, failureMessages{Backend: "Some error occurred while retrieving tutorials.", ExposeBackend: true})
		return
	}
	h.out.respond(w, r, op, http.StatusOK, nonNil(tutorials), "Tutorials retrieved successfully.", nil)
}

// ListPublished handles GET /tutorials/published. Any title parameter is ignored.
func (h *TutorialHandlers) ListPublished(w http.ResponseWriter, r *http.Request) {
	const op = "list_published"

	tutorials, err := h.service.ListPublished(r.Context())
	if err != nil {
		h.out.fail(w, r, op, err, failureMessages{Backend: "Some error occurred while retrieving tutorials.", ExposeBackend: true})
		return
	}
	h.out.respond(w, r, op, http.StatusOK, nonNil(tutorials), "Published tutorials retrieved successfully.", nil)
}

// Get handles GET /tutorials/{id}.
func (h *TutorialHandlers) Get(w http.ResponseWriter, r *http.Request) {
	const op = "get"
	raw := mux.Vars(r)["id"]
	msgs := failureMessages{
		NotFound: fmt.Sprintf("Cannot find Tutorial with id=%s.", raw),
		Backend:  "Error retrieving Tutorial with id=" + raw,
	}

	id, err := parseID(raw)
	if err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}
	h.out.respond(w, r, op, http.StatusOK, t, "Tutorial retrieved successfully.", nil)
}

// Update handles PUT /tutorials/{id} with any subset of the updatable fields.
func (h *TutorialHandlers) Update(w http.ResponseWriter, r *http.Request) {
	const op = "update"
	raw := mux.Vars(r)["id"]
	msgs := failureMessages{
		NotFound: fmt.Sprintf("Cannot update Tutorial with id=%s. Maybe Tutorial was not found or req.body is empty!", raw),
		Backend:  "Error updating Tutorial with id=" + raw,
	}

	id, err := parseID(raw)
	if err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}
	body, err := decodePayload(r)
	if err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}

	patch := tutorial.Patch{Title: body.Title, Description: body.Description, Published: body.Published}
	if err := h.service.Update(r.Context(), id, patch); err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}
	h.out.respond(w, r, op, http.StatusOK, messageResponse{Message: "Tutorial was updated successfully."}, "Tutorial updated successfully.", nil)
}

// Delete handles DELETE /tutorials/{id}.
func (h *TutorialHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "delete"
	raw := mux.Vars(r)["id"]
	msgs := failureMessages{
		NotFound: fmt.Sprintf("Cannot delete Tutorial with id=%s. Maybe Tutorial was not found!", raw),
		Backend:  "Could not delete Tutorial with id=" + raw,
	}

	id, err := parseID(raw)
	if err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.out.fail(w, r, op, err, msgs)
		return
	}
	h.out.respond(w, r, op, http.StatusOK, messageResponse{Message: "Tutorial was deleted successfully!"}, "Tutorial deleted successfully.", nil)
}

// DeleteAll handles DELETE /tutorials.
func (h *TutorialHandlers) DeleteAll(w http.ResponseWriter, r *http.Request) {
	const op = "delete_all"

	n, err := h.service.DeleteAll(r.Context())
	if err != nil {
		h.out.fail(w, r, op, err, failureMessages{Backend: "Some error occurred while removing all tutorials.", ExposeBackend: true})
		return
	}
	msg := fmt.Sprintf("%d Tutorials were deleted successfully!", n)
	h.out.respond(w, r, op, http.StatusOK, deleteAllResponse{Message: msg, Count: n}, msg, nil)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil {
		return 0, fmt.Errorf("%w=%s", tutorial.ErrInvalidID, raw)
	}
	return uint(id), nil
}

// decodePayload reads a JSON or form-encoded body. An empty body yields an empty payload.
func decodePayload(r *http.Request) (tutorialPayload, error) {
	var p tutorialPayload

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return decodeForm(r)
	}

	if r.Body == nil {
		return p, nil
	}
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return tutorialPayload{}, nil
		}
		return tutorialPayload{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return p, nil
}

func decodeForm(r *http.Request) (tutorialPayload, error) {
	var p tutorialPayload

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return p, fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	if _, ok := r.PostForm["title"]; ok {
		v := r.PostForm.Get("title")
		p.Title = &v
	}
	if _, ok := r.PostForm["description"]; ok {
		v := r.PostForm.Get("description")
		p.Description = &v
	}
	if _, ok := r.PostForm["published"]; ok {
		v, err := strconv.ParseBool(r.PostForm.Get("published"))
		if err != nil {
			return tutorialPayload{}, fmt.Errorf("%w: published must be a boolean", errMalformedBody)
		}
		p.Published = &v
	}
	return p, nil
}

func nonNil(ts []*tutorial.Tutorial) []*tutorial.Tutorial {
	if ts == nil {
		return []*tutorial.Tutorial{}
	}
	return ts
}
