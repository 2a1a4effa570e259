package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/realiefan/note-exte/drafts"
	"github.com/realiefan/note-exte/nostr"
	"github.com/realiefan/note-exte/profile"
)

type tagsRequest struct {
	Tags []string `json:"tags"`
}

type publishRequest struct {
	Content string `json:"content"`
}

type draftRequest struct {
	Body string `json:"body"`
}

func (app *Application) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		doResponse(w, http.StatusMethodNotAllowed, false, "method not allowed")
		return
	}

	doResponse(w, http.StatusOK, true, app.session.Snapshot())
}

func (app *Application) handleTags(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doResponse(w, http.StatusOK, true, app.session.Tags())
	case http.MethodPut:
		var req tagsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			doResponse(w, http.StatusBadRequest, false, "malformed request body")
			return
		}

		if err := app.session.SetTags(req.Tags); err != nil {
			doResponse(w, http.StatusInternalServerError, false, err.Error())
			return
		}
		doResponse(w, http.StatusOK, true, req.Tags)
	default:
		doResponse(w, http.StatusMethodNotAllowed, false, "method not allowed")
	}
}

func (app *Application) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		doResponse(w, http.StatusMethodNotAllowed, false, "method not allowed")
		return
	}

	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		doResponse(w, http.StatusBadRequest, false, "malformed request body")
		return
	}
	if req.Content == "" {
		doResponse(w, http.StatusBadRequest, false, "empty note content")
		return
	}

	ev, err := app.publisher.Publish(r.Context(), req.Content)
	switch {
	case errors.Is(err, nostr.ErrSignerUnavailable):
		doResponse(w, http.StatusPreconditionFailed, false, err.Error())
	case errors.Is(err, nostr.ErrSignRejected):
		doResponse(w, http.StatusForbidden, false, err.Error())
	case err != nil:
		doResponse(w, http.StatusBadGateway, false, err.Error())
	default:
		doResponse(w, http.StatusOK, true, ev)
	}
}

func (app *Application) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		doResponse(w, http.StatusMethodNotAllowed, false, "method not allowed")
		return
	}

	pubkeys := r.URL.Query()["pubkey"]
	if len(pubkeys) == 0 {
		doResponse(w, http.StatusBadRequest, false, "missing pubkey parameter")
		return
	}

	profiles := app.resolver.Lookup(r.Context(), pubkeys)
	if r.URL.Query().Get("verify") != "" {
		profiles = profile.VerifyAll(r.Context(), nil, profiles)
	}

	doResponse(w, http.StatusOK, true, profiles)
}

func (app *Application) handleDrafts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := app.store.List()
		if err != nil {
			doResponse(w, http.StatusInternalServerError, false, err.Error())
			return
		}
		doResponse(w, http.StatusOK, true, list)
	case http.MethodPost:
		var req draftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			doResponse(w, http.StatusBadRequest, false, "malformed request body")
			return
		}

		draft, err := app.store.Add(req.Body)
		if err != nil {
			doResponse(w, http.StatusInternalServerError, false, err.Error())
			return
		}
		doResponse(w, http.StatusOK, true, draft)
	default:
		doResponse(w, http.StatusMethodNotAllowed, false, "method not allowed")
	}
}

func (app *Application) handleDraftByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/drafts/"), 10, 64)
	if err != nil {
		doResponse(w, http.StatusBadRequest, false, "invalid draft id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req draftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			doResponse(w, http.StatusBadRequest, false, "malformed request body")
			return
		}
		err = app.store.Update(id, req.Body)
	case http.MethodDelete:
		err = app.store.Delete(id)
	default:
		doResponse(w, http.StatusMethodNotAllowed, false, "method not allowed")
		return
	}

	if errors.Is(err, drafts.ErrNotFound) {
		doResponse(w, http.StatusNotFound, false, err.Error())
		return
	}
	if err != nil {
		doResponse(w, http.StatusInternalServerError, false, err.Error())
		return
	}
	doResponse(w, http.StatusOK, true, id)
}

func (app *Application) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		doResponse(w, http.StatusMethodNotAllowed, false, "method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="drafts.json"`)
	if err := app.store.Export(w); err != nil {
		doResponse(w, http.StatusInternalServerError, false, err.Error())
	}
}

func (app *Application) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		doResponse(w, http.StatusMethodNotAllowed, false, "method not allowed")
		return
	}

	err := app.store.Import(r.Body)
	if errors.Is(err, drafts.ErrInvalidFile) {
		doResponse(w, http.StatusBadRequest, false, err.Error())
		return
	}
	if err != nil {
		doResponse(w, http.StatusInternalServerError, false, err.Error())
		return
	}

	list, err := app.store.List()
	if err != nil {
		doResponse(w, http.StatusInternalServerError, false, err.Error())
		return
	}
	doResponse(w, http.StatusOK, true, list)
}
