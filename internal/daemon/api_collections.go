package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"medley/internal/api"
	"medley/internal/library"
)

func (s *apiServer) handleCollections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		collections, err := s.catalogSvc.Collections(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, api.CollectionListResponse{Collections: collections})

	case http.MethodPost:
		var req api.CreateCollectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			s.writeError(w, http.StatusBadRequest, "collection name is required")
			return
		}
		created, err := s.catalogSvc.CreateCollection(r.Context(), req.Name, req.Description)
		if err != nil {
			if errors.Is(err, library.ErrCollectionExists) {
				s.writeError(w, http.StatusConflict, err.Error())
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, api.CollectionResponse{Collection: *created})

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCollection serves /api/collections/{id} and
// /api/collections/{id}/items/{itemID}.
func (s *apiServer) handleCollection(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/collections/")
	idStr, tail, _ := strings.Cut(rest, "/")
	action, remainder, _ := strings.Cut(tail, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid collection id")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		detail, err := s.catalogSvc.DescribeCollection(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if detail == nil {
			s.writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		s.writeJSON(w, http.StatusOK, detail)

	case action == "" && r.Method == http.MethodDelete:
		removed, err := s.catalogSvc.DeleteCollection(r.Context(), id)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "collection not found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})

	case strings.HasPrefix(action, "items"):
		s.handleCollectionItem(w, r, id, remainder)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleCollectionItem(w http.ResponseWriter, r *http.Request, collectionID int64, rest string) {
	itemID, err := strconv.ParseInt(strings.Trim(rest, "/"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	collection, err := s.daemon.store.GetCollection(r.Context(), collectionID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if collection == nil {
		s.writeError(w, http.StatusNotFound, "collection not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		item, err := s.daemon.store.GetByID(r.Context(), itemID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if item == nil {
			s.writeError(w, http.StatusNotFound, "item not found")
			return
		}
		added, err := s.catalogSvc.AddToCollection(r.Context(), collectionID, itemID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"added": added})

	case http.MethodDelete:
		removed, err := s.catalogSvc.RemoveFromCollection(r.Context(), collectionID, itemID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !removed {
			s.writeError(w, http.StatusNotFound, "item not in collection")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
