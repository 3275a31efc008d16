// handlers_session.go - Dataset upload and session lifecycle handlers
package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions SessionStore
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionStore) SessionHandler {
	return &SessionHandlerImpl{sessions: sessions}
}

// readUpload returns the name and content of the multipart "file" field.
func readUpload(c echo.Context) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, NewBadRequestError("file is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, NewBadRequestError("failed to open uploaded file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, NewBadRequestError("failed to read uploaded file", err)
	}
	return fh.Filename, data, nil
}

// HandleCreateSession loads an uploaded file into a new session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	name, data, err := readUpload(c)
	if err != nil {
		return err
	}
	info, err := h.sessions.Load(c.Request().Context(), "", name, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, info)
}

// HandleReplaceDataset replaces a session's dataset with an uploaded file.
// On failure the previous dataset stays active.
func (h *SessionHandlerImpl) HandleReplaceDataset(c echo.Context) error {
	name, data, err := readUpload(c)
	if err != nil {
		return err
	}
	info, err := h.sessions.Load(c.Request().Context(), c.Param("id"), name, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

// HandleGetSession describes a session
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	info, err := h.sessions.Info(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteSession discards a session and its dataset
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleKeepAlive keeps an open dashboard's session from expiring
func (h *SessionHandlerImpl) HandleKeepAlive(c echo.Context) error {
	if err := h.sessions.Touch(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
