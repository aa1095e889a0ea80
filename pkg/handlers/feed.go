package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"thoughtstream/pkg/feedview"
	"thoughtstream/pkg/forms"
	"thoughtstream/pkg/notify"
	"thoughtstream/pkg/posts"
)

// FeedHandler serves the browse view and the feed-level controls: filter,
// pagination, section switching, refresh and the toast drain.
type FeedHandler struct {
	Controller *posts.FeedController
	Form       *forms.CreateForm
	Dialog     *forms.Dialog
	Notifier   *notify.Notifier
	Caps       feedview.Capabilities
	Logger     *zap.SugaredLogger
}

type draftView struct {
	forms.PostForm
	Counts forms.DraftCounts `json:"counts"`
}

type feedResponse struct {
	feedview.Page
	Draft  draftView         `json:"draft"`
	Dialog forms.DialogState `json:"dialog"`
}

func (handler *FeedHandler) buildFeed() feedResponse {
	draft, counts := handler.Form.Draft()
	return feedResponse{
		Page:   feedview.Build(handler.Controller.Snapshot(), handler.Caps),
		Draft:  draftView{PostForm: draft, Counts: counts},
		Dialog: handler.Dialog.Snapshot(),
	}
}

func (handler *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, handler.Logger, http.StatusOK, handler.buildFeed())
}

// Refresh re-runs the initial fetch; the response is the resulting view,
// loading and failure states included.
func (handler *FeedHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	handler.Logger.Info("refreshing feed")
	handler.Controller.Refresh(r.Context())
	sendJSON(w, handler.Logger, http.StatusOK, handler.buildFeed())
}

type filterRequest struct {
	UserID string `json:"userId"`
}

func (handler *FeedHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	js, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, ErrReadReqBody.Error(), http.StatusInternalServerError)
		handler.Logger.Error(err)
		return
	}

	req := filterRequest{}
	if err := json.Unmarshal(js, &req); err != nil {
		http.Error(w, ErrJSONUnmarshal.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	if err := handler.Controller.SetFilter(req.UserID); err != nil {
		sendMessage(w, handler.Logger, http.StatusBadRequest, err.Error())
		return
	}
	handler.Logger.Infow("filter set", "userID", req.UserID)
	sendJSON(w, handler.Logger, http.StatusOK, handler.buildFeed())
}

func (handler *FeedHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	handler.Controller.NextPage()
	sendJSON(w, handler.Logger, http.StatusOK, handler.buildFeed())
}

func (handler *FeedHandler) PrevPage(w http.ResponseWriter, r *http.Request) {
	handler.Controller.PrevPage()
	sendJSON(w, handler.Logger, http.StatusOK, handler.buildFeed())
}

type sectionRequest struct {
	Section string `json:"section"`
}

func (handler *FeedHandler) SetSection(w http.ResponseWriter, r *http.Request) {
	js, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, ErrReadReqBody.Error(), http.StatusInternalServerError)
		handler.Logger.Error(err)
		return
	}

	req := sectionRequest{}
	if err := json.Unmarshal(js, &req); err != nil {
		http.Error(w, ErrJSONUnmarshal.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	if err := handler.Controller.SetSection(req.Section); err != nil {
		if errors.Is(err, posts.ErrUnknownSection) {
			sendMessage(w, handler.Logger, http.StatusBadRequest, err.Error())
			return
		}
		sendMessage(w, handler.Logger, http.StatusInternalServerError, err.Error())
		return
	}
	sendJSON(w, handler.Logger, http.StatusOK, handler.buildFeed())
}

type notificationsResponse struct {
	Notifications []notify.Toast `json:"notifications"`
}

func (handler *FeedHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	toasts := handler.Notifier.Drain()
	if toasts == nil {
		toasts = []notify.Toast{}
	}
	sendJSON(w, handler.Logger, http.StatusOK, notificationsResponse{Notifications: toasts})
}
