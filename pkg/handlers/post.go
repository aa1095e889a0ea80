package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"thoughtstream/pkg/comments"
	"thoughtstream/pkg/forms"
	"thoughtstream/pkg/gateway"
	"thoughtstream/pkg/posts"
)

// PostHandler serves the per-post actions: create, edit, delete, the
// like/expand toggles and the comment viewer.
type PostHandler struct {
	Controller *posts.FeedController
	Form       *forms.CreateForm
	Dialog     *forms.Dialog
	Viewer     *comments.Viewer
	Logger     *zap.SugaredLogger
}

type fieldErrorResponse struct {
	Errors []forms.FieldError `json:"errors"`
}

type toggleResponse struct {
	ID     int  `json:"id"`
	Active bool `json:"active"`
}

func (handler *PostHandler) postID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["ID"])
	if err != nil {
		return 0, ErrBadPostID
	}
	return id, nil
}

// upstreamStatus maps a failed upstream call to the status the browser
// gets: the gateway's single error kind becomes 502, anything else 500.
func upstreamStatus(err error) int {
	var netErr *gateway.NetworkError
	if errors.As(err, &netErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (handler *PostHandler) AddPost(w http.ResponseWriter, r *http.Request) {
	handler.Logger.Info("adding post")

	js, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, ErrReadReqBody.Error(), http.StatusInternalServerError)
		handler.Logger.Error(err)
		return
	}

	input := forms.PostForm{}
	if err := json.Unmarshal(js, &input); err != nil {
		http.Error(w, ErrJSONUnmarshal.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	created, fields, err := handler.Form.Submit(r.Context(), input)
	if len(fields) > 0 {
		sendJSON(w, handler.Logger, http.StatusUnprocessableEntity, fieldErrorResponse{Errors: fields})
		return
	}
	if err != nil {
		sendMessage(w, handler.Logger, upstreamStatus(err), err.Error())
		return
	}

	sendJSON(w, handler.Logger, http.StatusCreated, created)
	handler.Logger.Infow("post created", "postID", created.ID)
}

type editRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// OpenEdit binds the edit dialog to a post so the browser can render the
// seeded draft.
func (handler *PostHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	id, err := handler.postID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	p, ok := handler.Controller.Get(id)
	if !ok {
		sendMessage(w, handler.Logger, http.StatusNotFound, "post not found")
		return
	}

	handler.Dialog.Bind(p)
	sendJSON(w, handler.Logger, http.StatusOK, handler.Dialog.Snapshot())
}

func (handler *PostHandler) CloseEdit(w http.ResponseWriter, r *http.Request) {
	handler.Dialog.Close()
	sendJSON(w, handler.Logger, http.StatusOK, handler.Dialog.Snapshot())
}

// UpdatePost runs the save through the edit dialog: bind (which reseeds
// only when the post changed), apply the draft fields, submit.
func (handler *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	handler.Logger.Info("updating post")
	id, err := handler.postID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	p, ok := handler.Controller.Get(id)
	if !ok {
		sendMessage(w, handler.Logger, http.StatusNotFound, "post not found")
		return
	}

	js, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, ErrReadReqBody.Error(), http.StatusInternalServerError)
		handler.Logger.Error(err)
		return
	}

	req := editRequest{}
	if err := json.Unmarshal(js, &req); err != nil {
		http.Error(w, ErrJSONUnmarshal.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	handler.Dialog.Bind(p)
	handler.Dialog.SetTitle(req.Title)
	handler.Dialog.SetBody(req.Body)
	if err := handler.Dialog.Submit(r.Context()); err != nil {
		if errors.Is(err, forms.ErrSaveInFlight) {
			sendMessage(w, handler.Logger, http.StatusConflict, err.Error())
			return
		}
		sendMessage(w, handler.Logger, upstreamStatus(err), err.Error())
		return
	}

	updated, _ := handler.Controller.Get(id)
	sendJSON(w, handler.Logger, http.StatusOK, updated)
	handler.Logger.Infow("post updated", "postID", id)
}

func (handler *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	handler.Logger.Info("deleting post")
	id, err := handler.postID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	if err := handler.Controller.Delete(r.Context(), id); err != nil {
		if errors.Is(err, posts.ErrDeleteInFlight) {
			sendMessage(w, handler.Logger, http.StatusConflict, err.Error())
			return
		}
		sendMessage(w, handler.Logger, upstreamStatus(err), err.Error())
		return
	}

	sendMessage(w, handler.Logger, http.StatusOK, "success")
	handler.Logger.Infow("post deleted", "postID", id)
}

func (handler *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := handler.postID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	liked := handler.Controller.ToggleLike(id)
	sendJSON(w, handler.Logger, http.StatusOK, toggleResponse{ID: id, Active: liked})
}

func (handler *PostHandler) ToggleExpand(w http.ResponseWriter, r *http.Request) {
	id, err := handler.postID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	expanded := handler.Controller.ToggleExpand(id)
	sendJSON(w, handler.Logger, http.StatusOK, toggleResponse{ID: id, Active: expanded})
}

func (handler *PostHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	id, err := handler.postID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	liked := handler.Controller.ToggleCommentLike(id)
	sendJSON(w, handler.Logger, http.StatusOK, toggleResponse{ID: id, Active: liked})
}

type commentView struct {
	posts.Comment
	Liked bool `json:"liked"`
}

type commentsResponse struct {
	PostID    int           `json:"postId"`
	Loading   bool          `json:"loading"`
	Error     string        `json:"error,omitempty"`
	Count     int           `json:"count"`
	Comments  []commentView `json:"comments"`
	Expanded  bool          `json:"expanded"`
	EmptyText string        `json:"emptyText,omitempty"`
}

// GetComments binds the viewer to the post and fetches fresh; errors are
// part of the rendered state, not an HTTP failure.
func (handler *PostHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	id, err := handler.postID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		handler.Logger.Error(err)
		return
	}

	handler.Viewer.Load(r.Context(), id)
	st := handler.Viewer.Snapshot()
	liked := handler.Controller.Snapshot().LikedComments

	resp := commentsResponse{
		PostID:   st.PostID,
		Loading:  st.Loading,
		Error:    st.Error,
		Count:    st.Count,
		Comments: make([]commentView, 0, len(st.Comments)),
		Expanded: st.Expanded,
	}
	if st.Error == "" && !st.Loading && st.Count == 0 {
		resp.EmptyText = "No comments found"
	}
	for _, c := range st.Comments {
		_, isLiked := liked[c.ID]
		resp.Comments = append(resp.Comments, commentView{Comment: c, Liked: isLiked})
	}

	sendJSON(w, handler.Logger, http.StatusOK, resp)
}
