package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

var ErrJSONMarshal = errors.New("json marshal error")
var ErrReadReqBody = errors.New("read request body error")
var ErrJSONUnmarshal = errors.New("json unmarshal error")
var ErrBadPostID = errors.New("bad post id")

func sendJSON(w http.ResponseWriter, logger *zap.SugaredLogger, status int, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		http.Error(w, ErrJSONMarshal.Error(), http.StatusInternalServerError)
		logger.Error(err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(resp); err != nil {
		logger.Error(err)
	}
}

func sendMessage(w http.ResponseWriter, logger *zap.SugaredLogger, status int, message string) {
	sendJSON(w, logger, status, map[string]string{"message": message})
}
