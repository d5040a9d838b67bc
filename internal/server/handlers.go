package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/user/alsamixer-volume/internal/logging"
	"github.com/user/alsamixer-volume/internal/mixer"
	"github.com/user/alsamixer-volume/internal/sse"
)

type volumeBody struct {
	Volume *int `json:"volume"`
}

type muteBody struct {
	Muted *bool `json:"muted"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("encode response: %v", err)
	}
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

func (s *Server) broadcast(event sse.Event) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(event)
}

// GetVolumeHandler handles GET /api/volume. An ambiguous volume is
// reported as null.
func (s *Server) GetVolumeHandler(w http.ResponseWriter, r *http.Request) {
	volume, ok, err := s.mixer.GetVolume()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to get volume: %v", err), http.StatusInternalServerError)
		return
	}
	body := volumeBody{}
	if ok {
		body.Volume = &volume
	}
	writeJSON(w, http.StatusOK, body)
}

// SetVolumeHandler handles POST /api/volume with a form field or JSON body
// named volume. It broadcasts a volume-change event on success.
func (s *Server) SetVolumeHandler(w http.ResponseWriter, r *http.Request) {
	var volume int
	if isJSON(r) {
		var body volumeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if body.Volume == nil {
			http.Error(w, "missing volume value", http.StatusBadRequest)
			return
		}
		volume = *body.Volume
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		volumeStr := r.Form.Get("volume")
		if volumeStr == "" {
			http.Error(w, "missing volume value", http.StatusBadRequest)
			return
		}
		v, err := strconv.Atoi(volumeStr)
		if err != nil {
			http.Error(w, "invalid volume", http.StatusBadRequest)
			return
		}
		volume = v
	}

	logging.Debugf("[POST /api/volume] volume=%d", volume)

	if _, err := s.mixer.SetVolume(volume); err != nil {
		if errors.Is(err, mixer.ErrInvalidVolume) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, fmt.Sprintf("failed to set volume: %v", err), http.StatusInternalServerError)
		return
	}

	s.broadcast(sse.Event{Type: sse.TypeVolume, Data: volumeBody{Volume: &volume}})
	w.WriteHeader(http.StatusNoContent)
}

// GetMuteHandler handles GET /api/mute. An ambiguous mute state is
// reported as null.
func (s *Server) GetMuteHandler(w http.ResponseWriter, r *http.Request) {
	muted, ok, err := s.mixer.GetMute()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to get mute state: %v", err), http.StatusInternalServerError)
		return
	}
	body := muteBody{}
	if ok {
		body.Muted = &muted
	}
	writeJSON(w, http.StatusOK, body)
}

// SetMuteHandler handles POST /api/mute. Without a muted value it toggles
// the current state; an ambiguous state toggles to muted.
func (s *Server) SetMuteHandler(w http.ResponseWriter, r *http.Request) {
	var requested *bool
	if isJSON(r) {
		var body muteBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		requested = body.Muted
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		if v := r.Form.Get("muted"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				http.Error(w, "invalid muted value", http.StatusBadRequest)
				return
			}
			requested = &parsed
		}
	}

	var newMuted bool
	if requested != nil {
		newMuted = *requested
	} else {
		current, ok, err := s.mixer.GetMute()
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to get mute state: %v", err), http.StatusInternalServerError)
			return
		}
		newMuted = !ok || !current
	}

	logging.Debugf("[POST /api/mute] muted=%v toggle=%v", newMuted, requested == nil)

	if _, err := s.mixer.SetMute(newMuted); err != nil {
		http.Error(w, fmt.Sprintf("failed to set mute state: %v", err), http.StatusInternalServerError)
		return
	}

	body := muteBody{Muted: &newMuted}
	s.broadcast(sse.Event{Type: sse.TypeMute, Data: body})
	writeJSON(w, http.StatusOK, body)
}

// ConfigHandler handles GET /api/config with the alsamixer section the
// mixer runs with.
func (s *Server) ConfigHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.config.AlsaMixer)
}
