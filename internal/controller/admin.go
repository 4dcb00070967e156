package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"tailscale.com/tsweb"

	"github.com/banshee-data/rtc6-controller/internal/attribute"
	"github.com/banshee-data/rtc6-controller/internal/motionlist"
	"github.com/banshee-data/rtc6-controller/internal/preview"
)

// AttributeView is the JSON form of one attribute on the debug page.
type AttributeView struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Mode        string   `json:"mode"`
	Group       string   `json:"group,omitempty"`
	Allowed     []string `json:"allowed,omitempty"`
	Description string   `json:"description,omitempty"`
	Value       any      `json:"value,omitempty"`
}

// Views lists every attribute with its current value where readable.
func (c *Controller) Views() []AttributeView {
	snap := c.Snapshot()
	attrs := c.registry.Attributes()
	out := make([]AttributeView, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, AttributeView{
			Name:        a.Name,
			Kind:        a.Kind.String(),
			Mode:        a.Mode.String(),
			Group:       a.Group(),
			Allowed:     a.Allowed,
			Description: a.Description,
			Value:       snap[a.Name],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func writeStatus(err error) int {
	switch {
	case errors.Is(err, attribute.ErrValidation), errors.Is(err, attribute.ErrUnknown):
		return http.StatusBadRequest
	case errors.Is(err, motionlist.ErrProtocolViolation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AttachAdminRoutes registers the controller's debug pages on mux.
func (c *Controller) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("attributes", "Attribute values as JSON", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c.Views()); err != nil {
			http.Error(w, "Failed to encode attributes", http.StatusInternalServerError)
		}
	})

	debug.HandleSilentFunc("attribute-write", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			http.Error(w, "Missing name", http.StatusBadRequest)
			return
		}
		value := r.FormValue("value")
		if err := c.WriteString(name, value); err != nil {
			http.Error(w, err.Error(), writeStatus(err))
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote %q to %s", value, name))
	})

	debug.HandleSilentFunc("command", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			http.Error(w, "Missing name", http.StatusBadRequest)
			return
		}
		if err := c.Run(name); err != nil {
			http.Error(w, err.Error(), writeStatus(err))
			return
		}
		io.WriteString(w, fmt.Sprintf("Ran %s", name))
	})

	debug.HandleFunc("list-preview", "Corrected path of the current motion list", func(w http.ResponseWriter, r *http.Request) {
		ins := c.Instructions()
		if len(ins) == 0 {
			http.Error(w, "No motion list loaded", http.StatusNotFound)
			return
		}
		buf := bytes.NewBuffer(nil)
		title := fmt.Sprintf("Motion list (%s, %d instructions)", c.ListState(), len(ins))
		if err := preview.Render(buf, ins, preview.Options{Title: title}); err != nil {
			http.Error(w, "Failed to render preview", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		io.Copy(w, buf)
	})

	if c.metrics != nil {
		mux.Handle("/metrics", c.metrics.Handler())
	}
}
