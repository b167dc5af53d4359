package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testToken = "123:abc"

// sentMessage is a sendMessage or sendAudio call seen by fakeAPI
type sentMessage struct {
	Method  string
	ChatID  string
	Text    string
	Title   string
	File    string
	Payload []byte
	// Length is the request Content-Length, -1 for a streamed body
	Length int64
}

// fakeAPI is an in-memory Bot API server
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	sent     []sentMessage
	updates  []Update
	offsets  []string
	failPoll int // number of getUpdates calls to fail first
	failSend bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{t: t}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) client(opts ...ClientOption) *Client {
	f.t.Helper()
	opts = append([]ClientOption{WithAPIBase(f.srv.URL), WithPollTimeout(time.Second)}, opts...)
	client, err := NewClient(zerolog.Nop(), testToken, opts...)
	if err != nil {
		f.t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	prefix := "/bot" + testToken + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeAPI(w, false, nil, 401, "Unauthorized")
		return
	}
	method := strings.TrimPrefix(r.URL.Path, prefix)

	f.mu.Lock()
	defer f.mu.Unlock()

	switch method {
	case "getMe":
		writeAPI(w, true, map[string]any{"id": 1, "is_bot": true, "first_name": "Playlist", "username": "playlist_bot"}, 0, "")
	case "getUpdates":
		f.offsets = append(f.offsets, r.FormValue("offset"))
		if f.failPoll > 0 {
			f.failPoll--
			writeAPI(w, false, nil, 502, "Bad Gateway")
			return
		}
		updates := f.updates
		f.updates = nil
		writeAPI(w, true, updates, 0, "")
	case "sendMessage":
		if err := r.ParseForm(); err != nil {
			f.t.Errorf("bad sendMessage body: %v", err)
		}
		if f.failSend {
			writeAPI(w, false, nil, 400, "Bad Request: chat not found")
			return
		}
		f.sent = append(f.sent, sentMessage{
			Method: method,
			ChatID: r.FormValue("chat_id"),
			Text:   r.FormValue("text"),
		})
		writeAPI(w, true, map[string]int{"message_id": len(f.sent)}, 0, "")
	case "sendAudio":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			f.t.Errorf("bad sendAudio body: %v", err)
			return
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			f.t.Errorf("sendAudio without file: %v", err)
			return
		}
		data, _ := io.ReadAll(file)
		file.Close()
		if f.failSend {
			writeAPI(w, false, nil, 413, "Request Entity Too Large")
			return
		}
		f.sent = append(f.sent, sentMessage{
			Method:  method,
			ChatID:  r.FormValue("chat_id"),
			Title:   r.FormValue("title"),
			File:    header.Filename,
			Payload: data,
			Length:  r.ContentLength,
		})
		writeAPI(w, true, map[string]int{"message_id": len(f.sent)}, 0, "")
	default:
		writeAPI(w, false, nil, 404, "Not Found")
	}
}

func (f *fakeAPI) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeAPI) texts() []string {
	var out []string
	for _, m := range f.messages() {
		if m.Method == "sendMessage" {
			out = append(out, m.Text)
		}
	}
	return out
}

func writeAPI(w http.ResponseWriter, ok bool, result any, code int, description string) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{"ok": ok}
	if ok {
		resp["result"] = result
	} else {
		resp["error_code"] = code
		resp["description"] = description
		w.WriteHeader(code)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
