package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CageChen/foldertree/internal/config"
	"github.com/CageChen/foldertree/internal/tree"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const sampleListing = `+ Folder: Root
  + Folder: Documents
    - File: file1.txt
    - File: file2.txt
    - File: file4.txt
  + Folder: Images
    - File: file3.txt
`

type recorder struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recorder) TreeChanged(reason string, _ *tree.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}

type folderLog struct {
	mu    sync.Mutex
	paths []string
}

func (f *folderLog) AddFolder(folder config.Folder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, folder.Path)
}

func sampleRoot() *tree.Folder {
	return tree.NewFolder("Root",
		tree.NewFolder("Documents",
			tree.NewFile("file1.txt"),
			tree.NewFile("file2.txt"),
			tree.NewFile("file4.txt"),
		),
		tree.NewFolder("Images", tree.NewFile("file3.txt")),
	)
}

func setupRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *tree.Tree, *recorder, *TreeHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tr := tree.New(sampleRoot(), cfg.Indent)
	rec := &recorder{}
	h := NewTreeHandler(cfg, tr, rec)

	r := gin.New()
	h.Register(r.Group("/api"))
	return r, tr, rec, h
}

func do(r http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetTree(t *testing.T) {
	r, _, _, _ := setupRouter(t, config.DefaultConfig())

	w := do(r, http.MethodGet, "/api/tree", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Tree    tree.Node `json:"tree"`
		Files   int       `json:"files"`
		Folders int       `json:"folders"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Root", resp.Tree.Name)
	require.Equal(t, 4, resp.Files)
	require.Equal(t, 3, resp.Folders)

	w = do(r, http.MethodGet, "/api/tree/text", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, sampleListing, w.Body.String())

	w = do(r, http.MethodGet, "/api/tree/html", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "<li>File: file3.txt</li>")
}

func TestGetTree_NamesWithMarkup(t *testing.T) {
	r, tr, _, _ := setupRouter(t, config.DefaultConfig())

	w := do(r, http.MethodPost, "/api/nodes", `{"parent":"Images","node":{"name":"<notes>.txt","type":"file"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(r, http.MethodPost, "/api/nodes", "{\"parent\":\"Images\",\"node\":{\"name\":\"*draft* `x` \",\"type\":\"file\"}}")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/api/tree/html", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.NotContains(t, body, "raw HTML omitted")
	require.NotContains(t, body, "<em>")
	require.Contains(t, body, "<li>File: &lt;notes&gt;.txt</li>")
	require.Contains(t, body, `class="chroma"`)

	w = do(r, http.MethodGet, "/api/tree/outline", "")
	require.Equal(t, http.StatusOK, w.Code)
	outline := w.Body.String()
	require.Contains(t, outline, `- File: \<notes\>.txt`)

	before := tr.String()
	w = do(r, http.MethodPut, "/api/tree", outline)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, before, tr.String())
}

func TestAddAndRemoveNode(t *testing.T) {
	r, tr, rec, _ := setupRouter(t, config.DefaultConfig())

	w := do(r, http.MethodPost, "/api/nodes", `{"parent":"Images","node":{"name":"Raw","type":"folder","children":[{"name":"a.cr2","type":"file"}]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, tr.String(), "    + Folder: Raw\n      - File: a.cr2\n")

	w = do(r, http.MethodDelete, "/api/nodes", `{"path":"Documents/file4.txt"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, strings.Replace(sampleListing, "    - File: file4.txt\n", "", 1)+"    + Folder: Raw\n      - File: a.cr2\n", tr.String())

	// Removing again is a no-op.
	before := tr.String()
	w = do(r, http.MethodDelete, "/api/nodes", `{"path":"Documents/file4.txt"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"removed":false`)
	require.Equal(t, before, tr.String())

	require.Equal(t, []string{"add", "remove"}, rec.all())
}

func TestAddNode_Errors(t *testing.T) {
	r, _, _, _ := setupRouter(t, config.DefaultConfig())

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing node", `{"parent":""}`, http.StatusBadRequest},
		{"unknown type", `{"node":{"name":"x","type":"link"}}`, http.StatusBadRequest},
		{"missing parent", `{"parent":"Music","node":{"name":"x","type":"file"}}`, http.StatusNotFound},
		{"file parent", `{"parent":"Images/file3.txt","node":{"name":"x","type":"file"}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := do(r, http.MethodPost, "/api/nodes", tt.body)
		require.Equal(t, tt.code, w.Code, tt.name)
	}

	w := do(r, http.MethodDelete, "/api/nodes", `{"path":"Music/x"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportTree(t *testing.T) {
	r, tr, rec, _ := setupRouter(t, config.DefaultConfig())

	w := do(r, http.MethodPut, "/api/tree", "+ Folder: New\n  - File: only.txt\n")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "+ Folder: New\n  - File: only.txt\n", tr.String())
	require.Equal(t, []string{"import"}, rec.all())

	w = do(r, http.MethodPut, "/api/tree", "- File: loose.txt\n")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "+ Folder: New\n  - File: only.txt\n", tr.String())
}

func TestFoldersAndReload(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "Documents")
	require.NoError(t, os.Mkdir(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "file1.txt"), []byte("1"), 0o644))
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(other, "x.txt"), []byte("x"), 0o644))

	cfgFile := filepath.Join(t.TempDir(), "foldertree.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("root_name: All\n"), 0o644))
	cfg, err := config.Load([]string{"-config", cfgFile, "-p", dir, "-watch=false"})
	require.NoError(t, err)

	r, tr, rec, h := setupRouter(t, cfg)
	watched := &folderLog{}
	h.SetWatcher(watched)

	w := do(r, http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "+ Folder: "+filepath.Base(dir)+"\n  + Folder: Documents\n    - File: file1.txt\n", tr.String())

	w = do(r, http.MethodPost, "/api/folders", `{"path":"`+filepath.ToSlash(other)+`","alias":"Other"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, strings.HasPrefix(tr.String(), "+ Folder: All\n"))
	require.Contains(t, tr.String(), "  + Folder: Other\n    - File: x.txt\n")

	saved, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	require.Contains(t, string(saved), "alias: Other")
	require.Contains(t, watched.paths, other)

	w = do(r, http.MethodPost, "/api/folders", `{"path":"`+filepath.ToSlash(filepath.Join(other, "x.txt"))+`"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/api/folders", `{"index":7}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodDelete, "/api/folders", `{"index":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "+ Folder: Other\n  - File: x.txt\n", tr.String())

	w = do(r, http.MethodDelete, "/api/folders", `{"index":0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/folders", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"alias":"Other"`)

	require.Equal(t, []string{"reload", "folders", "folders"}, rec.all())
}

func TestWSHandler_Broadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ws := NewWSHandler()
	r := gin.New()
	r.GET("/api/ws", ws.HandleWS)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ws.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	ws.TreeChanged("add", tree.Encode(sampleRoot()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string     `json:"type"`
		Payload TreeChange `json:"payload"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(data)).Decode(&msg))
	require.Equal(t, "treeChange", msg.Type)
	require.Equal(t, "add", msg.Payload.Reason)
	require.Equal(t, "Root", msg.Payload.Tree.Name)
}
