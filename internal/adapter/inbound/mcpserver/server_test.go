package mcpserver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/fdamcp/internal/adapter/inbound/mcpserver"
	"github.com/i2y/fdamcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/fdamcp/internal/adapter/outbound/openfda"
	"github.com/i2y/fdamcp/internal/adapter/outbound/schemavalidator"
	"github.com/i2y/fdamcp/internal/domain"
	"github.com/i2y/fdamcp/internal/usecase"
)

type fixture struct {
	srv      *server.MCPServer
	handlers *mcpserver.Handlers
	requests *atomic.Int32
}

// fakeOpenFDA serves canned openFDA documents keyed by endpoint path.
func fakeOpenFDA(t *testing.T, requests *atomic.Int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/drug/event.json", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"meta":{"results":{"total":2}},"results":[{"safetyreportid":"10001","receivedate":"20240105","serious":"1","patient":{"patientsex":"2","patientonsetage":"54","reaction":[{"reactionmeddrapt":"Nausea"}],"drug":[{"medicinalproduct":"ASPIRIN","drugindication":"Pain"}]}}]}`)
	})
	mux.HandleFunc("/drug/label.json", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if strings.Contains(r.URL.Query().Get("search"), "ibuprofen") {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"code":"SERVER_ERROR","message":"boom"}}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"openfda":{"brand_name":["Bayer <Aspirin>"]},"warnings":["Reye's syndrome"]}]}`)
	})
	mux.HandleFunc("/drug/enforcement.json", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"results":[{"recall_number":"D-0001-2024","classification":"Class II"}]}`)
	})
	upstream := httptest.NewServer(mux)
	t.Cleanup(upstream.Close)
	return upstream
}

func newFixture(t *testing.T) *fixture {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	requests := new(atomic.Int32)
	upstream := fakeOpenFDA(t, requests)

	client, err := openfda.New(upstream.URL, upstream.Client(), logger)
	require.NoError(t, err)
	repo := memrepo.NewInMemoryToolRepository(logger)
	require.NoError(t, repo.Save(context.Background(), domain.Tools()))

	handlers := mcpserver.NewHandlers(
		usecase.NewServeToolsUseCase(repo, logger),
		usecase.NewInvokeToolUseCase(repo, schemavalidator.New(logger), client, logger),
		usecase.NewReadResourceUseCase(client, logger),
		usecase.NewGetPromptUseCase(logger),
		logger,
	)
	srv := mcpserver.NewServer(logger)
	require.NoError(t, handlers.Register(context.Background(), srv))
	return &fixture{srv: srv, handlers: handlers, requests: requests}
}

// call sends one JSON-RPC request through the server and returns the decoded result.
func (f *fixture) call(t *testing.T, method string, params any) map[string]any {
	raw, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	out, err := json.Marshal(f.srv.HandleMessage(context.Background(), raw))
	require.NoError(t, err)

	var resp struct {
		Result map[string]any `json:"result"`
		Error  map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	require.Nil(t, resp.Error, "unexpected JSON-RPC error: %s", out)
	return resp.Result
}

func toolText(t *testing.T, result map[string]any) (string, bool) {
	content := result["content"].([]any)
	require.Len(t, content, 1)
	first := content[0].(map[string]any)
	assert.Equal(t, "text", first["type"])
	isError, _ := result["isError"].(bool)
	return first["text"].(string), isError
}

func TestServer_ListCatalog(t *testing.T) {
	f := newFixture(t)

	tools := f.call(t, "tools/list", map[string]any{})["tools"].([]any)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		def := tool.(map[string]any)
		names = append(names, def["name"].(string))
		schema := def["inputSchema"].(map[string]any)
		assert.Equal(t, []any{"drug_name"}, schema["required"])
	}
	assert.ElementsMatch(t, []string{"search_drug_events", "get_drug_label_info", "search_drug_recalls"}, names)

	resources := f.call(t, "resources/list", map[string]any{})["resources"].([]any)
	uris := make([]string, 0, len(resources))
	for _, r := range resources {
		res := r.(map[string]any)
		uris = append(uris, res["uri"].(string))
		assert.Equal(t, "application/json", res["mimeType"])
	}
	assert.ElementsMatch(t, []string{"fda://drug-events/recent", "fda://drug-labels/popular", "fda://recalls/recent"}, uris)

	prompts := f.call(t, "prompts/list", map[string]any{})["prompts"].([]any)
	assert.Len(t, prompts, 2)
	assert.Zero(t, f.requests.Load())
}

func TestServer_CallTool(t *testing.T) {
	tests := []struct {
		name        string
		inName      string
		inArgs      map[string]any
		wantIsError bool
		check       func(t *testing.T, text string)
	}{
		{
			name:   "Success - adverse events",
			inName: "search_drug_events",
			inArgs: map[string]any{"drug_name": "aspirin", "limit": 5},
			check: func(t *testing.T, text string) {
				var out map[string]any
				require.NoError(t, json.Unmarshal([]byte(text), &out))
				assert.EqualValues(t, 2, out["total_results"])
				events := out["events"].([]any)
				require.Len(t, events, 1)
				assert.Equal(t, "10001", events[0].(map[string]any)["report_id"])
				assert.True(t, strings.HasPrefix(text, "{\n  \""))
			},
		},
		{
			name:   "Success - labels keep HTML characters",
			inName: "get_drug_label_info",
			inArgs: map[string]any{"drug_name": "aspirin"},
			check: func(t *testing.T, text string) {
				assert.Contains(t, text, "Bayer <Aspirin>")
				assert.Contains(t, text, `"labels"`)
			},
		},
		{
			name:   "Success - recall limit above maximum is capped",
			inName: "search_drug_recalls",
			inArgs: map[string]any{"drug_name": "valsartan", "limit": 200},
			check: func(t *testing.T, text string) {
				assert.Contains(t, text, "D-0001-2024")
			},
		},
		{
			name:        "Failure - invalid arguments",
			inName:      "search_drug_events",
			inArgs:      map[string]any{"drug_name": "aspirin", "date_range": "last week"},
			wantIsError: true,
			check: func(t *testing.T, text string) {
				assert.True(t, strings.HasPrefix(text, "Error: invalid arguments"))
			},
		},
		{
			name:        "Failure - upstream error",
			inName:      "get_drug_label_info",
			inArgs:      map[string]any{"drug_name": "ibuprofen"},
			wantIsError: true,
			check: func(t *testing.T, text string) {
				assert.Equal(t, "Error: failed to search drug labels: HTTP 500: SERVER_ERROR: boom", text)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			result := f.call(t, "tools/call", map[string]any{"name": tt.inName, "arguments": tt.inArgs})
			text, isError := toolText(t, result)
			assert.Equal(t, tt.wantIsError, isError)
			tt.check(t, text)
		})
	}
}

func TestHandlers_CallToolUnknown(t *testing.T) {
	f := newFixture(t)

	text, isError := f.handlers.CallTool(context.Background(), "search_device_events", map[string]any{})
	assert.True(t, isError)
	assert.Equal(t, "Error: Unknown tool: search_device_events", text)
	assert.Zero(t, f.requests.Load())
}

func TestServer_ReadResource(t *testing.T) {
	tests := []struct {
		name  string
		inURI string
		check func(t *testing.T, text string, f *fixture)
	}{
		{
			name:  "Success - recent events",
			inURI: "fda://drug-events/recent",
			check: func(t *testing.T, text string, f *fixture) {
				var doc map[string]any
				require.NoError(t, json.Unmarshal([]byte(text), &doc))
				assert.Contains(t, doc, "meta")
				assert.Contains(t, doc, "results")
			},
		},
		{
			name:  "Success - popular labels skip failed drug",
			inURI: "fda://drug-labels/popular",
			check: func(t *testing.T, text string, f *fixture) {
				var doc struct {
					Results []any `json:"results"`
				}
				require.NoError(t, json.Unmarshal([]byte(text), &doc))
				assert.Len(t, doc.Results, 2)
				assert.EqualValues(t, 3, f.requests.Load())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			result := f.call(t, "resources/read", map[string]any{"uri": tt.inURI})
			contents := result["contents"].([]any)
			require.Len(t, contents, 1)
			c := contents[0].(map[string]any)
			assert.Equal(t, tt.inURI, c["uri"])
			assert.Equal(t, "application/json", c["mimeType"])
			tt.check(t, c["text"].(string), f)
		})
	}
}

func TestServer_GetPrompt(t *testing.T) {
	tests := []struct {
		name            string
		inName          string
		inArgs          map[string]string
		wantDescription string
		wantText        string
	}{
		{
			name:            "Success - safety analysis",
			inName:          "analyze_drug_safety",
			inArgs:          map[string]string{"drug_name": "metformin"},
			wantDescription: "Safety analysis prompt for metformin",
			wantText:        "focusing on general safety",
		},
		{
			name:            "Success - comparison",
			inName:          "drug_comparison",
			inArgs:          map[string]string{"drug_list": "Aspirin, ibuprofen ,Tylenol"},
			wantDescription: "Comparative analysis prompt for: Aspirin, ibuprofen, Tylenol",
			wantText:        "Aspirin, ibuprofen, Tylenol",
		},
		{
			name:            "Failure - missing argument",
			inName:          "drug_comparison",
			inArgs:          map[string]string{},
			wantDescription: "Error getting prompt",
			wantText:        "Error: missing required argument: drug_list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			result := f.call(t, "prompts/get", map[string]any{"name": tt.inName, "arguments": tt.inArgs})
			assert.Equal(t, tt.wantDescription, result["description"])

			messages := result["messages"].([]any)
			require.Len(t, messages, 1)
			msg := messages[0].(map[string]any)
			assert.Equal(t, "user", msg["role"])
			content := msg["content"].(map[string]any)
			assert.Contains(t, content["text"], tt.wantText)
		})
	}
}
