package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/ops"
	"github.com/roach88/spine/internal/parser"
	"github.com/roach88/spine/internal/writer"
)

// PathParam is the tool argument naming the source document.
const PathParam = "path"

// Name and Version identify the server to clients.
const (
	Name    = "spine"
	Version = "0.1.0"
)

// Options configures a Server.
type Options struct {
	Policy PathPolicy
	// Parser defaults to one capped at Policy.MaxBytes.
	Parser      *parser.Parser
	Text        writer.TextLimits
	Suffix      string
	MaxCueBytes int64
	// Journal records every applied edit when set.
	Journal ops.Journal
	Logger  *slog.Logger
}

// Server serves the operation registry over MCP.
type Server struct {
	mcp    *mcp.Server
	runner *ops.Runner
	logger *slog.Logger
}

// New builds a server with one tool per registry operation.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := ops.NewRegistry(ops.Options{
		CheckPath:   opts.Policy.CheckInput,
		MaxCueBytes: opts.MaxCueBytes,
		Logger:      logger,
	})
	runner := ops.NewRunner(reg, ops.RunnerOptions{
		Parser:      opts.Parser,
		Text:        opts.Text,
		Suffix:      opts.Suffix,
		CheckOutput: opts.Policy.CheckOutput,
		Journal:     opts.Journal,
		Logger:      logger,
	})

	s := &Server{
		mcp:    mcp.NewServer(&mcp.Implementation{Name: Name, Version: Version}, nil),
		runner: runner,
		logger: logger.With("component", "mcpserver"),
	}
	for _, op := range reg.All() {
		info := op.Info()
		s.mcp.AddTool(&mcp.Tool{
			Name:        info.Name,
			Description: info.Description,
			InputSchema: InputSchema(info),
		}, s.handler(info.Name))
	}
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// ServeStdio serves one client over stdin and stdout until ctx is done or
// the client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Info("serving over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// InputSchema describes an operation's arguments as a JSON schema object.
func InputSchema(info ops.Info) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			PathParam: {Type: "string", Description: "Source FCPXML document (.fcpxml, .fcpxmld or .xml)"},
		},
		Required: []string{PathParam},
	}
	for _, p := range info.Params {
		prop := paramSchema(p)
		prop.Description = p.Description
		if p.Default != "" {
			prop.Description += fmt.Sprintf(" (default %s)", p.Default)
		}
		schema.Properties[p.Name] = prop
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

func paramSchema(p ops.Param) *jsonschema.Schema {
	switch p.Type {
	case ops.TypeBool:
		return &jsonschema.Schema{Type: "boolean"}
	case ops.TypeInt:
		return &jsonschema.Schema{Type: "integer"}
	case ops.TypeTime:
		return &jsonschema.Schema{Types: []string{"string", "number"}}
	case ops.TypeTimes:
		return &jsonschema.Schema{
			Types: []string{"array", "string"},
			Items: &jsonschema.Schema{Types: []string{"string", "number"}},
		}
	case ops.TypeStrings:
		return &jsonschema.Schema{
			Types: []string{"array", "string"},
			Items: &jsonschema.Schema{Type: "string"},
		}
	}
	s := &jsonschema.Schema{Type: "string"}
	for _, e := range p.Enum {
		s.Enum = append(s.Enum, e)
	}
	return s
}

func (s *Server) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArgs(req.Params.Arguments)
		if err != nil {
			return toolError(string(ops.ErrCodeInvalidArgument), err.Error()), nil
		}
		path, _ := args[PathParam].(string)
		delete(args, PathParam)
		if path == "" {
			return toolError(string(ops.ErrCodeMissingArgument), "path is required"), nil
		}

		outcome, err := s.runner.Run(ctx, name, path, args)
		if err != nil {
			code := errorCode(err)
			s.logger.Info("tool call failed", "tool", name, "code", code)
			return toolError(code, err.Error()), nil
		}
		s.logger.Info("tool call", "tool", name, "summary", outcome.Summary)
		return toolJSON(outcome)
	}
}

func decodeArgs(raw json.RawMessage) (ops.Args, error) {
	args := ops.Args{}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return args, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	return args, nil
}

// errorCode names a failure by its ops code or ir kind.
func errorCode(err error) string {
	var opErr *ops.Error
	if errors.As(err, &opErr) {
		return string(opErr.Code)
	}
	return string(ir.KindOf(err))
}

type toolFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toolError(code, message string) *mcp.CallToolResult {
	data, _ := json.Marshal(toolFailure{Code: code, Message: strings.TrimSpace(message)})
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(string(ir.KindInternal), "cannot render result"), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}
