package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"overlap-chunk/internal/params"
	"overlap-chunk/internal/service"
)

const (
	ServerName    = "overlap-chunk"
	ServerVersion = "1.0.0"
)

// NewServer creates an MCP server exposing the chunking tools.
func NewServer(chunker *service.Chunker) *server.MCPServer {
	s := server.NewMCPServer(ServerName, ServerVersion)
	RegisterChunkTextTool(s, chunker)
	return s
}

// RegisterChunkTextTool registers the chunk_text tool
func RegisterChunkTextTool(mcpServer *server.MCPServer, chunker *service.Chunker) {
	tool := mcp.NewTool("chunk_text",
		mcp.WithDescription("Split text into fixed-size chunks measured in Unicode codepoints, optionally overlapping by a percentage of the chunk size."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The text to split"),
		),
		mcp.WithNumber("chunk_size",
			mcp.Description("Maximum chunk length in codepoints (positive integer)"),
		),
		mcp.WithNumber("overlap_percentage",
			mcp.Description("Share of the chunk size repeated at the start of the next chunk, 0-100"),
		),
	)
	mcpServer.AddTool(tool, ChunkTextHandler(chunker))
}

// ChunkTextHandler returns the chunk_text handler. Argument problems are
// reported as tool errors, not protocol errors.
func ChunkTextHandler(chunker *service.Chunker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		text, ok := args["text"].(string)
		if !ok {
			return mcp.NewToolResultError("text parameter is required"), nil
		}

		size, err := intArg(args, "chunk_size")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		overlap, err := intArg(args, "overlap_percentage")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := chunker.Chunk(ctx, text, chunker.Resolve(size, overlap))
		if err != nil {
			var verr *params.ValidationError
			if errors.As(err, &verr) {
				return mcp.NewToolResultError(verr.Error()), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to chunk text: %v", err)), nil
		}

		resultJSON, err := json.Marshal(res)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(resultJSON)), nil
	}
}

// intArg reads an optional integral number argument; JSON numbers arrive as float64.
func intArg(args map[string]any, name string) (*int, error) {
	raw, present := args[name]
	if !present || raw == nil {
		return nil, nil
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	v := int(f)
	return &v, nil
}
