// Package mcptools exposes the pacing engine to MCP clients over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jwulff/touchread/internal/pacing"
	"github.com/jwulff/touchread/internal/progress"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// maxWords bounds how many words segment_text returns in one result.
const maxWords = 5000

// WordDelay is one entry of a segment_text result.
type WordDelay struct {
	Word    string `json:"word"`
	DelayMS int64  `json:"delayMs"`
}

// SegmentResult is the segment_text payload.
type SegmentResult struct {
	WPM         int         `json:"wpm"`
	Punctuation bool        `json:"punctuation"`
	WordCount   int         `json:"wordCount"`
	Truncated   bool        `json:"truncated,omitempty"`
	Words       []WordDelay `json:"words"`
}

// Estimate is the reading_estimate payload.
type Estimate struct {
	WPM        int    `json:"wpm"`
	WordCount  int    `json:"wordCount"`
	DurationMS int64  `json:"durationMs"`
	Duration   string `json:"duration"`
}

// IndexResult is the progress_index payload.
type IndexResult struct {
	Index     int     `json:"index"`
	Word      string  `json:"word"`
	WordCount int     `json:"wordCount"`
	Progress  float64 `json:"progress"`
}

// NewServer builds the MCP server with every touchread tool registered.
func NewServer(version string, log *slog.Logger) *server.MCPServer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := server.NewMCPServer("touchread", version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("segment_text",
		mcp.WithDescription("Split text into RSVP words with the display delay of each word."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to segment")),
		mcp.WithNumber("wpm", mcp.Description("Reading speed, 100 to 1000 words per minute (default 300)")),
		mcp.WithBoolean("punctuation", mcp.Description("Pause longer on punctuation and long words (default true)")),
	), logged(log, "segment_text", handleSegment))

	s.AddTool(mcp.NewTool("reading_estimate",
		mcp.WithDescription("Estimate how long a text takes to read at a given speed."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to estimate")),
		mcp.WithNumber("wpm", mcp.Description("Reading speed, 100 to 1000 words per minute (default 300)")),
		mcp.WithBoolean("punctuation", mcp.Description("Pause longer on punctuation and long words (default true)")),
	), logged(log, "reading_estimate", handleEstimate))

	s.AddTool(mcp.NewTool("progress_index",
		mcp.WithDescription("Map a saved progress percentage back to a word position in text."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The text being read")),
		mcp.WithNumber("progress", mcp.Required(), mcp.Description("Progress percentage, 0 to 100")),
	), logged(log, "progress_index", handleProgressIndex))

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(version string, log *slog.Logger) error {
	if err := server.ServeStdio(NewServer(version, log)); err != nil {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

func logged(log *slog.Logger, name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := h(ctx, req)
		if err != nil {
			log.Warn("tool failed", "tool", name, "error", err)
		} else {
			log.Debug("tool call", "tool", name, "error_result", res.IsError)
		}
		return res, err
	}
}

func pacingArgs(req mcp.CallToolRequest) (text string, wpm int, punctuation bool, err error) {
	text, err = req.RequireString("text")
	if err != nil {
		return "", 0, false, err
	}
	wpm = pacing.ClampWPM(int(req.GetFloat("wpm", pacing.DefaultWPM)))
	punctuation = req.GetBool("punctuation", true)
	return text, wpm, punctuation, nil
}

func handleSegment(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, wpm, punctuation, err := pacingArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	seq := pacing.Segment(text, wpm, punctuation)
	res := SegmentResult{
		WPM:         wpm,
		Punctuation: punctuation,
		WordCount:   len(seq),
		Words:       make([]WordDelay, 0, min(len(seq), maxWords)),
	}
	for i, w := range seq {
		if i == maxWords {
			res.Truncated = true
			break
		}
		res.Words = append(res.Words, WordDelay{Word: w.Text, DelayMS: w.Delay.Milliseconds()})
	}
	return jsonResult(res)
}

func handleEstimate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, wpm, punctuation, err := pacingArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	seq := pacing.Segment(text, wpm, punctuation)
	d := seq.Duration()
	return jsonResult(Estimate{
		WPM:        wpm,
		WordCount:  len(seq),
		DurationMS: d.Milliseconds(),
		Duration:   d.String(),
	})
}

func handleProgressIndex(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fraction, err := req.RequireFloat("progress")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	words := pacing.Tokenize(text)
	if len(words) == 0 {
		return mcp.NewToolResultError("text has no words"), nil
	}
	index := progress.FromProgress(fraction, text)
	return jsonResult(IndexResult{
		Index:     index,
		Word:      words[index],
		WordCount: len(words),
		Progress:  progress.ToProgress(index, len(words)),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
