package lsp

import (
	"encoding/json"

	"badchars/internal/present"
	"badchars/internal/scan"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	uri := canonicalURI(params.TextDocument.URI)
	res, ok := s.result(uri)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, buildHover(res, params.Position))
}

func buildHover(res docResult, pos present.Position) *hover {
	li := present.NewLineIndex(res.text)
	offset := li.Offset(pos)
	f, ok := findingAt(res.findings, offset)
	if !ok {
		return nil
	}
	rng := li.Range(f.Start, f.End)
	return &hover{
		Contents: markupContent{Kind: "markdown", Value: present.HoverText(f)},
		Range:    &rng,
	}
}

// findingAt returns the finding covering offset.
func findingAt(findings []scan.Finding, offset int) (scan.Finding, bool) {
	for _, f := range findings {
		if f.Start > offset {
			break
		}
		if offset < f.End {
			return f, true
		}
	}
	return scan.Finding{}, false
}
