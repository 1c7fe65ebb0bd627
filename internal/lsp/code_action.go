package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"badchars/internal/config"
	"badchars/internal/present"
	"badchars/internal/scan"
)

const kindQuickFix = "quickfix"

func (s *Server) handleCodeAction(msg *rpcMessage) error {
	var params codeActionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	if !wantsQuickFix(params.Context.Only) {
		return s.sendResponse(msg.ID, []codeAction{})
	}
	uri := canonicalURI(params.TextDocument.URI)
	res, ok := s.result(uri)
	if !ok {
		return s.sendResponse(msg.ID, []codeAction{})
	}
	return s.sendResponse(msg.ID, buildCodeActions(uri, res, params.Range))
}

func wantsQuickFix(only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, kind := range only {
		if kind == kindQuickFix || strings.HasPrefix(kindQuickFix, kind+".") {
			return true
		}
	}
	return false
}

// buildCodeActions offers one fix per finding touching rng, plus a fix for
// the whole document when it has more than one finding.
func buildCodeActions(uri string, res docResult, rng present.Range) []codeAction {
	li := present.NewLineIndex(res.text)
	start := li.Offset(rng.Start)
	end := li.Offset(rng.End)

	actions := make([]codeAction, 0, 2)
	for _, f := range res.findings {
		if f.Start > end {
			break
		}
		if f.End < start {
			continue
		}
		edit := fixEdit(li, f)
		actions = append(actions, codeAction{
			Title:       fixTitle(f),
			Kind:        kindQuickFix,
			Diagnostics: []lspDiagnostic{findingDiagnostic(li, res.severity, f)},
			IsPreferred: true,
			Edit:        &workspaceEdit{Changes: map[string][]textEdit{uri: {edit}}},
		})
	}
	if len(actions) > 0 && len(res.findings) > 1 {
		edits := make([]textEdit, 0, len(res.findings))
		for _, f := range res.findings {
			edits = append(edits, fixEdit(li, f))
		}
		actions = append(actions, codeAction{
			Title: fmt.Sprintf("Fix all %d bad characters in this file", len(res.findings)),
			Kind:  kindQuickFix,
			Edit:  &workspaceEdit{Changes: map[string][]textEdit{uri: edits}},
		})
	}
	return actions
}

func fixEdit(li *present.LineIndex, f scan.Finding) textEdit {
	return textEdit{Range: li.Range(f.Start, f.End), NewText: present.Replacement(f.Char)}
}

func fixTitle(f scan.Finding) string {
	if look, ok := present.Lookalike(f.Char); ok {
		return fmt.Sprintf("Replace U+%04X with %q", f.Char, look)
	}
	return fmt.Sprintf("Remove U+%04X (%s)", f.Char, f.Name())
}

// findingDiagnostic mirrors the published diagnostic for f, so editors can
// match the fix to it.
func findingDiagnostic(li *present.LineIndex, sev config.Severity, f scan.Finding) lspDiagnostic {
	return lspDiagnostic{
		Range:    li.Range(f.Start, f.End),
		Severity: sev.LSP(),
		Code:     f.Hex,
		Source:   present.Source,
		Message:  present.Message(f),
	}
}
