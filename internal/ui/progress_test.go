package ui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"badchars/internal/driver"
)

func TestProgressModelTracksEvents(t *testing.T) {
	events := make(chan driver.Event)
	model := NewProgressModel("scanning", []string{"a.txt", "b.txt", "c.bin"}, events)
	m := model.(*progressModel)

	m.Update(eventMsg(driver.Event{File: "a.txt", Stage: driver.StageScan, Status: driver.StatusWorking}))
	if m.items[0].status != "scanning" {
		t.Fatalf("expected scanning, got %q", m.items[0].status)
	}
	m.Update(eventMsg(driver.Event{File: "a.txt", Stage: driver.StageScan, Status: driver.StatusDone, Findings: 3}))
	m.Update(eventMsg(driver.Event{File: "b.txt", Stage: driver.StageScan, Status: driver.StatusDone}))
	m.Update(eventMsg(driver.Event{File: "c.bin", Stage: driver.StageLoad, Status: driver.StatusSkipped}))
	// события после завершения файла игнорируются
	m.Update(eventMsg(driver.Event{File: "b.txt", Stage: driver.StageScan, Status: driver.StatusWorking}))
	m.Update(eventMsg(driver.Event{File: "unknown", Status: driver.StatusDone, Findings: 7}))

	if m.finished != 3 || m.findings != 3 {
		t.Fatalf("expected 3 finished files and 3 findings, got %d/%d", m.finished, m.findings)
	}
	if m.items[1].status != "clean" || m.items[2].status != "skipped" {
		t.Fatalf("unexpected statuses %+v", m.items)
	}

	view := m.View()
	for _, want := range []string{"scanning (3/3 files, 3 found)", "3 found", "clean", "skipped", "c.bin"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestProgressModelQuitsWhenEventsClose(t *testing.T) {
	events := make(chan driver.Event)
	close(events)
	m := NewProgressModel("scan", []string{"a"}, events).(*progressModel)

	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("expected doneMsg, got %T", msg)
	}
	_, cmd := m.Update(msg)
	if !m.done || cmd == nil {
		t.Fatal("expected model to finish with a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.Quit")
	}
	if !strings.Contains(m.View(), "done: scan") {
		t.Fatalf("unexpected final view:\n%s", m.View())
	}
}

func TestVisibleKeepsUnfinishedFiles(t *testing.T) {
	files := make([]string, 30)
	for i := range files {
		files[i] = fmt.Sprintf("f%02d.txt", i)
	}
	m := NewProgressModel("scan", files, make(chan driver.Event)).(*progressModel)
	for i := range 20 {
		m.applyEvent(driver.Event{File: files[i], Stage: driver.StageScan, Status: driver.StatusDone})
	}
	m.applyEvent(driver.Event{File: files[25], Stage: driver.StageScan, Status: driver.StatusDone, Findings: 1})

	// 20..24 and 26..29 are unfinished, 25 has findings
	vis := m.visible()
	if len(vis) != 10 {
		t.Fatalf("expected 10 visible items, got %d", len(vis))
	}
	if vis[0].path != "f20.txt" || vis[5].path != "f25.txt" {
		t.Fatalf("finished clean files should scroll out, got %v", vis)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	got := truncate("a/very/long/path/name.txt", 10)
	if !strings.HasPrefix(got, "a/") || !strings.HasSuffix(got, "...") || runewidth.StringWidth(got) > 10 {
		t.Fatalf("got %q", got)
	}
}
