// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui renders the scan report as a foldable, indentable tree.
//
// # Description
//
// This package implements the interactive report browser using
// bubbletea. Folder and composite visibility flags in the report tree
// drive the foldouts; the apply-to-descendants modifier (alt+enter)
// issues the tree's cascading visibility command.
//
// # Thread Safety
//
// TUI components are designed for single-threaded use within the
// bubbletea event loop. Do not access TUI state from multiple
// goroutines.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/RefSweep/services/refsweep/report"
	"github.com/AleutianAI/RefSweep/services/refsweep/scan"
)

// =============================================================================
// Rows
// =============================================================================

// rowKind identifies what a visible row represents.
type rowKind int

const (
	rowFolder rowKind = iota
	rowAsset
	rowComposite
	rowNode
	rowFinding
)

// row is one rendered line of the tree projection.
type row struct {
	kind      rowKind
	depth     int
	label     string
	folder    *report.FolderNode
	composite *report.CompositeResult
}

// =============================================================================
// Config
// =============================================================================

// TreeConfig configures the report browser.
type TreeConfig struct {
	// Label is the root node caption.
	Label string

	// Width overrides terminal width (0 = auto-detect).
	Width int

	// Height overrides terminal height (0 = auto-detect).
	Height int
}

// DefaultTreeConfig returns sensible defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{Label: "Broken references"}
}

// =============================================================================
// Model
// =============================================================================

// TreeModel is the bubbletea model for browsing scan results.
type TreeModel struct {
	config  TreeConfig
	session *scan.Session

	rows    Rows
	cursor  int
	scanErr error

	viewport viewport.Model
	width    int
	height   int
	ready    bool
	quitting bool
}

// Rows is the flattened visible-row projection of the tree.
type Rows []row

// NewTreeModel creates a report browser over the given session.
func NewTreeModel(session *scan.Session, config TreeConfig) TreeModel {
	m := TreeModel{config: config, session: session}
	m.rebuildRows()
	return m
}

// Init implements tea.Model.
func (m TreeModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "s", "S":
			// Synchronous by design: the scan monopolizes the event
			// loop until complete, so no partial tree is ever shown.
			// Failures must surface here: stderr is hidden behind the
			// alternate screen.
			_, m.scanErr = m.session.Scan()
			m.cursor = 0
			m.rebuildRows()
			m.updateViewportContent()

		case "j", "down":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
			m.updateViewportContent()

		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
			m.updateViewportContent()

		case "g", "home":
			m.cursor = 0
			m.updateViewportContent()

		case "G", "end":
			if len(m.rows) > 0 {
				m.cursor = len(m.rows) - 1
			}
			m.updateViewportContent()

		case "enter", " ":
			m.toggleCurrent(false)

		case "alt+enter":
			// Apply-to-descendants modifier: the one cascading
			// visibility mutation.
			m.toggleCurrent(true)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// toggleCurrent folds or unfolds the row under the cursor. With
// cascade, the new value propagates to every descendant folder and
// composite result.
func (m *TreeModel) toggleCurrent(cascade bool) {
	if m.cursor >= len(m.rows) {
		return
	}

	switch r := m.rows[m.cursor]; r.kind {
	case rowFolder:
		if cascade {
			r.folder.SetVisibleRecursively(!r.folder.Visible())
		} else {
			r.folder.SetVisible(!r.folder.Visible())
		}
	case rowComposite:
		r.composite.SetVisible(!r.composite.Visible())
	default:
		return
	}

	m.rebuildRows()
	m.updateViewportContent()
}

// View implements tea.Model.
func (m TreeModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading...\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// =============================================================================
// Projection
// =============================================================================

// rebuildRows re-flattens the tree according to current visibility.
func (m *TreeModel) rebuildRows() {
	m.rows = m.rows[:0]

	if m.session.State() == scan.Unscanned {
		return
	}

	root := m.session.Root()
	m.rows = append(m.rows, row{
		kind:   rowFolder,
		label:  fmt.Sprintf("%s (%d, %d links)", m.config.Label, root.Count(), root.TotalFindings()),
		folder: root,
	})
	if root.Visible() {
		m.appendFolder(root, 1)
	}
	if m.cursor >= len(m.rows) && len(m.rows) > 0 {
		m.cursor = len(m.rows) - 1
	}
}

// appendFolder flattens one folder's contents at the given depth.
func (m *TreeModel) appendFolder(f *report.FolderNode, depth int) {
	for _, name := range f.SubfolderNames() {
		child, _ := f.Subfolder(name)
		m.rows = append(m.rows, row{
			kind:   rowFolder,
			depth:  depth,
			label:  fmt.Sprintf("%s/ (%d, %d links)", name, child.Count(), child.TotalFindings()),
			folder: child,
		})
		if child.Visible() {
			m.appendFolder(child, depth+1)
		}
	}

	for _, a := range f.Assets() {
		m.rows = append(m.rows, row{
			kind:  rowAsset,
			depth: depth,
			label: fmt.Sprintf("%s (%d)", a.DisplayName(), a.FindingCount()),
		})
		for _, p := range a.Broken() {
			m.rows = append(m.rows, row{
				kind:  rowFinding,
				depth: depth + 1,
				label: p.String(),
			})
		}
	}

	for _, c := range f.Composites() {
		m.rows = append(m.rows, row{
			kind:      rowComposite,
			depth:     depth,
			label:     fmt.Sprintf("%s (%d)", c.DisplayName(), c.FindingCount()),
			composite: c,
		})
		if !c.Visible() {
			continue
		}
		for _, nf := range c.PerNode() {
			m.rows = append(m.rows, row{
				kind:  rowNode,
				depth: depth + 1,
				label: nf.NodeName,
			})
			for _, p := range nf.Broken {
				m.rows = append(m.rows, row{
					kind:  rowFinding,
					depth: depth + 2,
					label: p.String(),
				})
			}
		}
	}
}

// =============================================================================
// Rendering
// =============================================================================

func (m *TreeModel) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderRows())
}

func (m *TreeModel) renderRows() string {
	if m.scanErr != nil {
		return findingStyle.Render("Scan failed: "+m.scanErr.Error()) +
			"\n" + promptStyle.Render("Press s to retry.")
	}
	if m.session.State() == scan.Unscanned {
		return promptStyle.Render("No scan yet. Press s to scan the project.")
	}
	if len(m.rows) == 1 && m.rows[0].folder.Count() == 0 {
		return promptStyle.Render("No broken references found.")
	}

	var b strings.Builder
	for i, r := range m.rows {
		indent := strings.Repeat("  ", r.depth)

		marker := "  "
		switch r.kind {
		case rowFolder:
			marker = "▸ "
			if r.folder.Visible() {
				marker = "▾ "
			}
		case rowComposite:
			marker = "▸ "
			if r.composite.Visible() {
				marker = "▾ "
			}
		}

		line := indent + marker + m.styleFor(r.kind).Render(r.label)
		if i == m.cursor {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *TreeModel) styleFor(kind rowKind) lipgloss.Style {
	switch kind {
	case rowFolder:
		return folderStyle
	case rowAsset, rowComposite:
		return itemStyle
	case rowNode:
		return nodeStyle
	default:
		return findingStyle
	}
}

func (m *TreeModel) renderHeader() string {
	stats := m.session.LastStats()
	title := titleStyle.Render("RefSweep")
	if m.session.State() == scan.Unscanned {
		return title
	}
	return title + statsStyle.Render(fmt.Sprintf(
		"  %d items · %d kept · %d broken links",
		stats.ItemsVisited, stats.ResultsKept, stats.BrokenLinks,
	))
}

func (m *TreeModel) renderFooter() string {
	return helpStyle.Render("s scan · enter fold · alt+enter fold subtree · j/k move · q quit")
}

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	folderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75"))

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	nodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	findingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)
