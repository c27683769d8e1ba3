// Package cli provides an interactive prompt for trying preset searches in real time.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/bastiangx/presetserve/internal/utils"
	"github.com/bastiangx/presetserve/pkg/catalog"
	"github.com/bastiangx/presetserve/pkg/preset"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
	fallbackTag = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("(geometry)")
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// InputHandler reads queries line by line and prints the ranked presets.
//
// Lines starting with ':' are commands:
//
//	:geom <geometry>  switch the geometry used for matching and fallback
//	:id <prefix>      list preset IDs under a prefix
//	:family <prefix> <query>
//	                  search only the presets whose ID starts with prefix
//	:show <id>        print one preset
//	:stats            show catalog counts
//	:quit             leave
type InputHandler struct {
	catalog      *catalog.Catalog
	presets      *preset.Collection
	geometry     string
	limit        int
	maxQuery     int
	out          io.Writer
	requestCount int
}

// NewInputHandler creates a handler searching presets and writing to out.
func NewInputHandler(c *catalog.Catalog, presets *preset.Collection, geometry string, limit, maxQuery int, out io.Writer) *InputHandler {
	return &InputHandler{
		catalog:  c,
		presets:  presets,
		geometry: geometry,
		limit:    limit,
		maxQuery: maxQuery,
		out:      out,
	}
}

// Geometry returns the geometry currently used for searches.
func (h *InputHandler) Geometry() string { return h.geometry }

// Start runs the loop until in is exhausted or :quit is entered.
func (h *InputHandler) Start(in io.Reader) error {
	fmt.Fprintln(h.out, nameStyle.Render("presetserve CLI"))
	fmt.Fprintf(h.out, "type a query and press Enter (geometry %s, :quit to exit)\n", h.geometry)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(h.out, promptStyle.Render("> "))
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !h.handleInput(line) {
			return nil
		}
	}
}

// handleInput processes one line. It returns false when the loop should stop.
func (h *InputHandler) handleInput(line string) bool {
	if cmd, ok := strings.CutPrefix(line, ":"); ok {
		return h.handleCommand(cmd)
	}

	h.search(h.presets, line, h.geometry)
	return true
}

// search ranks presets against query and prints up to limit results under label.
func (h *InputHandler) search(presets *preset.Collection, query, label string) {
	h.requestCount++
	if err := utils.ValidateQuery(query, h.maxQuery); err != nil {
		log.Errorf("Rejected query %q: %v", query, err)
		return
	}

	start := time.Now()
	found := presets.MatchGeometry(h.geometry).Search(query, h.geometry)
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for query '%s'", elapsed, query)

	count := min(found.Len(), h.limit)
	if count == 0 {
		log.Warnf("No presets found for query: '%s'", query)
		return
	}

	fmt.Fprintf(h.out, "Found %d presets for '%s' (%s):\n", found.Len(), query, label)
	for i := range count {
		it := found.At(i)
		suffix := ""
		if it.ID() == h.geometry {
			suffix = " " + fallbackTag
		}
		fmt.Fprintf(h.out, "%2d. %-30s %s%s\n", i+1, nameStyle.Render(it.Name()), idStyle.Render(it.ID()), suffix)
	}
}

// show prints one preset as stored in the catalog.
func (h *InputHandler) show(id string) {
	p, ok := h.catalog.Get(id)
	if !ok {
		log.Warnf("No preset with id '%s'", id)
		return
	}
	def := p.Definition()
	fmt.Fprintf(h.out, "%s %s\n", nameStyle.Render(def.Name), idStyle.Render(def.ID))
	fmt.Fprintf(h.out, "  geometry:   %s\n", strings.Join(def.Geometry, ", "))
	if len(def.Terms) > 0 {
		fmt.Fprintf(h.out, "  terms:      %s\n", strings.Join(def.Terms, ", "))
	}
	for _, key := range slices.Sorted(maps.Keys(def.Tags)) {
		fmt.Fprintf(h.out, "  tag:        %s=%s\n", key, def.Tags[key])
	}
	fmt.Fprintf(h.out, "  searchable: %t  suggestion: %t  score: %g\n", p.Searchable(), p.Suggestion(), p.OriginalScore())
}

func (h *InputHandler) handleCommand(cmd string) bool {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "q", "quit", "exit":
		return false
	case "geom", "geometry":
		if arg == "" {
			fmt.Fprintf(h.out, "geometry: %s\n", h.geometry)
			return true
		}
		h.geometry = arg
		fmt.Fprintf(h.out, "geometry set to %s (%s presets)\n", arg, utils.FormatWithCommas(h.presets.MatchGeometry(arg).Len()))
	case "id", "ids":
		ids := h.catalog.IDs(arg)
		if len(ids) == 0 {
			log.Warnf("No preset IDs under '%s'", arg)
			return true
		}
		for _, id := range ids {
			fmt.Fprintln(h.out, idStyle.Render(id))
		}
	case "family", "f":
		prefix, query, _ := strings.Cut(arg, " ")
		query = strings.TrimSpace(query)
		if prefix == "" || query == "" {
			log.Errorf("Usage: :family <id prefix> <query>")
			return true
		}
		family := h.catalog.Family(prefix,
			preset.WithMaxSearchResults(h.presets.MaxSearchResults()),
			preset.WithMaxSuggestionResults(h.presets.MaxSuggestionResults()))
		if family.Len() == 0 {
			log.Warnf("No preset IDs under '%s'", prefix)
			return true
		}
		h.search(family, query, h.geometry+", "+prefix)
	case "show":
		if arg == "" {
			log.Errorf("Usage: :show <id>")
			return true
		}
		h.show(arg)
	case "stats":
		stats := h.catalog.Stats()
		for _, key := range []string{"presets", "suggestions", "nonSearchable", "sources"} {
			fmt.Fprintf(h.out, "%-14s %8s\n", key, utils.FormatWithCommas(stats[key]))
		}
		fmt.Fprintf(h.out, "%-14s %8s\n", "queries", utils.FormatWithCommas(h.requestCount))
	default:
		log.Errorf("Unknown command: :%s", name)
	}
	return true
}
