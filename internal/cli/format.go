package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/evcraddock/curbing/internal/house"
	"github.com/evcraddock/curbing/internal/registry"
	"github.com/evcraddock/curbing/internal/session"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printHouseTable prints the houses in st as a formatted table.
// Houses whose status the store has not confirmed are marked with *.
func printHouseTable(w io.Writer, st registry.State) error {
	if len(st.Houses) == 0 {
		_, err := fmt.Fprintln(w, "No houses to visit.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tADDRESS\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t-------\t------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, h := range st.Houses {
		status := string(h.Status)
		if slices.Contains(st.Unconfirmed, h.ID) {
			status += " *"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", h.ID, truncate(h.Address, 40), status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d houses (%d no answer)\n", len(st.Houses), countStatus(st.Houses, house.StatusNoAnswer))
	return err
}

// printHouse prints a single house in text format.
func printHouse(w io.Writer, h house.House) error {
	_, err := fmt.Fprintf(w, "House %s\n  Address: %s\n  Status:  %s\n", h.ID, h.Address, h.Status)
	return err
}

// printSummary prints a finish-day summary in text format.
func printSummary(w io.Writer, sum session.Summary) error {
	_, err := fmt.Fprintf(w, "Scanned %d houses, reset %d to %s", sum.Scanned, sum.Reset, house.StatusUnvisited)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		if _, err := fmt.Fprintf(w, ", %d failed", sum.Failed); err != nil {
			return err
		}
	}
	if !sum.Reloaded {
		if sum.ReloadError != "" {
			_, err = fmt.Fprintf(w, " (list not reloaded: %s)\n", sum.ReloadError)
			return err
		}
		_, err = fmt.Fprintln(w, " (list not reloaded)")
		return err
	}
	_, err = fmt.Fprintln(w, ".")
	return err
}

func countStatus(houses []house.House, s house.Status) int {
	n := 0
	for _, h := range houses {
		if h.Status == s {
			n++
		}
	}
	return n
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
