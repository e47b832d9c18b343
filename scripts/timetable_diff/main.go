package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

type entry struct {
	ClassID      string  `json:"class_id"`
	SubjectID    string  `json:"subject_id"`
	TeacherID    string  `json:"teacher_id"`
	RoomID       *string `json:"room_id"`
	DayOfWeek    string  `json:"day_of_week"`
	PeriodNumber int     `json:"period_number"`
}

type envelope struct {
	Data []entry `json:"data"`
}

type change struct {
	Slot   string
	Before string
	After  string
}

func main() {
	var (
		base    string
		token   string
		fromID  string
		toID    string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "Timetable API base URL")
	flag.StringVar(&token, "token", "", "Bearer token for API access")
	flag.StringVar(&fromID, "from", "", "Version ID to diff from")
	flag.StringVar(&toID, "to", "", "Version ID to diff to")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if fromID == "" || toID == "" {
		log.Fatal("both -from and -to version IDs are required")
	}

	client := &http.Client{Timeout: timeout}

	fromEntries, err := fetchEntries(client, base, token, fromID)
	if err != nil {
		log.Fatalf("failed to fetch entries for %s: %v", fromID, err)
	}
	toEntries, err := fetchEntries(client, base, token, toID)
	if err != nil {
		log.Fatalf("failed to fetch entries for %s: %v", toID, err)
	}

	added, removed, changed := diff(fromEntries, toEntries)
	printReport(fromID, toID, added, removed, changed)

	if len(added)+len(removed)+len(changed) > 0 {
		os.Exit(1)
	}
}

func fetchEntries(client *http.Client, base, token, versionID string) ([]entry, error) {
	url := fmt.Sprintf("%s/timetable/versions/%s/entries", strings.TrimRight(base, "/"), versionID)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return env.Data, nil
}

// diff keys both versions by (class, day, period) and reports lessons that
// appear, disappear, or change occupant between them.
func diff(from, to []entry) (added, removed []string, changed []change) {
	fromBySlot := indexBySlot(from)
	toBySlot := indexBySlot(to)

	for slot, after := range toBySlot {
		before, ok := fromBySlot[slot]
		if !ok {
			added = append(added, fmt.Sprintf("%s -> %s", slot, describe(after)))
			continue
		}
		if describe(before) != describe(after) {
			changed = append(changed, change{Slot: slot, Before: describe(before), After: describe(after)})
		}
	}
	for slot, before := range fromBySlot {
		if _, ok := toBySlot[slot]; !ok {
			removed = append(removed, fmt.Sprintf("%s -> %s", slot, describe(before)))
		}
	}

	sort.Strings(added)
	sort.Strings(removed)
	sort.Slice(changed, func(i, j int) bool { return changed[i].Slot < changed[j].Slot })
	return added, removed, changed
}

func indexBySlot(entries []entry) map[string]entry {
	out := make(map[string]entry, len(entries))
	for _, e := range entries {
		key := fmt.Sprintf("%s %s p%d", e.ClassID, e.DayOfWeek, e.PeriodNumber)
		out[key] = e
	}
	return out
}

func describe(e entry) string {
	room := "-"
	if e.RoomID != nil && *e.RoomID != "" {
		room = *e.RoomID
	}
	return fmt.Sprintf("%s by %s in %s", e.SubjectID, e.TeacherID, room)
}

func printReport(fromID, toID string, added, removed []string, changed []change) {
	fmt.Println("Timetable Diff Report")
	fmt.Println("=====================")
	fmt.Printf("From: %s\nTo:   %s\n\n", fromID, toID)

	fmt.Printf("Added slots (%d):\n", len(added))
	for _, line := range added {
		fmt.Printf("  + %s\n", line)
	}
	fmt.Printf("Removed slots (%d):\n", len(removed))
	for _, line := range removed {
		fmt.Printf("  - %s\n", line)
	}
	fmt.Printf("Changed slots (%d):\n", len(changed))
	for _, c := range changed {
		fmt.Printf("  ~ %s: %s => %s\n", c.Slot, c.Before, c.After)
	}
}
