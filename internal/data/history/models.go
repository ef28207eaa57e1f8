package history

import (
	"fmt"
	"time"
)

const SchemaVersion = 2

// Entry is one journaled workspace event. Entries in the same group were
// fired by one user gesture, a rename cascade being the usual case.
type Entry struct {
	ID           int64
	WorkspaceKey string
	Kind         string
	BlockID      string
	Field        string
	Old          string
	New          string
	GroupID      string
	Source       string
	Timestamp    time.Time
}

type ActivityPoint struct {
	Start         time.Time
	Total         int
	Creates       int
	Disposes      int
	Changes       int
	Moves         int
	ClassRenames  int
	MethodRenames int
	Retypes       int
	Gestures      int
}

type ActivityReport struct {
	SchemaVersion int
	WorkspaceKey  string
	Since         time.Time
	Until         time.Time
	Window        string
	EntryCount    int
	GestureCount  int
	Points        []ActivityPoint
}

// BuildActivityReport buckets journal entries into fixed windows and
// counts them by kind. Gestures counts distinct event groups, so a rename
// cascade of forty events still reads as one edit.
func BuildActivityReport(workspaceKey string, entries []Entry, window time.Duration) (ActivityReport, error) {
	if len(entries) == 0 {
		return ActivityReport{}, fmt.Errorf("no journal entries available")
	}
	if window <= 0 {
		window = 24 * time.Hour
	}

	var points []ActivityPoint
	groupsSeen := map[string]bool{}
	bucketGroups := map[string]bool{}
	bucketStart := entries[0].Timestamp.UTC().Truncate(window)
	point := ActivityPoint{Start: bucketStart}

	flush := func() {
		point.Gestures = len(bucketGroups)
		points = append(points, point)
	}

	for _, e := range entries {
		ts := e.Timestamp.UTC()
		for !ts.Before(bucketStart.Add(window)) {
			flush()
			bucketStart = bucketStart.Add(window)
			point = ActivityPoint{Start: bucketStart}
			bucketGroups = map[string]bool{}
		}

		point.Total++
		switch e.Kind {
		case "create":
			point.Creates++
		case "dispose":
			point.Disposes++
		case "change":
			point.Changes++
		case "move":
			point.Moves++
		case "class_rename":
			point.ClassRenames++
		case "method_rename":
			point.MethodRenames++
		case "var_retype":
			point.Retypes++
		}
		if e.GroupID != "" {
			bucketGroups[e.GroupID] = true
			groupsSeen[e.GroupID] = true
		}
	}
	flush()

	return ActivityReport{
		SchemaVersion: SchemaVersion,
		WorkspaceKey:  workspaceKey,
		Since:         entries[0].Timestamp.UTC(),
		Until:         entries[len(entries)-1].Timestamp.UTC(),
		Window:        window.String(),
		EntryCount:    len(entries),
		GestureCount:  len(groupsSeen),
		Points:        points,
	}, nil
}
