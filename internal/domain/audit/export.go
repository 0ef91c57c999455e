package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// NameResolver renders a principal id for people reading an export.
type NameResolver interface {
	DisplayName(ctx context.Context, id string) string
}

type rawNames struct{}

func (rawNames) DisplayName(_ context.Context, id string) string { return id }

// WriteText renders entries one per line:
//
//	Actor: <name> -> Action: <tag> - Subject: <name> - Date: 2006-01-02 15:04:05
//
// The subject part is left out when the subject has no registered name.
func WriteText(ctx context.Context, w io.Writer, entries []*Entry, names NameResolver) error {
	if names == nil {
		names = rawNames{}
	}
	for _, e := range entries {
		line := fmt.Sprintf("Actor: %s -> Action: %s ", names.DisplayName(ctx, e.Actor), e.ActionType)
		if subject := names.DisplayName(ctx, e.Subject); subject != e.Subject {
			line += fmt.Sprintf("- Subject: %s ", subject)
		}
		line += fmt.Sprintf("- Date: %s\n", e.Timestamp.UTC().Format(exportTimeLayout))
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("audit export text: %w", err)
		}
	}
	return nil
}

// WriteCSV renders entries with both raw ids and resolved names.
func WriteCSV(ctx context.Context, w io.Writer, entries []*Entry, names NameResolver) error {
	if names == nil {
		names = rawNames{}
	}
	cw := csv.NewWriter(w)

	header := []string{"Seq", "ID", "Timestamp", "Actor", "ActorName", "Action", "Subject", "SubjectName", "Details"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("audit export csv: write header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			strconv.FormatUint(e.Seq, 10),
			e.ID,
			e.Timestamp.UTC().Format(exportTimeLayout),
			e.Actor,
			names.DisplayName(ctx, e.Actor),
			e.ActionType,
			e.Subject,
			names.DisplayName(ctx, e.Subject),
			e.Details,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("audit export csv: write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
