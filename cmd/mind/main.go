// Command mind is a terminal front-end for a Research Mind backend.
//
// Usage:
//
//	MIND_BASE_URL=http://localhost:8080 mind [flags]
//
// Flags:
//
//	-base-url string    Backend base URL (overrides MIND_BASE_URL)
//	-token string       Bearer token (overrides MIND_TOKEN)
//	-session string     Session ID to resume (a new session is created if omitted)
//	-transcript string  Transcript file path (default ~/.mind/transcripts/<session>.json)
//	-sessions           List sessions and exit
//	-audit int          Print the latest N audit entries and exit
//	-ingest string      Ingest workspace files matching a glob pattern and exit (requires -session)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/researchmind/mind"
	"github.com/researchmind/mind/api"
	bt "github.com/researchmind/mind/bubbletea"
	"github.com/researchmind/mind/chat"
	"github.com/researchmind/mind/fs"
	mindjson "github.com/researchmind/mind/json"
	"github.com/researchmind/mind/sse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mind: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		baseURL        = flag.String("base-url", "", "Backend base URL (overrides MIND_BASE_URL)")
		token          = flag.String("token", "", "Bearer token (overrides MIND_TOKEN)")
		sessionID      = flag.String("session", "", "Session ID to resume")
		transcriptPath = flag.String("transcript", "", "Transcript file path")
		listSessions   = flag.Bool("sessions", false, "List sessions and exit")
		auditN         = flag.Int("audit", 0, "Print the latest N audit entries and exit")
		ingestPattern  = flag.String("ingest", "", "Ingest workspace files matching a glob pattern and exit")
	)
	flag.Parse()

	if *baseURL == "" {
		*baseURL = os.Getenv("MIND_BASE_URL")
	}
	if *token == "" {
		*token = os.Getenv("MIND_TOKEN")
	}
	if *baseURL == "" {
		return fmt.Errorf("backend base URL required (set -base-url or MIND_BASE_URL)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := api.New(*baseURL, api.WithToken(*token))

	// One-shot modes bypass the TUI.
	switch {
	case *listSessions:
		sessions, err := client.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		fmt.Print(formatSessions(sessions))
		return nil

	case *auditN > 0:
		page, err := client.AuditEntries(ctx, mind.AuditQuery{Limit: *auditN})
		if err != nil {
			return fmt.Errorf("audit entries: %w", err)
		}
		fmt.Print(formatAudit(page.Entries))
		return nil

	case *ingestPattern != "":
		if *sessionID == "" {
			return fmt.Errorf("-ingest requires -session")
		}
		n, err := ingest(ctx, client, *sessionID, *ingestPattern)
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d file(s)\n", n)
		return nil
	}

	// Resolve the session for the interactive chat view.
	session, err := resolveSession(ctx, client, *sessionID)
	if err != nil {
		return err
	}

	transcript, path, err := loadOrCreateTranscript(*transcriptPath, session.ID)
	if err != nil {
		return err
	}

	// Stream transport reuses the API token.
	var sseOpts []sse.Option
	if *token != "" {
		sseOpts = append(sseOpts, sse.WithHeader("Authorization", "Bearer "+*token))
	}
	opener := sse.New(sseOpts...)

	// The controller's change callback is bound after the model exists;
	// no events flow until the TUI connects a stream.
	var sink func(mind.StreamState)
	controller := chat.New(client, opener, chat.WithOnChange(func(s mind.StreamState) {
		sink(s)
	}))

	model := bt.New(bt.Config{
		Chat:           client,
		Controller:     controller,
		Session:        &session,
		Transcript:     transcript,
		TranscriptPath: path,
		Theme:          mind.DefaultTheme(),
	})
	sink = model.StateSink()

	if err := bt.Run(ctx, model); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}
	controller.Disconnect()

	// Save the transcript on exit if any turns accumulated.
	if len(transcript.Turns) > 0 {
		if err := mindjson.Save(path, *transcript); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", path)
	}

	return nil
}

func resolveSession(ctx context.Context, client *api.Client, id string) (mind.Session, error) {
	if id != "" {
		s, err := client.GetSession(ctx, id)
		if err != nil {
			return mind.Session{}, fmt.Errorf("get session: %w", err)
		}
		return s, nil
	}
	title := "Research session " + time.Now().Format("2006-01-02 15:04")
	s, err := client.CreateSession(ctx, title)
	if err != nil {
		return mind.Session{}, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

func loadOrCreateTranscript(path, sessionID string) (*mind.Transcript, string, error) {
	if path == "" {
		path = defaultTranscriptPath(sessionID)
	}
	t, err := mindjson.Load(path)
	switch {
	case err == nil:
		return &t, path, nil
	case errors.Is(err, os.ErrNotExist):
		return mind.NewTranscript(sessionID), path, nil
	default:
		return nil, "", fmt.Errorf("load transcript: %w", err)
	}
}

func defaultTranscriptPath(sessionID string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".mind", "transcripts", sessionID+".json")
}

func ingest(ctx context.Context, svc mind.ContentService, sessionID, pattern string) (int, error) {
	base, err := os.Getwd()
	if err != nil {
		return 0, err
	}
	items, err := fs.Collect(base, pattern)
	if err != nil {
		return 0, fmt.Errorf("collect files: %w", err)
	}
	for _, item := range items {
		if _, err := svc.IngestContent(ctx, sessionID, item); err != nil {
			return 0, fmt.Errorf("ingest %s: %w", item.Name, err)
		}
	}
	return len(items), nil
}

func formatSessions(sessions []mind.Session) string {
	if len(sessions) == 0 {
		return "No sessions.\n"
	}
	var b strings.Builder
	for _, s := range sessions {
		fmt.Fprintf(&b, "%s  %-40s  %3d msgs  %s\n",
			s.ID, s.Title, s.MessageCount, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

func formatAudit(entries []mind.AuditEntry) string {
	if len(entries) == 0 {
		return "No audit entries.\n"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %-12s  %-20s  %s", e.At.Format(time.RFC3339), e.Actor, e.Action, e.Target)
		if e.Detail != "" {
			fmt.Fprintf(&b, "  (%s)", e.Detail)
		}
		b.WriteString("\n")
	}
	return b.String()
}
