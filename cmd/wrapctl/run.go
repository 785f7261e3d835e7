package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	descriptor "github.com/goliatone/go-descriptor"
	"github.com/goliatone/go-descriptor/hooks"
	"github.com/goliatone/go-descriptor/internal/hydrate"
	"github.com/goliatone/go-descriptor/pkg/activity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type runFlags struct {
	sets   []string
	gets   []string
	trace  bool
	events bool
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply writes through the layers and print the reads",
		Long: `Builds a record from the document, applies every --set in order through
the installed layers, then prints each requested property as "key = value".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDocument(cmd, v, flags)
		},
	}
	cmd.Flags().StringArrayVar(&flags.sets, "set", nil, "key=value write, repeatable; values parse as int, float, bool or string")
	cmd.Flags().StringArrayVar(&flags.gets, "get", nil, "property to print, repeatable (default: every property)")
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "print each chain's provenance as JSON")
	cmd.Flags().BoolVar(&flags.events, "events", false, "print activity events to stderr")
	return cmd
}

// session is a record built from a document with the CLI's logging wired in.
type session struct {
	record *descriptor.Record
	chains map[string]*descriptor.Chain
}

func openSession(cmd *cobra.Command, v *viper.Viper, emitter *activity.Emitter) (*session, error) {
	doc, err := loadDocument(v)
	if err != nil {
		return nil, err
	}
	level, err := logLevel(v)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	layerOpts := []descriptor.Option{descriptor.WithLogger(descriptor.SlogLogger(logger))}
	if emitter != nil {
		layerOpts = append(layerOpts, descriptor.WithEmitter(emitter))
	}
	record, chains, err := doc.Build(
		hydrate.WithResolver(resolver(v, hooks.WithProgramCache(hooks.NewMapCache()))),
		hydrate.WithHookOptions(hooks.WithLogger(hooks.SlogLogger(logger))),
		hydrate.WithLayerOptions(layerOpts...),
	)
	if err != nil {
		return nil, err
	}
	return &session{record: record, chains: chains}, nil
}

func runDocument(cmd *cobra.Command, v *viper.Viper, flags *runFlags) error {
	var emitter *activity.Emitter
	if flags.events {
		emitter = activity.NewEmitter(activity.Hooks{eventPrinter(cmd.ErrOrStderr())}, activity.Config{Enabled: true})
	}
	s, err := openSession(cmd, v, emitter)
	if err != nil {
		return err
	}

	for _, assignment := range flags.sets {
		key, raw, ok := strings.Cut(assignment, "=")
		if !ok || key == "" {
			return fmt.Errorf("wrapctl: --set %q: want key=value", assignment)
		}
		s.record.Set(key, parseScalar(raw))
	}

	keys := flags.gets
	if len(keys) == 0 {
		keys = s.record.Keys()
	}
	out := cmd.OutOrStdout()
	for _, key := range keys {
		fmt.Fprintf(out, "%s = %v\n", key, s.record.Get(key))
	}

	if flags.trace {
		return s.printTraces(out)
	}
	return nil
}

func (s *session) printTraces(out io.Writer) error {
	keys := make([]string, 0, len(s.chains))
	for key := range s.chains {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		payload, err := s.chains[key].Trace().ToJSON()
		if err != nil {
			return fmt.Errorf("wrapctl: trace %s: %w", key, err)
		}
		fmt.Fprintln(out, string(payload))
	}
	return nil
}

func eventPrinter(w io.Writer) activity.ActivityHook {
	return activity.HookFunc(func(_ context.Context, event activity.Event) error {
		payload, err := json.Marshal(map[string]any{
			"verb":     event.Verb,
			"key":      event.Key,
			"layer_id": event.LayerID,
			"metadata": event.Metadata,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	})
}

// parseScalar converts a command-line value to the narrowest matching type.
func parseScalar(raw string) any {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
