package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/dispatch"
	"github.com/fgeck/clipperhub/internal/services/extract"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	sendPlatforms []string
	sendFile      string
	sendHTML      bool
	bookmarkTitle string
)

var sendCmd = &cobra.Command{
	Use:   "send [text...]",
	Short: "Send a clip to the enabled destinations",
	Long: `Send a clip to every enabled destination, or only to those given with --platform.

The clip text is taken from the arguments, from --file, or from stdin when
neither is given. With --html the input is treated as an HTML fragment and
converted to text first.`,
	Example: `  clipperhub send "Interesting quote"
  clipperhub send --platform telegram --platform notion < notes.txt
  curl -s https://example.com | clipperhub send --html`,
	RunE: runSend,
}

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark <url>",
	Short: "Send a page link to the enabled destinations",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookmark,
}

func init() {
	sendCmd.Flags().StringSliceVarP(&sendPlatforms, "platform", "p", nil, "destination to send to (repeatable, default: all enabled)")
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "", "read the clip from a file")
	sendCmd.Flags().BoolVar(&sendHTML, "html", false, "treat the input as HTML")

	bookmarkCmd.Flags().StringVarP(&bookmarkTitle, "title", "t", "", "page title")
}

func runSend(cmd *cobra.Command, args []string) error {
	text, err := readClip(cmd.InOrStdin(), args)
	if err != nil {
		log.Error().Err(err).Msg("failed to read clip")
		return err
	}
	if sendHTML {
		text = extract.FromHTML(text)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to send")
	}

	ids := make([]models.DestinationID, 0, len(sendPlatforms))
	for _, p := range sendPlatforms {
		ids = append(ids, models.DestinationID(strings.TrimSpace(p)))
	}

	return dispatchAndReport(cmd.OutOrStdout(), func(ctx context.Context, d dispatch.Service) map[models.DestinationID]models.SendResult {
		if len(ids) == 0 {
			return d.SendToAll(ctx, text)
		}
		return d.SendToSelected(ctx, text, ids)
	})
}

func runBookmark(cmd *cobra.Command, args []string) error {
	text := extract.Bookmark(bookmarkTitle, args[0])

	return dispatchAndReport(cmd.OutOrStdout(), func(ctx context.Context, d dispatch.Service) map[models.DestinationID]models.SendResult {
		return d.SendToAll(ctx, text)
	})
}

// dispatchAndReport wires the services, runs send and prints the outcome. It
// fails unless at least one destination succeeded.
func dispatchAndReport(
	out io.Writer,
	send func(ctx context.Context, d dispatch.Service) map[models.DestinationID]models.SendResult,
) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to close resources")
		}
	}()

	if len(sendPlatforms) == 0 && !a.dispatcher.HasAnyConfigured(ctx) {
		log.Error().Msg("no destination is configured, run 'clipperhub config' first")
		return fmt.Errorf("no destination configured")
	}

	results := send(ctx, a.dispatcher)
	summary := dispatch.Summarize(results)
	printResults(out, results, summary)

	switch summary.Status {
	case dispatch.StatusSuccess, dispatch.StatusPartial:
		return nil
	default:
		return fmt.Errorf("%s", summary.Title)
	}
}

func printResults(out io.Writer, results map[models.DestinationID]models.SendResult, summary dispatch.Summary) {
	ids := append([]models.DestinationID{}, models.AllDestinations...)
	for _, id := range append(ids, extraIDs(results)...) {
		result, ok := results[id]
		if !ok {
			continue
		}
		if result.Success {
			fmt.Fprintf(out, "✓ %s: %s\n", id, result.Message)
		} else {
			fmt.Fprintf(out, "✗ %s: %s\n", id, result.Error)
		}
	}
	fmt.Fprintln(out, summary.Title)
}

func extraIDs(results map[models.DestinationID]models.SendResult) []models.DestinationID {
	var extra []models.DestinationID
	for id := range results {
		if _, err := models.ParseDestinationID(string(id)); err != nil {
			extra = append(extra, id)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return extra
}

func readClip(stdin io.Reader, args []string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case sendFile != "":
		data, err := os.ReadFile(sendFile)
		if err != nil {
			return "", fmt.Errorf("reading clip file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
}
