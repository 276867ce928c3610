package cli

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/genricoloni/lavaqueue/internal/codec"
	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/genricoloni/lavaqueue/internal/protocol"
	"github.com/spf13/cobra"
)

func newLoadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "load <identifier>",
		Short: "Resolve an identifier or search on the node",
		Long: `Load asks the node to resolve a URL or search query.

Examples:
  lavactl load https://www.youtube.com/watch?v=dQw4w9WgXcQ
  lavactl load "ytsearch:never gonna give you up"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.nodeClient()
			if err != nil {
				return err
			}
			result, err := client.LoadTracks(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				tracks := make([]protocol.Track, 0, len(result.Tracks))
				for _, t := range result.Tracks {
					wire, err := protocol.FromTrack(t)
					if err != nil {
						return err
					}
					tracks = append(tracks, wire)
				}
				return writeJSON(out, map[string]any{
					"loadType": result.Type,
					"playlist": result.Playlist,
					"error":    result.Error,
					"tracks":   tracks,
				})
			}

			switch result.Type {
			case domain.LoadResultEmpty:
				fmt.Fprintln(out, "No matches.")
				return nil
			case domain.LoadResultError:
				fmt.Fprintf(out, "Load failed (%s): %s\n", result.Error.Severity, result.Error.Message)
				return nil
			case domain.LoadResultPlaylist:
				fmt.Fprintf(out, "Playlist: %s\n", result.Playlist.Name)
			}

			t := newTable(out, "#", "TITLE", "AUTHOR", "LENGTH", "ENCODED")
			for i, track := range result.Tracks {
				encoded, err := codec.String(track)
				if err != nil {
					return err
				}
				length := "live"
				if track.Duration != domain.DurationUnbounded {
					length = track.Duration.String()
				}
				t.row(strconv.Itoa(i+1), track.Title, track.Author, length, encoded)
			}
			return t.flush()
		},
	}
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show node build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.nodeClient()
			if err != nil {
				return err
			}
			info, err := client.Info(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, info)
			}

			t := newTable(out)
			t.row("Version:", info.Version.Semver)
			t.row("Commit:", info.Git.Commit)
			t.row("JVM:", info.JVM)
			t.row("Lavaplayer:", info.Lavaplayer)
			t.row("Sources:", strings.Join(info.SourceManagers, ", "))
			t.row("Filters:", strings.Join(info.Filters, ", "))
			for _, p := range info.Plugins {
				t.row("Plugin:", p.Name+" "+p.Version)
			}
			return t.flush()
		},
	}
}

func newVersionCmd(opts *options) *cobra.Command {
	var node bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := map[string]string{
				"version":    Version,
				"commit":     Commit,
				"go_version": runtime.Version(),
			}
			if node {
				client, err := opts.nodeClient()
				if err != nil {
					return err
				}
				v, err := client.Version(cmd.Context())
				if err != nil {
					return err
				}
				info["node_version"] = v
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, info)
			}

			fmt.Fprintf(out, "lavactl %s\n", Version)
			if opts.verbose {
				fmt.Fprintf(out, "  commit:     %s\n", Commit)
				fmt.Fprintf(out, "  go version: %s\n", runtime.Version())
			}
			if node {
				fmt.Fprintf(out, "node %s\n", info["node_version"])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&node, "node", false, "also query the node version")
	return cmd
}
