package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/genricoloni/lavaqueue/internal/codec"
	"github.com/genricoloni/lavaqueue/internal/domain"
	"github.com/genricoloni/lavaqueue/internal/protocol"
	"github.com/spf13/cobra"
)

func newEncodeCmd(opts *options) *cobra.Command {
	var (
		t       domain.Track
		live    bool
		version int
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode track metadata into its identifier",
		Long: `Encode builds the base64 identifier of a track from its metadata.

Examples:
  lavactl encode --title "Song" --author "Band" --identifier abc --source youtube --length 3m20s
  lavactl encode --title Stream --author Radio --identifier http://radio/x --source http --probe mp3 --live`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if live {
				t.IsLiveStream = true
				t.Duration = domain.DurationUnbounded
			}

			encoded, err := codec.StringVersion(&t, version)
			if err != nil {
				return err
			}

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"encoded": encoded, "version": version})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&t.Title, "title", "", "track title")
	f.StringVar(&t.Author, "author", "", "track author")
	f.DurationVar(&t.Duration, "length", 0, "track length")
	f.StringVar(&t.Identifier, "identifier", "", "source specific identifier")
	f.BoolVar(&t.IsSeekable, "seekable", true, "whether the track is seekable")
	f.BoolVar(&live, "live", false, "live stream with unbounded length")
	f.StringVar(&t.URI, "uri", "", "track URI")
	f.StringVar(&t.ArtworkURI, "artwork", "", "artwork URL")
	f.StringVar(&t.ISRC, "isrc", "", "ISRC code")
	f.StringVar(&t.SourceName, "source", "", "source name, e.g. youtube, http, spotify")
	f.StringVar(&t.ProbeInfo, "probe", "", "probe info for http and local sources")
	f.DurationVar(&t.StartPosition, "position", 0, "start position")
	f.StringVar(&t.Extension.AlbumName, "album", "", "album name (extended sources)")
	f.StringVar(&t.Extension.AlbumURL, "album-url", "", "album URL (extended sources)")
	f.StringVar(&t.Extension.ArtistURL, "artist-url", "", "artist URL (extended sources)")
	f.StringVar(&t.Extension.ArtistArtworkURL, "artist-artwork", "", "artist artwork URL (extended sources)")
	f.StringVar(&t.Extension.PreviewURL, "preview-url", "", "preview URL (extended sources)")
	f.BoolVar(&t.Extension.IsPreview, "preview", false, "track is a preview (extended sources)")
	f.IntVar(&version, "format-version", codec.DefaultVersion, "wire format version (2 or 3)")

	return cmd
}

func newDecodeCmd(opts *options) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "decode <encoded>...",
		Short: "Decode track identifiers",
		Long: `Decode prints the metadata held by base64 track identifiers.
With --remote the node decodes them instead, in a single request when more
than one is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tracks []*domain.Track
				err    error
			)
			if remote {
				tracks, err = decodeRemote(cmd, opts, args)
			} else {
				tracks, err = decodeLocal(args)
			}
			if err != nil {
				return err
			}
			return printTracks(cmd.OutOrStdout(), tracks, opts.jsonOut)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "decode through the node")
	return cmd
}

func decodeLocal(encoded []string) ([]*domain.Track, error) {
	tracks := make([]*domain.Track, 0, len(encoded))
	for _, e := range encoded {
		track, err := codec.DecodeString(e)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", e, err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func decodeRemote(cmd *cobra.Command, opts *options, encoded []string) ([]*domain.Track, error) {
	client, err := opts.nodeClient()
	if err != nil {
		return nil, err
	}

	if len(encoded) == 1 {
		track, err := client.DecodeTrack(cmd.Context(), encoded[0])
		if err != nil {
			return nil, err
		}
		return []*domain.Track{track}, nil
	}

	tracks, err := client.DecodeTracks(cmd.Context(), encoded)
	if err != nil {
		return nil, err
	}
	if len(tracks) != len(encoded) {
		return nil, fmt.Errorf("node decoded %d of %d tracks", len(tracks), len(encoded))
	}
	return tracks, nil
}

// printTracks prints one track as an object and several as a list.
func printTracks(out io.Writer, tracks []*domain.Track, jsonOut bool) error {
	if len(tracks) == 1 {
		return printTrack(out, tracks[0], jsonOut)
	}

	if jsonOut {
		wire := make([]protocol.Track, 0, len(tracks))
		for _, track := range tracks {
			w, err := protocol.FromTrack(track)
			if err != nil {
				return err
			}
			wire = append(wire, w)
		}
		return writeJSON(out, wire)
	}

	for i, track := range tracks {
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return err
			}
		}
		if err := printTrack(out, track, false); err != nil {
			return err
		}
	}
	return nil
}

func printTrack(out io.Writer, track *domain.Track, jsonOut bool) error {
	if jsonOut {
		wire, err := protocol.FromTrack(track)
		if err != nil {
			return err
		}
		return writeJSON(out, wire)
	}

	length := "live"
	if track.Duration != domain.DurationUnbounded {
		length = track.Duration.String()
	}

	t := newTable(out)
	t.row("Title:", track.Title)
	t.row("Author:", track.Author)
	t.row("Length:", length)
	t.row("Identifier:", track.Identifier)
	t.row("Source:", track.SourceName)
	t.row("Seekable:", strconv.FormatBool(track.IsSeekable))
	optionalRow(t, "URI:", track.URI)
	optionalRow(t, "Artwork:", track.ArtworkURI)
	optionalRow(t, "ISRC:", track.ISRC)
	optionalRow(t, "Probe:", track.ProbeInfo)
	optionalRow(t, "Album:", track.Extension.AlbumName)
	if track.StartPosition > 0 {
		t.row("Position:", track.StartPosition.Round(time.Millisecond).String())
	}
	return t.flush()
}

func optionalRow(t *table, label, value string) {
	if value != "" {
		t.row(label, value)
	}
}
