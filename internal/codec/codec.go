// Package codec implements the binary track format exchanged with the node.
//
// A payload is a 4-byte big-endian header whose two high bits are flags and
// whose low 30 bits hold the size of everything after the header, followed by
// an optional version byte and the track fields.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/genricoloni/lavaqueue/internal/domain"
)

const (
	// DefaultVersion is the version used for canonical forms.
	DefaultVersion = 3

	headerSize    = 4
	flagVersioned = 1 << 30
	flagsMask     = 3 << 30
	sizeMask      = 1<<30 - 1

	maxStringLen = math.MaxUint16
)

var (
	probingSources  = []string{"http", "local"}
	extendedSources = []string{"spotify", "applemusic", "deezer", "yandexmusic", "vkmusic", "tidal", "qobuz"}
)

// Keys of AdditionalInformation consulted for extended sources when the typed
// extension leaves a field empty.
const (
	keyAlbumName        = "albumName"
	keyAlbumURL         = "albumUrl"
	keyArtistURL        = "artistUrl"
	keyArtistArtworkURL = "artistArtworkUrl"
	keyPreviewURL       = "previewUrl"
	keyIsPreview        = "isPreview"
)

// IsProbingSource reports whether tracks from source carry probe info.
func IsProbingSource(source string) bool {
	return containsFold(probingSources, source)
}

// IsExtendedSource reports whether tracks from source carry the extended
// album/artist/preview fields.
func IsExtendedSource(source string) bool {
	return containsFold(extendedSources, source)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// String returns the canonical form of t at the default version. The result
// is memoized on t.
func String(t *domain.Track) (string, error) {
	return t.LoadOrComputeCanonicalForm(func(t *domain.Track) (string, error) {
		return encodeString(t, DefaultVersion)
	})
}

// StringVersion returns the base64 form of t at version. It never reads or
// writes the memoized canonical form.
func StringVersion(t *domain.Track, version int) (string, error) {
	return encodeString(t, version)
}

func encodeString(t *domain.Track, version int) (string, error) {
	b, err := Encode(t, version)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Encode returns the binary form of t. A zero version selects DefaultVersion.
func Encode(t *domain.Track, version int) ([]byte, error) {
	n, err := EncodedLen(t, version)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	written, _, err := TryEncode(buf, t, version)
	if err != nil {
		return nil, err
	}
	return buf[:written], nil
}

// TryEncode writes t into dst. If dst is too small it returns ok=false and
// leaves dst untouched.
func TryEncode(dst []byte, t *domain.Track, version int) (n int, ok bool, err error) {
	f, err := newFields(t, version)
	if err != nil {
		return 0, false, err
	}
	size, err := f.size()
	if err != nil {
		return 0, false, err
	}
	if len(dst) < size {
		return 0, false, nil
	}

	out := f.append(dst[:0])
	return len(out), true, nil
}

// EncodedLen returns the number of bytes Encode would produce.
func EncodedLen(t *domain.Track, version int) (int, error) {
	f, err := newFields(t, version)
	if err != nil {
		return 0, err
	}
	return f.size()
}

// fields is a validated, flattened view of a track for one version.
type fields struct {
	version  int
	track    *domain.Track
	probing  bool
	extended bool
	ext      [5]string
	preview  bool
}

func newFields(t *domain.Track, version int) (*fields, error) {
	if version == 0 {
		version = DefaultVersion
	}
	if version != 2 && version != 3 {
		return nil, &domain.FormatError{Op: "encode", Reason: "unsupported version " + strconv.Itoa(version)}
	}
	if t == nil {
		return nil, &domain.ConfigurationError{Field: "track", Reason: "nil track"}
	}
	if t.SourceName == "" {
		return nil, &domain.ConfigurationError{Field: "SourceName", Reason: "unknown source"}
	}

	f := &fields{
		version:  version,
		track:    t,
		probing:  IsProbingSource(t.SourceName),
		extended: IsExtendedSource(t.SourceName),
	}
	if f.probing && t.ProbeInfo == "" {
		return nil, &domain.ConfigurationError{Field: "ProbeInfo", Reason: "required for source " + t.SourceName}
	}
	if f.extended {
		f.ext = [5]string{
			extString(t, t.Extension.AlbumName, keyAlbumName),
			extString(t, t.Extension.AlbumURL, keyAlbumURL),
			extString(t, t.Extension.ArtistURL, keyArtistURL),
			extString(t, t.Extension.ArtistArtworkURL, keyArtistArtworkURL),
			extString(t, t.Extension.PreviewURL, keyPreviewURL),
		}
		f.preview = t.Extension.IsPreview
		if v, ok := t.AdditionalInformation[keyIsPreview].(bool); ok && v {
			f.preview = true
		}
	}
	return f, nil
}

func extString(t *domain.Track, typed, key string) string {
	if typed != "" {
		return typed
	}
	if v, ok := t.AdditionalInformation[key].(string); ok {
		return v
	}
	return ""
}

func (f *fields) size() (int, error) {
	t := f.track
	total := headerSize + 1

	var err error
	str := func(name, s string) {
		if err != nil {
			return
		}
		n := mutf8Len(s)
		if n > maxStringLen {
			err = &domain.FormatError{Op: "encode", Reason: name + " exceeds 65535 encoded bytes"}
			return
		}
		total += 2 + n
	}
	opt := func(name, s string) {
		total++
		if present(s) {
			str(name, s)
		}
	}

	str("title", t.Title)
	str("author", t.Author)
	total += 8
	str("identifier", t.Identifier)
	total++
	opt("uri", t.URI)
	if f.version >= 3 {
		opt("artworkUrl", t.ArtworkURI)
		opt("isrc", t.ISRC)
	}
	str("sourceName", t.SourceName)
	if f.probing {
		str("probeInfo", t.ProbeInfo)
	}
	if f.extended {
		for _, s := range f.ext {
			opt("extension", s)
		}
		total++
	}
	total += 8

	if err != nil {
		return 0, err
	}
	if total-headerSize > sizeMask {
		return 0, &domain.FormatError{Op: "encode", Reason: "payload too large"}
	}
	return total, nil
}

// append assumes size succeeded.
func (f *fields) append(b []byte) []byte {
	t := f.track
	start := len(b)

	b = append(b, 0, 0, 0, 0, byte(f.version))
	b = appendString(b, t.Title)
	b = appendString(b, t.Author)
	b = binary.BigEndian.AppendUint64(b, uint64(domain.DurationMillis(t.Duration)))
	b = appendString(b, t.Identifier)
	b = appendBool(b, t.IsLiveStream)
	b = appendOptional(b, t.URI)
	if f.version >= 3 {
		b = appendOptional(b, t.ArtworkURI)
		b = appendOptional(b, t.ISRC)
	}
	b = appendString(b, t.SourceName)
	if f.probing {
		b = appendString(b, t.ProbeInfo)
	}
	if f.extended {
		for _, s := range f.ext {
			b = appendOptional(b, s)
		}
		b = appendBool(b, f.preview)
	}
	b = binary.BigEndian.AppendUint64(b, uint64(domain.DurationMillis(t.StartPosition)))

	size := len(b) - start - headerSize
	binary.BigEndian.PutUint32(b[start:], uint32(flagVersioned|size))
	return b
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint16(b, uint16(mutf8Len(s)))
	return appendMUTF8(b, s)
}

func appendOptional(b []byte, s string) []byte {
	if !present(s) {
		return append(b, 0)
	}
	return appendString(append(b, 1), s)
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

// present reports whether an optional string is written; blank counts as absent.
func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
