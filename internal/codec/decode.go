package codec

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strconv"

	"github.com/genricoloni/lavaqueue/internal/domain"
)

var errTruncated = errors.New("unexpected end of payload")

// DecodeString decodes a base64 track; unpadded input is accepted. When the
// payload is at the default version its padded form becomes the track's
// canonical form.
func DecodeString(s string) (*domain.Track, error) {
	padded := true
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if b, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return nil, &domain.FormatError{Op: "decode", Reason: "invalid base64", Err: err}
		}
		padded = false
	}

	t, version, err := decode(b)
	if err != nil {
		return nil, err
	}
	if version == DefaultVersion {
		if !padded {
			s = base64.StdEncoding.EncodeToString(b)
		}
		t.SetCanonicalForm(s)
	}
	return t, nil
}

// Decode parses a binary track payload. Versions 1 to 3 are accepted; a
// payload without the version flag is read as version 1.
func Decode(b []byte) (*domain.Track, error) {
	t, _, err := decode(b)
	return t, err
}

func decode(b []byte) (*domain.Track, int, error) {
	if len(b) < headerSize {
		return nil, 0, formatErr("payload shorter than header", nil)
	}

	header := binary.BigEndian.Uint32(b)
	flags := header & flagsMask
	size := int(header & sizeMask)

	if flags&^flagVersioned != 0 {
		return nil, 0, formatErr("unknown header flags", nil)
	}
	if size != len(b)-headerSize {
		return nil, 0, formatErr("declared size "+strconv.Itoa(size)+" does not match payload size "+strconv.Itoa(len(b)-headerSize), nil)
	}

	r := &reader{buf: b[headerSize:]}
	version := 1
	if flags&flagVersioned != 0 {
		version = int(r.byte())
	}
	if r.err == nil && (version < 1 || version > 3) {
		return nil, 0, formatErr("unsupported version "+strconv.Itoa(version), nil)
	}

	t := &domain.Track{}
	t.Title = r.string()
	t.Author = r.string()
	duration := r.int64()
	t.Identifier = r.string()
	t.IsLiveStream = r.bool()
	t.IsSeekable = !t.IsLiveStream
	if version >= 2 {
		t.URI = r.optional()
	}
	if version >= 3 {
		t.ArtworkURI = r.optional()
		t.ISRC = r.optional()
	}
	t.SourceName = r.string()
	if r.err == nil && IsProbingSource(t.SourceName) {
		t.ProbeInfo = r.string()
	}
	if r.err == nil && IsExtendedSource(t.SourceName) {
		t.Extension = domain.TrackExtension{
			AlbumName:        r.optional(),
			AlbumURL:         r.optional(),
			ArtistURL:        r.optional(),
			ArtistArtworkURL: r.optional(),
			PreviewURL:       r.optional(),
			IsPreview:        r.bool(),
		}
	}
	start := r.int64()

	if r.err != nil {
		return nil, 0, formatErr("malformed field", r.err)
	}
	if len(r.buf) != 0 {
		return nil, 0, formatErr(strconv.Itoa(len(r.buf))+" trailing bytes", nil)
	}
	if duration < 0 || start < 0 {
		return nil, 0, formatErr("negative duration", nil)
	}

	t.Duration = domain.MillisDuration(duration)
	t.StartPosition = domain.MillisDuration(start)
	return t, version, nil
}

func formatErr(reason string, err error) error {
	return &domain.FormatError{Op: "decode", Reason: reason, Err: err}
}

// reader consumes big-endian fields; the first failure sticks.
type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = errTruncated
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) byte() byte {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) bool() bool {
	return r.byte() != 0
}

func (r *reader) int64() int64 {
	if b := r.take(8); b != nil {
		return int64(binary.BigEndian.Uint64(b))
	}
	return 0
}

func (r *reader) string() string {
	lb := r.take(2)
	if lb == nil {
		return ""
	}
	b := r.take(int(binary.BigEndian.Uint16(lb)))
	if r.err != nil {
		return ""
	}
	s, err := decodeMUTF8(b)
	if err != nil {
		r.err = err
		return ""
	}
	return s
}

func (r *reader) optional() string {
	if !r.bool() {
		return ""
	}
	return r.string()
}
