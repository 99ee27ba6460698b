package onebot

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Segment kinds understood by the gateway. Unknown kinds pass through
// decode and journaling untouched.
const (
	TextSegment   = "text"
	AtSegment     = "at"
	ImageSegment  = "image"
	ReplySegment  = "reply"
	FaceSegment   = "face"
	DiceSegment   = "dice"
	RpsSegment    = "rps"
	FileSegment   = "file"
	VideoSegment  = "video"
	RecordSegment = "record"
)

// AtAllTarget is the at-segment target that mentions every group member.
const AtAllTarget = "all"

// FlexID is an account reference that is numeric on the wire except for
// the literal "all" in at segments. Some upstreams also quote plain
// numbers; both forms decode to the same value.
type FlexID string

// MarshalJSON writes numeric ids as JSON numbers and everything else as
// a string, matching what upstreams accept.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

// UnmarshalJSON accepts both bare numbers and quoted strings.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	*f = FlexID(bytes.Trim(b, `"`))
	return nil
}

// Int64 returns the numeric value of the id, or 0 for "all" and other
// non-numeric forms.
func (f FlexID) Int64() int64 {
	n, err := strconv.ParseInt(string(f), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// SegmentData is the payload of a message segment. Fields are populated
// according to the segment type; unused fields stay at their zero value
// and are omitted on the wire.
type SegmentData struct {
	// Text body for text segments.
	Text string `json:"text,omitempty"`
	// QQ is the at-segment target: a user id or "all".
	QQ FlexID `json:"qq,omitempty"`
	// ID is the referenced message id for reply segments and the face
	// id for face segments.
	ID int64 `json:"id,omitempty"`
	// File is the media reference: an upstream file token, a base64://
	// payload, or a path, depending on direction.
	File string `json:"file,omitempty"`
	// URL is the upstream download location on inbound media segments.
	URL string `json:"url,omitempty"`
	// LocalPath is set by the media pipeline once (and only while) a
	// local copy of the media exists. It is never sent upstream.
	LocalPath *string `json:"local_path,omitempty"`
}

// Segment is one element of a message body.
type Segment struct {
	Type string      `json:"type"`
	Data SegmentData `json:"data"`
}

// HasMedia reports whether the segment kind can carry downloadable or
// inline media.
func (s Segment) HasMedia() bool {
	switch s.Type {
	case ImageSegment, VideoSegment, FileSegment, RecordSegment:
		return true
	}
	return false
}

// Text builds a plain text segment.
func Text(text string) Segment {
	return Segment{Type: TextSegment, Data: SegmentData{Text: text}}
}

// At builds a mention segment for one user.
func At(userID int64) Segment {
	return Segment{Type: AtSegment, Data: SegmentData{QQ: FlexID(strconv.FormatInt(userID, 10))}}
}

// AtAll builds a mention segment addressing the whole group.
func AtAll() Segment {
	return Segment{Type: AtSegment, Data: SegmentData{QQ: AtAllTarget}}
}

// Image builds an image segment. The file may be an upstream token, a
// URL, or a base64:// payload.
func Image(file string) Segment {
	return Segment{Type: ImageSegment, Data: SegmentData{File: file}}
}

// Reply builds a reply segment referencing an earlier message.
func Reply(messageID int64) Segment {
	return Segment{Type: ReplySegment, Data: SegmentData{ID: messageID}}
}

// Face builds a built-in emoticon segment.
func Face(id int64) Segment {
	return Segment{Type: FaceSegment, Data: SegmentData{ID: id}}
}

// Dice builds a dice roll segment. The rolled value arrives in the echo
// of the sent message.
func Dice() Segment {
	return Segment{Type: DiceSegment}
}

// Rps builds a rock-paper-scissors segment.
func Rps() Segment {
	return Segment{Type: RpsSegment}
}

// File builds a file segment.
func File(file string) Segment {
	return Segment{Type: FileSegment, Data: SegmentData{File: file}}
}

// Video builds a video segment.
func Video(file string) Segment {
	return Segment{Type: VideoSegment, Data: SegmentData{File: file}}
}

// Record builds a voice record segment.
func Record(file string) Segment {
	return Segment{Type: RecordSegment, Data: SegmentData{File: file}}
}
