package meme

// SourceKind tags the active variant of an ImageSource.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceUploaded
	SourceTemplate
	SourceEdited
)

func (k SourceKind) String() string {
	switch k {
	case SourceUploaded:
		return "uploaded"
	case SourceTemplate:
		return "template"
	case SourceEdited:
		return "edited"
	default:
		return "none"
	}
}

// ImageSource is the image a meme is composed on. Exactly one variant is
// active: Data/MIMEType are set for Uploaded and Edited, URI for Template.
type ImageSource struct {
	Kind     SourceKind
	Data     []byte
	MIMEType string
	URI      string
}

// Uploaded returns an uploaded-bytes source.
func Uploaded(data []byte, mimeType string) ImageSource {
	return ImageSource{Kind: SourceUploaded, Data: data, MIMEType: mimeType}
}

// Template returns a source referencing a template image by URI
// (http(s) URL or local file path).
func Template(uri string) ImageSource {
	return ImageSource{Kind: SourceTemplate, URI: uri}
}

// Edited returns a source holding the result of an AI edit.
func Edited(data []byte, mimeType string) ImageSource {
	return ImageSource{Kind: SourceEdited, Data: data, MIMEType: mimeType}
}

// IsNone reports whether no image is active.
func (s ImageSource) IsNone() bool {
	return s.Kind == SourceNone
}

// Resolve picks the active image using precedence Edited > Uploaded > Template.
// Any argument may be nil; the zero ImageSource (SourceNone) is returned when
// all are absent.
func Resolve(uploaded, template, edited *ImageSource) ImageSource {
	switch {
	case edited != nil && edited.Kind == SourceEdited:
		return *edited
	case uploaded != nil && uploaded.Kind == SourceUploaded:
		return *uploaded
	case template != nil && template.Kind == SourceTemplate:
		return *template
	default:
		return ImageSource{}
	}
}
