package models

import (
	"fmt"
	"strings"

	"bitbucket.org/mmdatafocus/ratings_backend/utils"
)

type DocumentKind string

const (
	DocumentKindAgenda                   DocumentKind = "agenda"
	DocumentKindRatingSheet              DocumentKind = "rating_sheet"
	DocumentKindMinutes                  DocumentKind = "mom"
	DocumentKindPressRelease             DocumentKind = "press_release"
	DocumentKindRatingLetter             DocumentKind = "rating_letter"
	DocumentKindProvisionalCommunication DocumentKind = "provisional_communication"
)

var AllDocumentKinds = []DocumentKind{
	DocumentKindAgenda,
	DocumentKindRatingSheet,
	DocumentKindMinutes,
	DocumentKindPressRelease,
	DocumentKindRatingLetter,
	DocumentKindProvisionalCommunication,
}

func (k DocumentKind) IsValid() bool {
	for _, known := range AllDocumentKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k DocumentKind) String() string {
	return string(k)
}

// ParseDocumentKind accepts the canonical names plus their dashed spelling
// ("rating-sheet", "press-release").
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: unknown document kind %q", utils.ErrorInvalidRequest, s)
	}
	return k, nil
}

// DocumentFormat is the binary format of an artifact: the editable source
// (XLSX or HTML) or the derived fixed-layout PDF.
type DocumentFormat string

const (
	DocumentFormatSource  DocumentFormat = "source"
	DocumentFormatDerived DocumentFormat = "derived"
)

func (f DocumentFormat) IsValid() bool {
	return f == DocumentFormatSource || f == DocumentFormatDerived
}

func ParseDocumentFormat(s string) (DocumentFormat, error) {
	f := DocumentFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return DocumentFormatDerived, nil
	}
	if !f.IsValid() {
		return "", fmt.Errorf("%w: unknown output format %q", utils.ErrorInvalidRequest, s)
	}
	return f, nil
}

type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeHTML FileType = "html"
	FileTypePDF  FileType = "pdf"
)

func (f FileType) ContentType() string {
	switch f {
	case FileTypeXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FileTypeHTML:
		return "text/html; charset=utf-8"
	case FileTypePDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
