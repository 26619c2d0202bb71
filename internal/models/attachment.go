package models

import "errors"

var ErrInvalidAttachment = errors.New("attachment payload is invalid for its type")

// Validate checks the type-specific payload: media attachments need a
// content URI, locations need coordinates.
func (a Attachment) Validate() error {
	switch a.Type {
	case AttachmentImage, AttachmentVoice, AttachmentFile:
		if a.URI == "" {
			return ErrInvalidAttachment
		}
	case AttachmentLocation:
		if a.Latitude == 0 && a.Longitude == 0 {
			return ErrInvalidAttachment
		}
	default:
		return ErrInvalidAttachment
	}
	return nil
}
