package service

import "errors"

// Messages shown to applicants when a fatal step fails.
const (
	MsgUploadFailed     = "Failed to upload support letter."
	MsgPersistFailed    = "Failed to submit application. Please try again."
	MsgAlreadySubmitted = "This application is already being submitted"
)

var (
	ErrAttachmentUpload = errors.New("attachment upload failed")
	ErrPersistence      = errors.New("record insert failed")
	errObjectMissing    = errors.New("uploaded object not found by listing")
)

// BackendMessager is implemented by store errors that carry a message from the
// backend that is fit to show the applicant.
type BackendMessager interface {
	BackendMessage() string
}

func persistenceMessage(err error) string {
	var bm BackendMessager
	if errors.As(err, &bm) {
		if msg := bm.BackendMessage(); msg != "" {
			return msg
		}
	}
	return MsgPersistFailed
}
