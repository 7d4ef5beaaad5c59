package ingest

import (
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// ObjectRef names one object from a trigger event. Key is still in the
// transport's percent-encoded form.
type ObjectRef struct {
	Bucket string
	Key    string
}

// Event is a trigger describing zero or more newly written objects.
type Event struct {
	Objects []ObjectRef
}

// EventFromS3 converts an S3 event notification into an Event, keeping
// record order. Records without a bucket or key are kept so the dispatcher
// can report them.
func EventFromS3(e events.S3Event) Event {
	ev := Event{Objects: make([]ObjectRef, 0, len(e.Records))}
	for _, rec := range e.Records {
		ev.Objects = append(ev.Objects, ObjectRef{
			Bucket: rec.S3.Bucket.Name,
			Key:    rec.S3.Object.Key,
		})
	}
	return ev
}

// decodeKey undoes the form encoding S3 applies to keys in notifications
// ("+" for space, %XX escapes). Malformed escapes leave the key as sent,
// apart from the "+" substitution.
func decodeKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return strings.ReplaceAll(key, "+", " ")
	}
	return decoded
}
