package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyPartitionsByDay(t *testing.T) {
	a := NewS3(S3Config{Bucket: "payloads", Region: "us-east-1"})
	a.now = func() time.Time { return time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)) }

	assert.Equal(t, "webhooks/2026/03/10/evt_123.json", a.Key("evt_123"))
}
